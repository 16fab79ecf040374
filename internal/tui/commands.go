package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/dialogue"
)

func submitQueryJob(ticket dialogue.Ticket) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result := ticket.Run(ctx)
		return queryResultMsg{result: result}, result.Err
	}
}

func readDatasetJob(path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		resolved, err := expandPath(path)
		if err != nil {
			return datasetReadMsg{path: path, err: err}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return datasetReadMsg{path: resolved, err: err}, err
		}
		return datasetReadMsg{path: resolved, data: data}, nil
	}
}

func uploadDatasetJob(ticket dialogue.UploadTicket) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result := ticket.Run(ctx)
		if result.Err != nil {
			return uploadResultMsg{result: result}, result.Err
		}
		return uploadResultMsg{result: result}, result.CatalogErr
	}
}

// fetchFiltersJob stamps its result with the catalog generation current when
// the fetch started.
func fetchFiltersJob(backend api.Backend, generation uint64) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		if backend == nil {
			err := fmt.Errorf("no backend configured")
			return catalogResultMsg{generation: generation, err: err}, err
		}
		options, err := backend.FetchFilterCatalog(ctx)
		return catalogResultMsg{generation: generation, options: options, err: err}, err
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, `"'`)
	if path == "" {
		return "", fmt.Errorf("empty dataset path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
