package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/oeescout/internal/dialogue"
	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

func newAskCmd(a *app) *cobra.Command {
	var selection filters.Selection
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask one question and print the answer with its insights",
		Example: `  oeescout ask "What is the OEE for March?" --month 03-2024
  oeescout ask why is availability low --device PACK001`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.backend()
			if err != nil {
				return err
			}
			controller := dialogue.New(dialogue.Config{Backend: backend, Logger: a.logger})
			controller.Catalog().SetSelection(selection)

			ticket, ok := controller.Submit(strings.Join(args, " "))
			if !ok {
				return fmt.Errorf("question is empty")
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			result := ticket.Run(ctx)
			controller.Resolve(result)

			out := cmd.OutOrStdout()
			printLatestReply(out, controller)
			if !result.OK() {
				return result.Err
			}
			if metrics, ok := controller.LatestMetrics(); ok {
				printInsights(out, metrics, controller.Insights())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&selection.DeviceID, "device", "", "restrict to one device id")
	cmd.Flags().StringVar(&selection.Location, "location", "", "restrict to one location")
	cmd.Flags().StringVar(&selection.Month, "month", "", "restrict to one month (MM-YYYY)")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a production dataset and print the refreshed filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read dataset: %w", err)
			}
			backend, err := a.backend()
			if err != nil {
				return err
			}
			controller := dialogue.New(dialogue.Config{Backend: backend, Logger: a.logger})
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			result, err := runUpload(ctx, controller, args[0], data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLatestReply(out, controller)
			if !result.OK() {
				return result.Err
			}
			if result.CatalogErr != nil {
				fmt.Fprintf(out, "Filters unavailable: %v\n", result.CatalogErr)
				return nil
			}
			printCatalog(out, controller.Catalog().Options())
			return nil
		},
	}
}

// runUpload moves one dataset through the controller's upload slot.
func runUpload(ctx context.Context, controller *dialogue.Controller, name string, data []byte) (dialogue.UploadResult, error) {
	ticket, ok := controller.BeginUpload(name, data)
	if !ok {
		return dialogue.UploadResult{}, errors.New("an upload is already in progress")
	}
	result := ticket.Run(ctx)
	controller.ResolveUpload(result)
	return result, nil
}

func newFiltersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "Print the devices, locations and months the backend knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.backend()
			if err != nil {
				return err
			}
			controller := dialogue.New(dialogue.Config{Backend: backend, Logger: a.logger})
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := controller.RefreshCatalog(ctx); err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), controller.Catalog().Options())
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := backend.Health(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", backend.Name())
			return nil
		},
	}
}

func printLatestReply(out io.Writer, controller *dialogue.Controller) {
	messages := controller.Messages()
	if len(messages) == 0 {
		return
	}
	fmt.Fprintln(out, messages[len(messages)-1].Text)
}

func printInsights(out io.Writer, metrics oee.Metrics, insights []oee.Insight) {
	fmt.Fprintln(out, metrics.String())
	if len(insights) == 0 {
		fmt.Fprintln(out, "All tracked figures meet their baselines.")
		return
	}
	for _, insight := range insights {
		fmt.Fprintf(out, "[%s] %s\n", insight.Kind, insight.Message)
	}
}

func printCatalog(out io.Writer, options filters.Options) {
	fmt.Fprintf(out, "Devices:   %s\n", listOrNone(options.DeviceIDs))
	fmt.Fprintf(out, "Locations: %s\n", listOrNone(options.Locations))
	fmt.Fprintf(out, "Months:    %s\n", listOrNone(options.Months))
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
