package tui

import (
	"github.com/csheth/oeescout/internal/dialogue"
	"github.com/csheth/oeescout/internal/filters"
)

type composerMode int

const (
	composerModeQuestion composerMode = iota
	composerModeUpload
)

const (
	composerQuestionPlaceholder = "Ask about OEE, availability, performance or quality…"
	composerUploadPlaceholder   = "Path to an .xlsx or .csv dataset…"
	composerBusyPlaceholder     = "Waiting for the backend…"
)

const heroTagline = "Ask your production data how the line is really doing."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	sideBySideMinWidth        = 110
	dashboardColumnWidth      = 44
	barWidth                  = 20
)

var filterDimensions = []filters.Dimension{
	filters.DimensionDevice,
	filters.DimensionLocation,
	filters.DimensionMonth,
}

type queryResultMsg struct {
	result dialogue.QueryResult
}

type datasetReadMsg struct {
	path string
	data []byte
	err  error
}

type uploadResultMsg struct {
	result dialogue.UploadResult
}

type catalogResultMsg struct {
	generation uint64
	options    filters.Options
	err        error
}
