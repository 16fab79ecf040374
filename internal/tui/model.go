package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/dialogue"
	"github.com/csheth/oeescout/internal/filters"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Backend api.Backend
	Logger  *zap.Logger
	// RequestTimeout bounds every backend job; zero waits indefinitely.
	RequestTimeout time.Duration
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	return newModel(config)
}

type model struct {
	config     Config
	logger     *zap.Logger
	controller *dialogue.Controller
	jobs       *jobBus
	startJob   func(jobKind, jobRunner) tea.Cmd

	composer     textinput.Model
	composerMode composerMode
	spinner      spinner.Model
	viewport     viewport.Model
	layout       pageLayout

	filterFocus     int
	catalogLoading  bool
	catalogGen      uint64
	readingDataset  bool
	pendingUpload   string
	runningJobs     int
	lastJob         *jobSnapshot
	infoMessage     string
	errorMessage    string
	helpVisible     bool
	transcriptDirty bool
	followTail      bool
}

func newModel(config Config) *model {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("tui")

	composer := textinput.New()
	composer.Placeholder = composerQuestionPlaceholder
	composer.CharLimit = 500
	composer.Width = 70
	composer.Prompt = "› "
	composer.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	jobs := newJobBus(logger, config.RequestTimeout)
	return &model{
		config:          config,
		logger:          logger,
		controller:      dialogue.New(dialogue.Config{Backend: config.Backend, Logger: logger}),
		jobs:            jobs,
		startJob:        jobs.Start,
		composer:        composer,
		spinner:         spin,
		viewport:        vp,
		layout:          newPageLayout(),
		infoMessage:     "Upload a dataset with Ctrl+U or ask a question to begin.",
		transcriptDirty: true,
		followTail:      true,
	}
}

func (m *model) Init() tea.Cmd {
	m.catalogLoading = true
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.startJob(jobKindFilters, fetchFiltersJob(m.config.Backend, m.catalogGen)))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	m.syncComposer()
	return next, cmd
}

func (m *model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.working() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.markTranscriptDirty()
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.transcriptWidth
		m.viewport.Height = m.layout.transcriptHeight
		m.composer.Width = m.layout.composerWidth
		m.markTranscriptDirty()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.followTail = m.viewport.AtBottom()
		return m, cmd
	case jobSignalMsg:
		m.runningJobs++
		return m, nil
	case jobResultEnvelope:
		if m.runningJobs > 0 {
			m.runningJobs--
		}
		snapshot := msg.Snapshot
		m.lastJob = &snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.update(msg.Payload)
	case queryResultMsg:
		return m, m.handleQueryResult(msg)
	case datasetReadMsg:
		return m, m.handleDatasetRead(msg)
	case uploadResultMsg:
		return m, m.handleUploadResult(msg)
	case catalogResultMsg:
		return m, m.handleCatalogResult(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m, m.handleEscape()
	case "enter":
		return m, m.submitComposer()
	case "ctrl+u":
		m.actionStartUpload()
		return m, nil
	case "tab":
		m.moveFilterFocus(1)
		return m, nil
	case "shift+tab":
		m.moveFilterFocus(-1)
		return m, nil
	case "ctrl+n":
		m.cycleFilter(1)
		return m, nil
	case "ctrl+p":
		m.cycleFilter(-1)
		return m, nil
	case "ctrl+x":
		m.controller.Catalog().SetSelection(filters.Selection{})
		m.infoMessage = "Filters cleared; queries cover all data."
		return m, nil
	case "ctrl+r":
		return m, m.actionRefreshCatalog()
	case "f1":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "pgup", "pgdown", "ctrl+up", "ctrl+down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		m.followTail = m.viewport.AtBottom()
		return m, cmd
	}
	if !m.composer.Focused() {
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	return m, cmd
}

func (m *model) handleEscape() tea.Cmd {
	switch {
	case m.composerMode == composerModeUpload:
		m.composerMode = composerModeQuestion
		m.composer.SetValue("")
		m.infoMessage = "Upload canceled."
		return nil
	case m.helpVisible:
		m.helpVisible = false
		return nil
	case strings.TrimSpace(m.composer.Value()) != "":
		m.composer.SetValue("")
		return nil
	default:
		return tea.Quit
	}
}

func (m *model) submitComposer() tea.Cmd {
	if m.composerMode == composerModeUpload {
		return m.submitUploadPath()
	}
	return m.submitQuestion()
}

func (m *model) submitQuestion() tea.Cmd {
	text := m.composer.Value()
	if strings.TrimSpace(text) == "" {
		m.errorMessage = "Type a question first."
		return nil
	}
	ticket, ok := m.controller.Submit(text)
	if !ok {
		m.infoMessage = "Still waiting on the previous answer."
		return nil
	}
	m.composer.SetValue("")
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Analyzing (%s)…", ticket.Query().Selection)
	m.followTail = true
	m.markTranscriptDirty()
	return tea.Batch(m.spinner.Tick, m.startJob(jobKindQuery, submitQueryJob(ticket)))
}

func (m *model) actionStartUpload() {
	if m.controller.UploadState() == dialogue.UploadInProgress || m.readingDataset {
		m.infoMessage = "An upload is already running."
		return
	}
	if m.controller.Busy() {
		m.infoMessage = "Wait for the current answer before uploading."
		return
	}
	m.composerMode = composerModeUpload
	m.composer.SetValue("")
	m.errorMessage = ""
	m.infoMessage = "Enter the dataset path and press Enter. Esc cancels."
}

func (m *model) submitUploadPath() tea.Cmd {
	path := strings.TrimSpace(m.composer.Value())
	if path == "" {
		m.errorMessage = "Enter a dataset path or press Esc."
		return nil
	}
	m.composer.SetValue("")
	m.composerMode = composerModeQuestion
	m.readingDataset = true
	m.errorMessage = ""
	m.infoMessage = "Reading " + filepath.Base(path) + "…"
	return tea.Batch(m.spinner.Tick, m.startJob(jobKindRead, readDatasetJob(path)))
}

func (m *model) handleDatasetRead(msg datasetReadMsg) tea.Cmd {
	m.readingDataset = false
	if msg.err != nil {
		m.logger.Warn("dataset read failed", zap.String("path", msg.path), zap.Error(msg.err))
		m.errorMessage = fmt.Sprintf("Could not read dataset: %v", msg.err)
		m.infoMessage = "Press Ctrl+U to try another file."
		return nil
	}
	ticket, ok := m.controller.BeginUpload(msg.path, msg.data)
	if !ok {
		m.infoMessage = "An upload is already running."
		return nil
	}
	m.pendingUpload = filepath.Base(msg.path)
	m.infoMessage = "Uploading " + m.pendingUpload + "…"
	m.followTail = true
	m.markTranscriptDirty()
	return tea.Batch(m.spinner.Tick, m.startJob(jobKindUpload, uploadDatasetJob(ticket)))
}

func (m *model) handleUploadResult(msg uploadResultMsg) tea.Cmd {
	if !m.controller.ResolveUpload(msg.result) {
		return nil
	}
	name := m.pendingUpload
	m.pendingUpload = ""
	m.followTail = true
	m.markTranscriptDirty()
	if !msg.result.OK() {
		m.errorMessage = msg.result.Err.Error()
		m.infoMessage = "Press Ctrl+U to retry the upload."
		return nil
	}
	m.errorMessage = ""
	m.catalogGen++
	if msg.result.CatalogErr != nil {
		m.infoMessage = fmt.Sprintf("Uploaded %s; filter catalog unavailable (Ctrl+R to retry).", name)
		return nil
	}
	m.infoMessage = fmt.Sprintf("Uploaded %s; %s.", name, catalogSummary(m.controller.Catalog().Options()))
	return nil
}

func (m *model) handleQueryResult(msg queryResultMsg) tea.Cmd {
	if !m.controller.Resolve(msg.result) {
		return nil
	}
	m.followTail = true
	m.markTranscriptDirty()
	if !msg.result.OK() {
		m.errorMessage = msg.result.Err.Error()
		m.infoMessage = "Ask again once the backend is reachable."
		return nil
	}
	m.errorMessage = ""
	if msg.result.Answer.Metrics != nil {
		m.infoMessage = "Dashboard updated."
	} else {
		m.infoMessage = "Answer received."
	}
	return nil
}

func (m *model) actionRefreshCatalog() tea.Cmd {
	if m.catalogLoading {
		m.infoMessage = "Filter catalog refresh already running."
		return nil
	}
	if m.controller.UploadState() == dialogue.UploadInProgress {
		m.infoMessage = "The filter catalog refreshes once the upload finishes."
		return nil
	}
	m.catalogLoading = true
	m.infoMessage = "Refreshing filter catalog…"
	return tea.Batch(m.spinner.Tick, m.startJob(jobKindFilters, fetchFiltersJob(m.config.Backend, m.catalogGen)))
}

// handleCatalogResult drops fetches started before the latest successful
// upload, whose catalog is newer.
func (m *model) handleCatalogResult(msg catalogResultMsg) tea.Cmd {
	m.catalogLoading = false
	if msg.generation != m.catalogGen {
		m.logger.Debug("stale catalog result ignored",
			zap.Uint64("generation", msg.generation),
			zap.Uint64("current", m.catalogGen),
		)
		return nil
	}
	catalog := m.controller.Catalog()
	if msg.err != nil {
		_ = catalog.FetchFailed(msg.err)
		m.infoMessage = "Filter catalog unavailable; upload a dataset or press Ctrl+R."
		return nil
	}
	catalog.Apply(msg.options)
	m.infoMessage = "Filters loaded: " + catalogSummary(catalog.Options()) + "."
	return nil
}

func (m *model) moveFilterFocus(step int) {
	n := len(filterDimensions)
	m.filterFocus = ((m.filterFocus+step)%n + n) % n
	m.infoMessage = fmt.Sprintf("Ctrl+N/Ctrl+P changes the %s filter.", m.focusedDimension())
}

func (m *model) focusedDimension() filters.Dimension {
	return filterDimensions[m.filterFocus]
}

func (m *model) cycleFilter(step int) {
	catalog := m.controller.Catalog()
	dim := m.focusedDimension()
	options := catalog.Options()
	if len(options.Values(dim)) == 0 {
		m.infoMessage = fmt.Sprintf("No %s values in the catalog yet.", dim)
		return
	}
	next := options.Cycle(catalog.CurrentSelection(), dim, step)
	catalog.SetSelection(next)
	m.infoMessage = "Filters: " + next.String()
}

func (m *model) working() bool {
	return m.controller.Busy() || m.catalogLoading || m.readingDataset
}

func (m *model) composerDisabled() bool {
	return m.controller.Busy() || m.readingDataset
}

func (m *model) syncComposer() {
	switch {
	case m.composerDisabled():
		m.composer.Placeholder = composerBusyPlaceholder
		if m.composer.Focused() {
			m.composer.Blur()
		}
		return
	case m.composerMode == composerModeUpload:
		m.composer.Placeholder = composerUploadPlaceholder
	default:
		m.composer.Placeholder = composerQuestionPlaceholder
	}
	if !m.composer.Focused() {
		m.composer.Focus()
	}
}

func (m *model) markTranscriptDirty() {
	m.transcriptDirty = true
}

func (m *model) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	m.viewport.SetContent(m.buildTranscript())
	if m.followTail {
		m.viewport.GotoBottom()
	}
}

func catalogSummary(options filters.Options) string {
	return fmt.Sprintf("%d devices, %d locations, %d months",
		len(options.DeviceIDs), len(options.Locations), len(options.Months))
}
