package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/conversation"
	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

// Fixed replies appended by the controller.
const (
	QueryFallbackText  = "Sorry, I encountered an error processing your request."
	UploadSuccessText  = "File uploaded successfully. You can now query OEE data."
	UploadFailureText  = "Error uploading file. Please try again."
	noBackendErrorText = "no backend configured"
)

var (
	// ErrQueryFailed marks a query the collaborator could not answer.
	ErrQueryFailed = errors.New("query failed")
	// ErrUploadFailed marks a dataset the collaborator did not accept.
	ErrUploadFailed = errors.New("upload failed")
)

// State is the query slot state.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// UploadState is the upload flow state.
type UploadState int

const (
	UploadIdle UploadState = iota
	UploadInProgress
)

func (s UploadState) String() string {
	if s == UploadInProgress {
		return "uploading"
	}
	return "idle"
}

// Config wires collaborators into a Controller.
type Config struct {
	Backend api.Backend
	Logger  *zap.Logger
}

// Controller owns the conversation log and the filter catalog and moves a
// single query and a single upload through their lifecycles. It is not safe
// for concurrent use: every method except Ticket.Run and UploadTicket.Run
// must be called from the owning goroutine.
type Controller struct {
	backend api.Backend
	logger  *zap.Logger
	log     *conversation.Log
	catalog *filters.Catalog

	state       State
	uploadState UploadState
	seq         uint64
	inFlight    uint64
	uploading   uint64
}

// New returns an idle controller with an empty log and catalog.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("dialogue")
	var fetcher filters.Fetcher
	if cfg.Backend != nil {
		fetcher = cfg.Backend
	}
	return &Controller{
		backend: cfg.Backend,
		logger:  logger,
		log:     conversation.NewLog(),
		catalog: filters.NewCatalog(fetcher, logger.Named("filters")),
	}
}

// State reports whether a query is outstanding.
func (c *Controller) State() State {
	return c.state
}

// UploadState reports whether an upload is outstanding.
func (c *Controller) UploadState() UploadState {
	return c.uploadState
}

// Busy reports whether either flow is pending; the UI disables input then.
func (c *Controller) Busy() bool {
	return c.state == StateAwaitingResponse || c.uploadState == UploadInProgress
}

// Messages returns the conversation in display order.
func (c *Controller) Messages() []conversation.Message {
	return c.log.All()
}

// LatestMetrics returns the snapshot the dashboard should chart.
func (c *Controller) LatestMetrics() (oee.Metrics, bool) {
	msg, ok := c.log.LatestWithMetrics()
	if !ok {
		return oee.Metrics{}, false
	}
	return *msg.Metrics, true
}

// Insights derives recommendations for the latest snapshot, or nil when
// nothing has been charted yet.
func (c *Controller) Insights() []oee.Insight {
	m, ok := c.LatestMetrics()
	if !ok {
		return nil
	}
	return oee.DeriveInsights(m)
}

// Catalog exposes the filter catalog and selection.
func (c *Controller) Catalog() *filters.Catalog {
	return c.catalog
}

// RefreshCatalog fetches the catalog synchronously. Failures are logged and
// returned; the previous catalog stays.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	return c.catalog.Refresh(ctx)
}

// Ticket captures one accepted submission. Run may be called off the owning
// goroutine; it reads nothing but its captured values.
type Ticket struct {
	id      uint64
	query   api.Query
	backend api.Backend
}

// Query returns the request sent to the collaborator.
func (t Ticket) Query() api.Query {
	return t.query
}

// QueryResult is the outcome of a ticket: either Answer or Err is set.
type QueryResult struct {
	ticket uint64
	Answer api.Answer
	Err    error
}

// OK reports whether the query succeeded.
func (r QueryResult) OK() bool {
	return r.Err == nil
}

// Run invokes the query collaborator. Errors and collaborator panics are
// carried in the result wrapped with ErrQueryFailed.
func (t Ticket) Run(ctx context.Context) (result QueryResult) {
	if t.backend == nil {
		return QueryResult{ticket: t.id, Err: queryFailed(errors.New(noBackendErrorText))}
	}
	defer func() {
		if r := recover(); r != nil {
			result = QueryResult{ticket: t.id, Err: queryFailed(fmt.Errorf("collaborator panic: %v", r))}
		}
	}()
	answer, err := t.backend.SubmitQuery(ctx, t.query)
	if err != nil {
		return QueryResult{ticket: t.id, Err: queryFailed(err)}
	}
	return QueryResult{ticket: t.id, Answer: answer}
}

// Submit accepts text when the controller is idle and the text is not blank.
// On accept the user message is appended at once and a Ticket carrying the
// current selection is returned.
func (c *Controller) Submit(text string) (Ticket, bool) {
	if strings.TrimSpace(text) == "" {
		return Ticket{}, false
	}
	if c.state == StateAwaitingResponse {
		c.logger.Debug("submission dropped while a query is in flight")
		return Ticket{}, false
	}
	c.log.Append(conversation.NewUserMessage(text))
	c.seq++
	c.inFlight = c.seq
	c.state = StateAwaitingResponse
	ticket := Ticket{
		id:      c.seq,
		query:   api.Query{Text: text, Selection: c.catalog.CurrentSelection()},
		backend: c.backend,
	}
	c.logger.Debug("query submitted",
		zap.Uint64("ticket", ticket.id),
		zap.Stringer("selection", ticket.query.Selection),
	)
	return ticket, true
}

// Resolve records the outcome of the in-flight ticket and returns to idle.
// Results for any other ticket are ignored and Resolve reports false.
func (c *Controller) Resolve(result QueryResult) bool {
	if c.state != StateAwaitingResponse || result.ticket != c.inFlight {
		c.logger.Debug("stale query result ignored", zap.Uint64("ticket", result.ticket))
		return false
	}
	if result.Err != nil {
		c.logger.Warn("query failed", zap.Uint64("ticket", result.ticket), zap.Error(result.Err))
		c.log.Append(conversation.NewSystemMessage(QueryFallbackText, nil))
	} else {
		c.log.Append(conversation.NewSystemMessage(result.Answer.Text, result.Answer.Metrics))
	}
	c.state = StateIdle
	c.inFlight = 0
	return true
}

// Ask runs a full submission synchronously and reports whether the text was
// accepted.
func (c *Controller) Ask(ctx context.Context, text string) bool {
	ticket, ok := c.Submit(text)
	if !ok {
		return false
	}
	c.Resolve(ticket.Run(ctx))
	return true
}

func queryFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrQueryFailed, err)
}
