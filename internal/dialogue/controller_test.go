package dialogue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/backendfake"
	"github.com/csheth/oeescout/internal/conversation"
	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu sync.Mutex

	answer     api.Answer
	queryErr   error
	catalog    filters.Options
	catalogErr error
	uploadErr  error
	panicOn    string

	queries []api.Query
	uploads []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Health(context.Context) error { return nil }

func (f *fakeBackend) FetchFilterCatalog(context.Context) (filters.Options, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return filters.Options{}, f.catalogErr
	}
	return f.catalog.Clone(), nil
}

func (f *fakeBackend) UploadDataset(_ context.Context, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return f.uploadErr
}

func (f *fakeBackend) SubmitQuery(_ context.Context, q api.Query) (api.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn != "" && q.Text == f.panicOn {
		panic("backend exploded")
	}
	f.queries = append(f.queries, q)
	if f.queryErr != nil {
		return api.Answer{}, f.queryErr
	}
	return f.answer, nil
}

func snapshot(o, a, p, q float64) *oee.Metrics {
	return &oee.Metrics{OEE: o, Availability: a, Performance: p, Quality: q}
}

func TestSuccessfulSubmissionsAlternateSenders(t *testing.T) {
	backend := &fakeBackend{answer: api.Answer{Text: "The OEE is 72.5%", Metrics: snapshot(72.5, 88, 91, 90)}}
	c := New(Config{Backend: backend})

	questions := []string{"What is the OEE?", "And for line 2?", "Why so low?"}
	for i, q := range questions {
		require.True(t, c.Ask(context.Background(), q))
		msgs := c.Messages()
		require.Len(t, msgs, 2*(i+1))
		assert.Equal(t, conversation.SenderUser, msgs[2*i].Sender)
		assert.Equal(t, q, msgs[2*i].Text)
		assert.False(t, msgs[2*i].HasMetrics())
		assert.Equal(t, conversation.SenderSystem, msgs[2*i+1].Sender)
		assert.Equal(t, "The OEE is 72.5%", msgs[2*i+1].Text)
		assert.Equal(t, StateIdle, c.State())
	}
}

func TestSubmitAppendsUserMessageImmediately(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{}})

	ticket, ok := c.Submit("How is PACK001 doing?")
	require.True(t, ok)
	assert.Equal(t, StateAwaitingResponse, c.State())
	assert.True(t, c.Busy())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.SenderUser, msgs[0].Sender)
	assert.Equal(t, "How is PACK001 doing?", ticket.Query().Text)
}

func TestSubmitRejectsBlankText(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{}})

	for _, text := range []string{"", "   ", "\t\n"} {
		_, ok := c.Submit(text)
		assert.False(t, ok, "text %q", text)
	}
	assert.Empty(t, c.Messages())
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitWhileAwaitingLeavesLogUnchanged(t *testing.T) {
	backend := &fakeBackend{answer: api.Answer{Text: "done"}}
	c := New(Config{Backend: backend})

	ticket, ok := c.Submit("first")
	require.True(t, ok)
	before := c.Messages()

	_, ok = c.Submit("second")
	assert.False(t, ok)
	assert.Equal(t, before, c.Messages())

	require.True(t, c.Resolve(ticket.Run(context.Background())))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "done", msgs[1].Text)
	require.Len(t, backend.queries, 1)
	assert.Equal(t, "first", backend.queries[0].Text)
}

func TestSubmitCarriesCurrentSelection(t *testing.T) {
	backend := &fakeBackend{answer: api.Answer{Text: "ok"}}
	c := New(Config{Backend: backend})
	sel := filters.Selection{DeviceID: "PACK001", Month: "03-2024"}
	c.Catalog().SetSelection(sel)

	ticket, ok := c.Submit("oee?")
	require.True(t, ok)
	c.Catalog().SetSelection(filters.Selection{})

	assert.Equal(t, sel, ticket.Query().Selection)
	c.Resolve(ticket.Run(context.Background()))
	require.Len(t, backend.queries, 1)
	assert.Equal(t, sel, backend.queries[0].Selection)
}

func TestQueryFailureAppendsFallback(t *testing.T) {
	backend := &fakeBackend{queryErr: errors.New("connection refused")}
	c := New(Config{Backend: backend})

	ticket, ok := c.Submit("oee?")
	require.True(t, ok)
	result := ticket.Run(context.Background())
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, ErrQueryFailed)

	require.True(t, c.Resolve(result))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, QueryFallbackText, msgs[1].Text)
	assert.False(t, msgs[1].HasMetrics())
	assert.Equal(t, StateIdle, c.State())

	// the user may resubmit
	_, ok = c.Submit("again")
	assert.True(t, ok)
}

func TestCollaboratorPanicBecomesFailure(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{panicOn: "boom"}})

	require.True(t, c.Ask(context.Background(), "boom"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, QueryFallbackText, msgs[1].Text)
}

func TestNoBackendFailsQuery(t *testing.T) {
	c := New(Config{})

	require.True(t, c.Ask(context.Background(), "anyone there?"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, QueryFallbackText, msgs[1].Text)
}

func TestStaleResultIsIgnored(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{answer: api.Answer{Text: "ok"}}})

	first, ok := c.Submit("one")
	require.True(t, ok)
	firstResult := first.Run(context.Background())
	require.True(t, c.Resolve(firstResult))

	assert.False(t, c.Resolve(firstResult), "result already applied")
	assert.False(t, c.Resolve(QueryResult{}), "zero result")
	assert.Len(t, c.Messages(), 2)

	second, ok := c.Submit("two")
	require.True(t, ok)
	assert.False(t, c.Resolve(firstResult))
	assert.Equal(t, StateAwaitingResponse, c.State())
	assert.True(t, c.Resolve(second.Run(context.Background())))
}

func TestLatestMetricsSkipsPlainReplies(t *testing.T) {
	backend := &fakeBackend{answer: api.Answer{Text: "numbers", Metrics: snapshot(80, 95, 90, 98)}}
	c := New(Config{Backend: backend})

	_, ok := c.LatestMetrics()
	assert.False(t, ok)
	assert.Nil(t, c.Insights())

	require.True(t, c.Ask(context.Background(), "oee?"))
	backend.answer = api.Answer{Text: "Hello!"}
	require.True(t, c.Ask(context.Background(), "hi"))

	m, ok := c.LatestMetrics()
	require.True(t, ok)
	assert.Equal(t, *snapshot(80, 95, 90, 98), m)
	assert.Equal(t, []oee.Insight{{Kind: oee.InsightWarning, Message: "OEE is below industry standard (85%)"}}, c.Insights())
}

func TestInsightsEmptyWhenHealthy(t *testing.T) {
	backend := &fakeBackend{answer: api.Answer{Text: "great", Metrics: snapshot(95, 95, 97, 99)}}
	c := New(Config{Backend: backend})
	require.True(t, c.Ask(context.Background(), "oee?"))

	insights := c.Insights()
	assert.NotNil(t, insights)
	assert.Empty(t, insights)
}

func TestUploadSuccessReplacesCatalog(t *testing.T) {
	fresh := filters.Options{DeviceIDs: []string{"PACK001", "PACK002"}, Months: []string{"01-2024"}}
	backend := &fakeBackend{catalog: fresh}
	c := New(Config{Backend: backend})
	c.Catalog().Apply(filters.Options{DeviceIDs: []string{"OLD"}})

	require.True(t, c.Upload(context.Background(), "/data/oee.xlsx", []byte("xlsx")))

	assert.Equal(t, fresh, c.Catalog().Options())
	assert.Equal(t, UploadIdle, c.UploadState())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, UploadSuccessText, msgs[0].Text)
	assert.Equal(t, conversation.SenderSystem, msgs[0].Sender)
	assert.Equal(t, []string{"/data/oee.xlsx"}, backend.uploads)
}

func TestUploadFailureKeepsCatalog(t *testing.T) {
	previous := filters.Options{DeviceIDs: []string{"PACK001"}, Locations: []string{"LINE_1"}}
	backend := &fakeBackend{
		uploadErr: errors.New("Missing required columns"),
		catalog:   filters.Options{DeviceIDs: []string{"SHOULD_NOT_APPEAR"}},
	}
	c := New(Config{Backend: backend})
	c.Catalog().Apply(previous)

	ticket, ok := c.BeginUpload("bad.xlsx", []byte("x"))
	require.True(t, ok)
	result := ticket.Run(context.Background())
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, ErrUploadFailed)

	require.True(t, c.ResolveUpload(result))
	assert.Equal(t, previous, c.Catalog().Options())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, UploadFailureText, msgs[0].Text)
}

func TestUploadCatalogFetchFailureKeepsCatalog(t *testing.T) {
	previous := filters.Options{Months: []string{"01-2024"}}
	backend := &fakeBackend{catalogErr: errors.New("timeout")}
	c := New(Config{Backend: backend})
	c.Catalog().Apply(previous)

	require.True(t, c.Upload(context.Background(), "oee.xlsx", nil))
	assert.Equal(t, previous, c.Catalog().Options())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, UploadSuccessText, msgs[0].Text)
}

func TestUploadRejectedWhileInFlight(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{}})

	first, ok := c.BeginUpload("a.xlsx", nil)
	require.True(t, ok)
	assert.Equal(t, "a.xlsx", first.Filename())
	assert.True(t, c.Busy())

	_, ok = c.BeginUpload("b.xlsx", nil)
	assert.False(t, ok)

	result := first.Run(context.Background())
	assert.True(t, c.ResolveUpload(result))
	assert.False(t, c.ResolveUpload(result))
	assert.False(t, c.Busy())
}

func TestQueryAndUploadAreIndependent(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{answer: api.Answer{Text: "ok"}}})

	ticket, ok := c.Submit("oee?")
	require.True(t, ok)
	upload, ok := c.BeginUpload("a.xlsx", nil)
	require.True(t, ok)

	done := make(chan QueryResult)
	go func() { done <- ticket.Run(context.Background()) }()
	c.ResolveUpload(upload.Run(context.Background()))
	assert.Equal(t, StateAwaitingResponse, c.State())
	assert.True(t, c.Resolve(<-done))

	texts := make([]string, 0, 3)
	for _, msg := range c.Messages() {
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, []string{"oee?", UploadSuccessText, "ok"}, texts)
}

func TestRefreshCatalogFailureIsReported(t *testing.T) {
	c := New(Config{Backend: &fakeBackend{catalogErr: errors.New("down")}})
	c.Catalog().Apply(filters.Options{DeviceIDs: []string{"PACK001"}})

	err := c.RefreshCatalog(context.Background())
	assert.ErrorIs(t, err, filters.ErrFetchFailed)
	assert.Equal(t, []string{"PACK001"}, c.Catalog().Options().DeviceIDs)
}

func TestControllerAgainstHTTPBackend(t *testing.T) {
	fake := backendfake.New()
	fake.RequireUpload()
	fake.SetCatalogAfterUpload(filters.Options{
		DeviceIDs: []string{"PACK001"},
		Locations: []string{"PRODUCTION_LINE_1"},
		Months:    []string{"01-2024", "02-2024"},
	})
	fake.SetAnswer(func(req backendfake.QueryRequest) backendfake.Reply {
		if strings.Contains(req.Message, "hello") {
			return backendfake.Reply{Status: http.StatusOK, Body: map[string]any{"message": "Hi there"}}
		}
		return backendfake.AnswerReply("OEE is 90%", oee.Metrics{OEE: 90, Availability: 85, Performance: 99, Quality: 90})
	})
	server := httptest.NewServer(fake.Handler())
	defer server.Close()

	backend, err := api.New(api.Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	c := New(Config{Backend: backend})

	assert.Error(t, c.RefreshCatalog(context.Background()))
	require.True(t, c.Ask(context.Background(), "oee before upload"))
	assert.Equal(t, QueryFallbackText, c.Messages()[1].Text)

	require.True(t, c.Upload(context.Background(), "oee.xlsx", []byte("sheet")))
	assert.Equal(t, []string{"01-2024", "02-2024"}, c.Catalog().Options().Months)

	c.Catalog().SetSelection(filters.Selection{Location: "PRODUCTION_LINE_1"})
	require.True(t, c.Ask(context.Background(), "oee now"))
	require.True(t, c.Ask(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 7)
	assert.Equal(t, UploadSuccessText, msgs[2].Text)
	assert.Equal(t, "OEE is 90%", msgs[4].Text)
	assert.Equal(t, "Hi there", msgs[6].Text)

	insights := c.Insights()
	require.Len(t, insights, 2)
	assert.Equal(t, oee.InsightImprovement, insights[0].Kind)
	assert.Equal(t, oee.InsightAction, insights[1].Kind)

	queries := fake.Queries()
	require.Len(t, queries, 3)
	require.NotNil(t, queries[1].Location)
	assert.Equal(t, "PRODUCTION_LINE_1", *queries[1].Location)
	assert.Nil(t, queries[1].DeviceID)
}
