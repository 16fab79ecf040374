// Package backendfake serves the OEE backend HTTP contract from memory so the
// client, the dialogue and the CLI can be exercised without the real service.
package backendfake

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/csheth/oeescout/internal/filters"
	"github.com/csheth/oeescout/internal/oee"
)

// QueryRequest is the decoded body of POST /api/query.
type QueryRequest struct {
	Message  string  `json:"message"`
	DeviceID *string `json:"device_id"`
	Location *string `json:"location"`
	Month    *string `json:"month"`
}

// Upload records one received dataset.
type Upload struct {
	Filename string
	Data     []byte
}

// Reply is a canned HTTP response.
type Reply struct {
	Status int
	Body   any
}

// AnswerReply builds the success payload the real backend returns.
func AnswerReply(message string, m oee.Metrics) Reply {
	return Reply{Status: http.StatusOK, Body: gin.H{
		"message":      message,
		"oee":          m.OEE,
		"availability": m.Availability,
		"performance":  m.Performance,
		"quality":      m.Quality,
	}}
}

// ErrorReply builds a FastAPI-style error payload.
func ErrorReply(status int, detail string) Reply {
	return Reply{Status: status, Body: gin.H{"detail": detail}}
}

// Server is an in-memory backend. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	engine        *gin.Engine
	catalog       filters.Options
	uploadCatalog *filters.Options
	requireUpload bool
	uploaded      bool
	answer        func(QueryRequest) Reply
	uploadReply   *Reply
	filtersReply  *Reply

	queries []QueryRequest
	uploads []Upload
}

// New returns a server answering every query with a fixed snapshot.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		answer: func(QueryRequest) Reply {
			return AnswerReply("The OEE is 72.5%", oee.Metrics{OEE: 72.5, Availability: 88, Performance: 91, Quality: 90})
		},
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/filters", s.handleFilters)
	r.POST("/api/upload", s.handleUpload)
	r.POST("/api/query", s.handleQuery)
	s.engine = r
	return s
}

// Handler exposes the routes, typically to httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetCatalog sets the catalog served before any upload.
func (s *Server) SetCatalog(options filters.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = options
}

// SetCatalogAfterUpload sets the catalog served once an upload succeeded.
func (s *Server) SetCatalogAfterUpload(options filters.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadCatalog = &options
}

// RequireUpload makes /api/filters and /api/query answer 400 until a
// dataset has been uploaded, as the real backend does on a cold start.
func (s *Server) RequireUpload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireUpload = true
}

// SetAnswer replaces the query responder.
func (s *Server) SetAnswer(fn func(QueryRequest) Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = fn
}

// FailUploads makes every upload answer with reply.
func (s *Server) FailUploads(reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadReply = &reply
}

// FailFilters makes every catalog request answer with reply.
func (s *Server) FailFilters(reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtersReply = &reply
}

// Queries returns the received query bodies in arrival order.
func (s *Server) Queries() []QueryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]QueryRequest(nil), s.queries...)
}

// Uploads returns the received datasets in arrival order.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleFilters(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filtersReply != nil {
		c.JSON(s.filtersReply.Status, s.filtersReply.Body)
		return
	}
	if s.requireUpload && !s.uploaded {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Please upload data file first"})
		return
	}
	options := s.catalog
	if s.uploaded && s.uploadCatalog != nil {
		options = *s.uploadCatalog
	}
	c.JSON(http.StatusOK, gin.H{
		"device_ids": nonNil(options.DeviceIDs),
		"locations":  nonNil(options.Locations),
		"months":     nonNil(options.Months),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file field required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, Upload{Filename: header.Filename, Data: data})
	if s.uploadReply != nil {
		c.JSON(s.uploadReply.Status, s.uploadReply.Body)
		return
	}
	s.uploaded = true
	c.JSON(http.StatusOK, gin.H{
		"message":   "File uploaded and validated successfully",
		"file_path": "data/" + header.Filename,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, req)
	blocked := s.requireUpload && !s.uploaded
	answer := s.answer
	s.mu.Unlock()

	if blocked {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Please upload data file first"})
		return
	}
	reply := answer(req)
	c.JSON(reply.Status, reply.Body)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
