// Package server exposes the dashboard API over gin.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/workflow"
)

type Applier interface {
	Apply(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
}

type Server struct {
	engine  *gin.Engine
	applier Applier
	store   store.Store
	clock   clockwork.Clock
	log     *slog.Logger
	metrics http.Handler
	handle  string
}

type Option func(*Server)

func WithClock(c clockwork.Clock) Option { return func(s *Server) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithHandle sets the Telegram username sent with manual applications.
func WithHandle(handle string) Option { return func(s *Server) { s.handle = handle } }

func New(applier Applier, st store.Store, opts ...Option) *Server {
	s := &Server{
		applier: applier,
		store:   st,
		clock:   clockwork.NewRealClock(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.health)
	api := r.Group("/api")
	{
		api.GET("/bot/pending", s.listPending)
		api.POST("/bot/pending", s.savePending)
		api.POST("/bot/manual-apply", s.manualApply)
		api.GET("/applications", s.listApplications)
		api.GET("/applications/:jobId", s.getApplication)
	}
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := s.clock.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", s.clock.Since(started))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "API Server is running", "system": "Afriwork Auto-Apply"})
}

type pendingRequest struct {
	JobID           string   `json:"jobId" binding:"required"`
	JobDescription  string   `json:"jobDescription"`
	JobTitle        string   `json:"jobTitle"`
	CompanyName     string   `json:"companyName"`
	MatchedKeywords []string `json:"matchedKeywords"`
	CoverLetter     string   `json:"coverLetter"`
}

func (s *Server) savePending(c *gin.Context) {
	var req pendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	rec := store.NewRecord(req.JobID, store.StatusPending, s.clock.Now())
	rec.JobTitle = req.JobTitle
	rec.Company = req.CompanyName
	rec.JobDescription = req.JobDescription
	rec.MatchedKeywords = req.MatchedKeywords
	rec.CoverLetter = req.CoverLetter
	rec.Method = store.MethodManual

	if err := s.store.Save(c.Request.Context(), rec.Key, rec); err != nil {
		s.log.Error("failed to save pending application", "job_id", req.JobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	s.log.Info("job saved to pending applications", "job_id", req.JobID)
	c.JSON(http.StatusOK, gin.H{"success": true, "key": rec.Key})
}

func (s *Server) listPending(c *gin.Context) {
	s.list(c, store.StatusPending)
}

func (s *Server) listApplications(c *gin.Context) {
	s.list(c, store.Status(c.Query("status")))
}

func (s *Server) list(c *gin.Context, status store.Status) {
	records, err := s.store.List(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "applications": records})
}

func (s *Server) getApplication(c *gin.Context) {
	rec, err := s.store.Load(c.Request.Context(), store.JobKey(c.Param("jobId")))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "application not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": rec})
}

type manualApplyRequest struct {
	JobID             string `json:"jobId" binding:"required"`
	JobDescription    string `json:"jobDescription"`
	JobTitle          string `json:"jobTitle"`
	CompanyName       string `json:"companyName"`
	ManualCoverLetter string `json:"manualCoverLetter"`
	ProfileID         string `json:"profileId"`
	ShareID           string `json:"shareId"`
}

func (s *Server) manualApply(c *gin.Context) {
	var body manualApplyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	s.log.Info("starting manual application", "job_id", body.JobID)

	req := workflow.Request{
		Application: afriwork.ApplicationRequest{
			JobID:       body.JobID,
			ProfileID:   body.ProfileID,
			CoverLetter: body.ManualCoverLetter,
		},
		JobTitle:       body.JobTitle,
		Company:        body.CompanyName,
		JobDescription: body.JobDescription,
		Method:         store.MethodManual,
	}
	if s.handle != "" {
		handle := s.handle
		req.Application.Handle = &handle
	}
	if body.ShareID != "" {
		share := body.ShareID
		req.Application.ReferralID = &share
	}

	out, err := s.applier.Apply(c.Request.Context(), req)
	if err != nil {
		var se *workflow.StageError
		if errors.As(err, &se) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "stage": se.Stage, "error": afriwork.Reason(err)})
			return
		}
		s.log.Error("manual apply error", "job_id", body.JobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"applicationId": out.Result.ApplicationID,
			"jobTitle":      firstNonEmpty(out.Job.Title, body.JobTitle),
			"companyName":   firstNonEmpty(out.Job.Company, body.CompanyName),
			"coverLetter":   out.CoverLetter,
		},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
