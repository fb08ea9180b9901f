package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dentistenvy/backend/analyzer"
	"github.com/dentistenvy/backend/config"
	"github.com/dentistenvy/backend/dataforseo"
	"github.com/dentistenvy/backend/domains"
	"github.com/dentistenvy/backend/jobs"
	"github.com/dentistenvy/backend/logging"
	"github.com/dentistenvy/backend/middleware"
	"github.com/dentistenvy/backend/pagecheck"
	"github.com/dentistenvy/backend/places"
)

func loadEnv() {
	// Try .env.development first (local development), then regular .env.
	if err := godotenv.Load(".env.development"); err != nil {
		_ = godotenv.Load()
	}
}

func setupGinMode(mode string) {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	loadEnv()

	cfg := config.Load()
	setupGinMode(cfg.GinMode)

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	rankClient, err := dataforseo.New(cfg.DataForSEOLogin, cfg.DataForSEOPassword, log)
	if err != nil {
		log.Fatal("failed to initialize DataForSEO client", zap.Error(err))
	}

	placesClient := places.New(cfg.GooglePlacesKey, cfg.SearchRadiusMiles, cfg.CompetitorLimit, log)

	var store jobs.Store
	if cfg.RedisAddr != "" {
		store = jobs.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		log.Info("using Redis job store", zap.String("addr", cfg.RedisAddr))
	} else {
		store = jobs.NewMemoryStore()
		log.Info("using in-memory job store")
	}

	srv := &server{
		engine:          analyzer.New(rankClient, placesClient, log),
		finder:          placesClient,
		store:           store,
		checker:         pagecheck.New(),
		log:             log,
		analysisTimeout: cfg.AnalysisTimeout,
	}

	rateLimiter := middleware.NewRateLimiter(2, 5) // 2 req/s, burst of 5

	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())

	srv.routes(r)

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	origin := os.Getenv("FRONTEND_URL")
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// analysisEngine is what the HTTP layer needs from the analyzer.
type analysisEngine interface {
	Analyze(ctx context.Context, req analyzer.AnalysisRequest, progress analyzer.ProgressFunc) (*analyzer.AnalysisReport, error)
}

// competitorFinder is what the discovery preview endpoint needs from the
// places client.
type competitorFinder interface {
	Geocode(ctx context.Context, address string) (places.GeoPoint, error)
	FindDentalCompetitors(ctx context.Context, lat, lng float64) ([]places.Competitor, error)
}

type server struct {
	engine          analysisEngine
	finder          competitorFinder
	store           jobs.Store
	checker         *pagecheck.Checker
	log             *zap.Logger
	analysisTimeout time.Duration
}

func (s *server) routes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api/analysis")
	{
		api.POST("/start", s.startAnalysis)
		api.GET("/:jobId/status", s.jobStatus)
		api.GET("/:jobId/report", s.jobReport)
		api.POST("/discover-competitors", s.discoverCompetitors)
		api.POST("/validate-urls", s.validateURLs)
	}
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "DentistEnvy API",
	})
}

// startAnalysis validates the request, creates a pending job and launches
// the analysis in the background. Validation failures are synchronous 400s;
// no job is created for them.
func (s *server) startAnalysis(c *gin.Context) {
	var req analyzer.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.PracticeName == "" || req.Address == "" || req.WebsiteURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: practiceName, address, websiteUrl",
		})
		return
	}
	if req.CompetitorMode != analyzer.ModeAuto && req.CompetitorMode != analyzer.ModeManual {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": `competitorMode must be "auto" or "manual"`,
		})
		return
	}
	if req.CompetitorMode == analyzer.ModeManual {
		if len(req.ManualCompetitors) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "manualCompetitors array is required for manual mode",
			})
			return
		}
		if len(req.ManualCompetitors) > 10 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Maximum 10 competitors allowed",
			})
			return
		}
	}

	jobID := uuid.NewString()
	job := jobs.Job{
		ID:              jobID,
		Status:          jobs.StatusPending,
		Progress:        0,
		ProgressMessage: "Starting analysis...",
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Create(c.Request.Context(), job); err != nil {
		s.log.Error("failed to create job", zap.String("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create analysis job"})
		return
	}

	go s.runAnalysis(jobID, req)

	c.JSON(http.StatusOK, gin.H{
		"jobId":   jobID,
		"status":  jobs.StatusPending,
		"message": "Analysis started",
	})
}

// runAnalysis drives one analysis to completion in its own goroutine. The
// job keeps running even if the client stops polling; the timeout only
// protects against hung provider calls.
func (s *server) runAnalysis(jobID string, req analyzer.AnalysisRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.analysisTimeout)
	defer cancel()

	job, found, err := s.store.Get(ctx, jobID)
	if err != nil || !found {
		s.log.Error("job vanished before processing", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	job.Status = jobs.StatusProcessing
	s.updateJob(ctx, job)

	progress := func(message string, percent int) {
		job.Progress = percent
		job.ProgressMessage = message
		s.updateJob(ctx, job)
	}

	result, err := s.engine.Analyze(ctx, req, progress)
	if err != nil {
		s.log.Error("analysis failed", zap.String("job_id", jobID), zap.Error(err))
		job.Status = jobs.StatusFailed
		job.Error = err.Error()
		s.updateJob(ctx, job)
		return
	}

	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.ProgressMessage = "Analysis complete!"
	job.Result = result
	s.updateJob(ctx, job)
}

func (s *server) updateJob(ctx context.Context, job jobs.Job) {
	if err := s.store.Update(ctx, job); err != nil {
		s.log.Warn("failed to update job state", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *server) jobStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	job, found, err := s.store.Get(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":           jobID,
		"status":          job.Status,
		"progress":        job.Progress,
		"progressMessage": job.ProgressMessage,
	})
}

func (s *server) jobReport(c *gin.Context) {
	jobID := c.Param("jobId")
	job, found, err := s.store.Get(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	switch job.Status {
	case jobs.StatusFailed:
		msg := job.Error
		if msg == "" {
			msg = "Analysis failed"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	case jobs.StatusCompleted:
		c.JSON(http.StatusOK, job.Result)
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"message":  "Analysis still in progress",
			"status":   job.Status,
			"progress": job.Progress,
		})
	}
}

// discoverCompetitors previews auto-discovery for an address without
// starting a full analysis.
func (s *server) discoverCompetitors(c *gin.Context) {
	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address is required"})
		return
	}

	ctx := c.Request.Context()
	geo, err := s.finder.Geocode(ctx, req.Address)
	if err != nil {
		s.log.Error("competitor discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	competitors, err := s.finder.FindDentalCompetitors(ctx, geo.Lat, geo.Lng)
	if err != nil {
		s.log.Error("competitor discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type preview struct {
		Name        string  `json:"name"`
		Address     string  `json:"address"`
		Website     string  `json:"website,omitempty"`
		Domain      string  `json:"domain,omitempty"`
		Rating      float64 `json:"rating,omitempty"`
		ReviewCount int     `json:"reviewCount"`
	}
	previews := make([]preview, 0, len(competitors))
	for _, comp := range competitors {
		p := preview{
			Name:        comp.Name,
			Address:     comp.Address,
			Website:     comp.Website,
			Rating:      comp.Rating,
			ReviewCount: comp.ReviewCount,
		}
		if comp.Website != "" {
			p.Domain = domains.Normalize(comp.Website)
		}
		previews = append(previews, p)
	}

	c.JSON(http.StatusOK, gin.H{
		"location":    geo,
		"competitors": previews,
	})
}

// validateURLs normalizes each candidate URL and probes it for reachability
// and page title.
func (s *server) validateURLs(c *gin.Context) {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.URLs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls array is required"})
		return
	}

	type validated struct {
		Original  string `json:"original"`
		Domain    string `json:"domain,omitempty"`
		Valid     bool   `json:"valid"`
		Reachable bool   `json:"reachable"`
		Title     string `json:"title,omitempty"`
	}

	ctx := c.Request.Context()
	results := make([]validated, len(req.URLs))
	for i, raw := range req.URLs {
		domain := domains.Normalize(raw)
		results[i] = validated{
			Original: raw,
			Domain:   domain,
			Valid:    domain != "",
		}
		if domain == "" {
			continue
		}
		check := s.checker.Check(ctx, raw)
		results[i].Reachable = check.Reachable
		results[i].Title = check.Title
	}

	c.JSON(http.StatusOK, gin.H{"urls": results})
}
