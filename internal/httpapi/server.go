package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/songzhibin97/cryptotherapist/internal/chaos"
	"github.com/songzhibin97/cryptotherapist/internal/data"
	"github.com/songzhibin97/cryptotherapist/internal/models"
	"github.com/songzhibin97/cryptotherapist/internal/synthesis"
)

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Therapist is satisfied by *synthesis.Therapist.
type Therapist interface {
	Respond(ctx context.Context, req synthesis.ChatRequest) (models.SynthesisResult, error)
	History(ctx context.Context, userID int64) ([]models.ConversationTurn, error)
	Achievements(ctx context.Context, userID int64) ([]models.StoredAchievement, error)
}

// Satirist is satisfied by *satire.Satirist.
type Satirist interface {
	Cards(ctx context.Context, forceFresh bool) []models.SatireCard
}

// ChaosAnalyzer is satisfied by *chaos.Analyzer.
type ChaosAnalyzer interface {
	AnalyzeFigures(ctx context.Context) []models.FigureAnalysis
	AnalyzeHandle(ctx context.Context, handle string) (models.FigureAnalysis, error)
}

type Deps struct {
	Market    data.MarketCollector
	Therapist Therapist
	Satirist  Satirist
	Chaos     ChaosAnalyzer
}

type Options struct {
	Addr string
	// RateLimit is requests per second per client on generation routes; 0 disables it.
	RateLimit      float64
	RateLimitBurst int
}

type Server struct {
	deps       Deps
	logger     Logger
	metrics    *Metrics
	limiter    *ipRateLimiter
	engine     *gin.Engine
	httpServer *http.Server
}

func New(deps Deps, opts Options, logger Logger, metrics *Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		deps:    deps,
		logger:  logger,
		metrics: metrics,
		limiter: newIPRateLimiter(opts.RateLimit, opts.RateLimitBurst),
		engine:  gin.New(),
	}

	s.engine.Use(s.recovery(), s.observe())

	s.engine.GET("/healthz", s.handleHealthz)
	if metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := s.engine.Group("/api")
	{
		api.GET("/market-sentiment", s.handleMarketSentiment)
		api.GET("/chats/:userId", s.handleChats)
		api.GET("/achievements/:userId", s.handleAchievements)

		generation := api.Group("", s.rateLimit())
		generation.POST("/chat", s.handleChat)
		generation.GET("/news/satire", s.handleSatire)
		generation.GET("/crypto-figures", s.handleCryptoFigures)
		generation.POST("/analyze-handle", s.handleAnalyzeHandle)
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start() error {
	s.logger.Info("http api listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMarketSentiment(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Market.Sentiment(c.Request.Context()))
}

func (s *Server) handleChat(c *gin.Context) {
	var req synthesis.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	result, err := s.deps.Therapist.Respond(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, synthesis.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusServiceUnavailable, "Request cancelled")
	default:
		s.logger.Error("chat failed", "error", err)
		writeError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleChats(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	chats, err := s.deps.Therapist.History(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("failed to fetch chats", "user_id", userID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to fetch chats")
		return
	}
	if chats == nil {
		chats = []models.ConversationTurn{}
	}
	c.JSON(http.StatusOK, chats)
}

func (s *Server) handleAchievements(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	achievements, err := s.deps.Therapist.Achievements(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("failed to fetch achievements", "user_id", userID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to fetch achievements")
		return
	}
	if achievements == nil {
		achievements = []models.StoredAchievement{}
	}
	c.JSON(http.StatusOK, achievements)
}

func (s *Server) handleSatire(c *gin.Context) {
	fresh := c.Query("fresh") == "true"
	c.JSON(http.StatusOK, s.deps.Satirist.Cards(c.Request.Context(), fresh))
}

func (s *Server) handleCryptoFigures(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Chaos.AnalyzeFigures(c.Request.Context()))
}

type analyzeHandleRequest struct {
	Handle string `json:"handle"`
}

func (s *Server) handleAnalyzeHandle(c *gin.Context) {
	var req analyzeHandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	analysis, err := s.deps.Chaos.AnalyzeHandle(c.Request.Context(), req.Handle)
	if errors.Is(err, chaos.ErrInvalidHandle) {
		writeError(c, http.StatusBadRequest, "Twitter handle is required")
		return
	}
	if err != nil {
		s.logger.Error("failed to analyze handle", "handle", req.Handle, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to analyze Twitter handle")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func userIDParam(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(c, http.StatusBadRequest, "Invalid userId")
		return 0, false
	}
	return userID, true
}
