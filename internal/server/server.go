package server

import (
	"fmt"
	"net/http"
	"time"

	"petshop/internal/config"
	"petshop/internal/database"
	custommiddleware "petshop/internal/middleware"
	"petshop/internal/repository"
	"petshop/internal/sentiment"
	"petshop/internal/service"
	"petshop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; the largest legitimate one is a product listing
const maxBodyBytes = 1 << 20

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	var limiterStore redis.Cmdable
	if redisClient != nil {
		limiterStore = redisClient
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, db, limiterStore),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

// NewRouter wires repositories, services and handlers onto a chi router.
// A nil redis client disables rate limiting.
func NewRouter(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient redis.Cmdable) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.SessionMiddleware)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(middleware.RequestSize(maxBodyBytes))

	router.Get("/health", healthHandler(db))

	sqlDB := db.DB()

	productRepo := repository.NewProductRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	cartRepo := repository.NewCartRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB)
	checkoutStore := repository.NewCheckoutStore(sqlDB)
	ratingRepo := repository.NewRatingRepository(sqlDB)
	commentRepo := repository.NewCommentRepository(sqlDB)
	voteRepo := repository.NewVoteRepository(sqlDB)

	scorer := sentiment.NewScorer(newOracle(cfg.Sentiment, logger), logger)

	productService := service.NewProductService(productRepo, categoryRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(checkoutStore, orderRepo, logger)
	reviewService := service.NewReviewService(productRepo, ratingRepo, commentRepo, voteRepo, scorer, logger, cfg.Dashboard.Concurrency)

	writeLimit := newWriteLimit(cfg.RateLimit, redisClient, logger)

	transport.NewProductHandler(productService, logger).RegisterRoutes(router, writeLimit)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, writeLimit)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, writeLimit)
	transport.NewReviewHandler(reviewService, logger).RegisterRoutes(router, writeLimit)

	return router
}

// newOracle picks the sentiment provider. A remote provider without an
// endpoint falls back to the lexicon.
func newOracle(cfg config.SentimentConfig, logger *zap.Logger) sentiment.Oracle {
	if cfg.Provider == "remote" {
		if cfg.Endpoint != "" {
			logger.Info("Using remote sentiment oracle", zap.String("endpoint", cfg.Endpoint))
			return sentiment.NewRemote(cfg.Endpoint, cfg.Timeout)
		}
		logger.Warn("Remote sentiment oracle has no endpoint, using lexicon")
	} else if cfg.Provider != "" && cfg.Provider != "lexicon" {
		logger.Warn("Unknown sentiment provider, using lexicon", zap.String("provider", cfg.Provider))
	}
	return sentiment.NewLexicon()
}

func newWriteLimit(cfg config.RateLimitConfig, redisClient redis.Cmdable, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled || redisClient == nil {
		return nil
	}
	return custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Requests,
		Window:            cfg.Window,
		KeyPrefix:         cfg.Prefix,
	}, logger)
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbHealth := db.Health(r.Context())

		status, code := "ok", http.StatusOK
		if dbHealth["status"] != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, code, map[string]any{
			"status":   status,
			"database": dbHealth,
		})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
