package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/thereayou/studybud/internal/admin"
	"github.com/thereayou/studybud/internal/cache"
	"github.com/thereayou/studybud/internal/config"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/handlers"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/services"
	"github.com/thereayou/studybud/internal/storage"
	"github.com/thereayou/studybud/internal/web"
	ws "github.com/thereayou/studybud/internal/websocket"
	"github.com/thereayou/studybud/pkg/auth"
)

type Server struct {
	cfg        *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Blacklist  cache.Blacklist
	Hub        *ws.Hub
	Metrics    *middleware.Metrics
	stopHub    context.CancelFunc
	http       *http.Server
	metricsSrv *http.Server
}

func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewLocal(cfg.Media.Root, cfg.Media.URLPrefix)
	if err != nil {
		db.Close()
		return nil, err
	}

	blacklist, err := newBlacklist(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	jwtMgr := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	sessions := middleware.NewSessions(jwtMgr, blacklist, db, cfg.Session.CookieName)
	svc := services.NewCommunity(db, files, hub)
	ser := dto.NewSerializer(files.URL)

	site, err := web.NewSite(db, svc, sessions, files.URL, cfg.Session.Secure)
	if err != nil {
		stopHub()
		db.Close()
		return nil, err
	}

	metrics := middleware.NewMetrics()
	router := newRouter(cfg, routes{
		api:      handlers.NewAPI(db, svc, sessions, hub, ser, cfg.CORS.AllowedOrigins),
		site:     site,
		console:  admin.NewConsole(db, svc, ser, admin.Branding{SiteHeader: cfg.Admin.SiteHeader, SiteTitle: cfg.Admin.SiteTitle, IndexTitle: cfg.Admin.IndexTitle}),
		sessions: sessions,
		metrics:  metrics,
		media:    files.Root(),
	})

	return &Server{
		cfg:       cfg,
		Router:    router,
		DB:        db,
		Blacklist: blacklist,
		Hub:       hub,
		Metrics:   metrics,
		stopHub:   stopHub,
	}, nil
}

// newBlacklist uses Redis when configured and an in-process set otherwise.
func newBlacklist(cfg *config.Config) (cache.Blacklist, error) {
	if cfg.Redis.URL == "" {
		logger.Warn().Msg("REDIS_URL not set, revoked tokens are kept in memory")
		return cache.NewMemoryBlacklist(), nil
	}
	bl, err := cache.NewRedisBlacklist(context.Background(), cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}
	return bl, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	handler := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(s.Router)

	s.http = &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", s.http.Addr).Msg("Server starting")
		serverErrors <- s.http.ListenAndServe()
	}()

	if s.cfg.Metrics.Addr != "" {
		s.metricsSrv = &http.Server{
			Addr:        s.cfg.Metrics.Addr,
			Handler:     newMetricsRouter(s.Metrics),
			ReadTimeout: s.cfg.Server.ReadTimeout,
		}
		go func() {
			logger.Info().Str("addr", s.metricsSrv.Addr).Msg("Metrics listener starting")
			serverErrors <- s.metricsSrv.ListenAndServe()
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.close()
			return fmt.Errorf("server run error: %w", err)
		}
	case sig := <-signals:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}
	return s.Shutdown(context.Background())
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()

	var err error
	if s.http != nil {
		if err = s.http.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}
	if s.metricsSrv != nil {
		if merr := s.metricsSrv.Shutdown(ctx); merr != nil {
			logger.Error().Err(merr).Msg("Metrics listener shutdown error")
		}
	}
	s.close()
	return err
}

func (s *Server) close() {
	s.stopHub()
	if closer, ok := s.Blacklist.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if err := s.DB.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
	logger.Info().Msg("Server stopped")
}
