package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/chiprail/chiprail/internal/admission"
	"github.com/chiprail/chiprail/internal/config"
	"github.com/chiprail/chiprail/internal/metrics"
	"github.com/chiprail/chiprail/internal/room"
	"github.com/chiprail/chiprail/internal/session"
	"github.com/chiprail/chiprail/internal/store"
)

// ServeCmd runs the coordinator until interrupted.
type ServeCmd struct {
	Config string `kong:"default='chiprail.hcl',help='Path to the HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if level, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	st, err := store.Open(store.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		DSN:     cfg.Store.DSN,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	clock := quartz.NewReal()
	m := metrics.New()

	registry := room.NewRegistry(room.RegistryConfig{
		Store:   st,
		Logger:  logger,
		Clock:   clock,
		Metrics: m,
		Policy: room.Policy{
			LivenessTimeout:      time.Duration(cfg.Game.LivenessTimeoutSeconds) * time.Second,
			AutoFoldDisconnected: cfg.Game.AutoFoldDisconnected,
		},
		CleanupInterval: time.Duration(cfg.Game.CleanupIntervalSeconds) * time.Second,
		IdleRoomTTL:     time.Duration(cfg.Game.IdleRoomTTLSeconds) * time.Second,
	})

	// The store is the source of truth: bring every persisted room back
	// before accepting traffic.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	if err := registry.Restore(bootCtx); err != nil {
		return err
	}

	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api := admission.New(registry, logger, clock, time.Now().UnixNano())
	api.Register(router)

	hub := session.NewHub(registry, logger, m)
	router.GET("/ws/:room_id/:player_id", func(c *gin.Context) {
		hub.Handle(c.Writer, c.Request, c.Param("room_id"), c.Param("player_id"))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Server.Metrics {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := registry.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return ctx, cancel
}
