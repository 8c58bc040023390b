package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/atenabot/atena/internal/analyzer"
	"github.com/atenabot/atena/internal/bot"
	"github.com/atenabot/atena/internal/controlplane/server"
	"github.com/atenabot/atena/internal/docassist"
	"github.com/atenabot/atena/internal/docassist/helpstore"
	"github.com/atenabot/atena/pkg/config"
	"github.com/atenabot/atena/pkg/logger"
	"github.com/atenabot/atena/pkg/oplog"
	"github.com/atenabot/atena/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("ATENA_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	ops := oplog.NewSink(cfg.OpsLogFile)

	var docOpts []docassist.Option
	var store *helpstore.Store
	if cfg.HelpCacheDir != "" {
		store, err = helpstore.Open(cfg.HelpCacheDir)
		if err != nil {
			logger.Warnf("help cache disabled: %v", err)
		} else {
			docOpts = append(docOpts, docassist.WithStore(store))
		}
	}

	supervisor := bot.New(
		cfg.BotName,
		cfg.HealthCheckInterval,
		analyzer.New(),
		docassist.New(cfg.DocBaseURL, docOpts...),
		ops,
	)

	srv, err := server.New(server.Config{
		Supervisor: supervisor,
		Ops:        ops,
		DBPath:     cfg.DBPath,
	})
	if err != nil {
		log.Fatalf("init server failed: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sd := shutdown.NewManager()
	sd.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = httpSrv.Shutdown(ctx)
	})
	sd.OnShutdown(func(_ context.Context, _ *sync.WaitGroup) {
		_ = srv.Close()
	})
	if store != nil {
		sd.OnShutdown(func(_ context.Context, _ *sync.WaitGroup) {
			_ = store.Close()
		})
	}

	supervisor.Start()

	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go supervisor.Heartbeat(heartbeatCtx)

	go func() {
		logger.Infof("%s control plane listening on %s", cfg.BotName, cfg.ListenAddr())
		logger.Info("endpoints: GET /health /status /analyze /logs /tasks, POST /analyze /error-help")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-stopCh
	logger.Infof("received signal %s, shutting down", sig)

	supervisor.Stop()
	cancelHeartbeat()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sd.Shutdown(ctx)

	fmt.Println("server stopped")
}
