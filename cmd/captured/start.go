package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/eventstream"
	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/orchestrator"
	"github.com/watchloop/observatory/internal/storage"
)

var (
	startInterval  float64
	startDuration  float64
	startNoStealth bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the capture daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := cliutil.NewLogger(debug)
		if err != nil {
			return fail(cmd, err)
		}
		defer logger.Sync()
		sugar := logger.Sugar()

		if pid, err := readPID(); err == nil && processAlive(pid) {
			return fail(cmd, apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeIOFailure,
				"capture daemon already running (pid %d)", pid))
		}

		cfg := config.Load()
		if startInterval > 0 {
			cfg.Screen.CaptureRate = 1.0 / startInterval
		}
		if startNoStealth {
			cfg.Screen.StealthModeEnabled = false
		}

		store, err := storage.Open(cmd.Context(), cfg.Storage.DatabasePath)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		mgr, err := orchestrator.New(cfg, store, buildDispatcher(cfg))
		if err != nil {
			return fail(cmd, err)
		}

		if err := writePIDFile(); err != nil {
			return fail(cmd, err)
		}
		defer removePIDFile()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		if startDuration > 0 {
			var durCancel context.CancelFunc
			ctx, durCancel = context.WithTimeout(ctx, time.Duration(startDuration*float64(time.Second)))
			defer durCancel()
		}

		broadcaster := eventstream.NewBroadcaster()
		watchServer := &http.Server{Addr: cfg.RPC.WatchAddr, Handler: eventstream.Handler(broadcaster)}
		go func() {
			if err := watchServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sugar.Warnw("watch server stopped", "error", err)
			}
		}()

		mgr.SetRecording(true)
		if err := mgr.Start(ctx); err != nil {
			return fail(cmd, err)
		}
		sugar.Infow("capture daemon started", "session_id", mgr.SessionID(), "watch_addr", cfg.RPC.WatchAddr)

		go drainEvents(ctx, mgr, broadcaster, sugar)

		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = watchServer.Shutdown(shutdownCtx)
		shutdownCancel()
		mgr.Stop()
		sugar.Infow("capture daemon stopped", "session_id", mgr.SessionID())

		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), map[string]string{"session_id": mgr.SessionID()},
			"session %s complete", mgr.SessionID())
	},
}

func init() {
	startCmd.Flags().Float64Var(&startInterval, "interval", 0, "capture interval in seconds (overrides SCREEN_CAPTURE_RATE)")
	startCmd.Flags().Float64Var(&startDuration, "duration", 0, "stop automatically after this many seconds")
	startCmd.Flags().BoolVar(&startNoStealth, "no-stealth", false, "disable stealth-mode window exclusion")
}

func buildDispatcher(cfg *config.Config) *llmx.Dispatcher {
	var configs []llmx.ProviderConfig
	for _, name := range cfg.Query.LLMProviders {
		switch name {
		case "anthropic":
			configs = append(configs, llmx.ProviderConfig{Backend: llmx.BackendAnthropic})
		case "openai":
			configs = append(configs, llmx.ProviderConfig{Backend: llmx.BackendOpenAI})
		}
	}
	if len(configs) == 0 {
		return nil
	}
	dispatcher, err := llmx.NewDispatcher(configs)
	if err != nil {
		return nil
	}
	return dispatcher
}

func drainEvents(ctx context.Context, mgr *orchestrator.Manager, broadcaster *eventstream.Broadcaster, sugar *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-mgr.Events():
			if !ok {
				return
			}
			sugar.Debugw("processing event", "kind", ev.Kind().String())
			broadcaster.Publish(ev)
		}
	}
}
