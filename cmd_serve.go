package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bodul/autocross/internal/config"
	"github.com/bodul/autocross/internal/gemini"
	"github.com/bodul/autocross/internal/generator"
	"github.com/bodul/autocross/internal/logger"
	"github.com/bodul/autocross/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Named("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	var model generator.Model
	if cfg.AI.Enabled() {
		gc, err := gemini.New(ctx, cfg.AI)
		if err != nil {
			return err
		}
		defer gc.Close()
		model = gc
		log.Info().Str("model", gc.Model()).Msg("gemini client ready")
	} else {
		log.Warn().Msg("no GEMINI_API_KEY or GCP_PROJECT_ID, generation disabled")
	}

	srv := NewServer(ctx, cfg, st, model)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown so SSE streams let go.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Driver).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}
