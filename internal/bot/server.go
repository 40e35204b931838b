// Package bot is the Telegram dispatch layer: it turns chat commands into
// core service calls and renders the results back into messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetpulse-io/fleetpulse/internal/core"
	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/stats"
	"github.com/fleetpulse-io/fleetpulse/pkg/log"
	"github.com/fleetpulse-io/fleetpulse/pkg/options"
)

// Server runs the Telegram long-polling loop and the admin HTTP endpoint.
type Server struct {
	api         *tgbotapi.BotAPI
	svc         *core.Service
	client      *omnicomm.Client
	stats       *stats.Store
	pollTimeout int
	defaultDays int
	httpOpts    *options.HttpOptions
	lg          log.Logger
}

// Run blocks until ctx is cancelled, then shuts both loops down and
// releases the provider session exactly once.
func (s *Server) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.runAdminServer(ctx); err != nil {
			errChan <- fmt.Errorf("admin server error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runDispatch(ctx)
	}()

	s.lg.Info("bot started", "account", s.api.Self.UserName)

	<-ctx.Done()
	s.lg.Info("shutdown signal received, stopping")
	s.api.StopReceivingUpdates()

	wg.Wait()

	s.client.Close()
	if err := s.stats.Close(); err != nil {
		s.lg.Error(err, "failed to close stats store")
	}

	select {
	case err := <-errChan:
		return err
	default:
	}
	s.lg.Info("bot stopped gracefully")
	return nil
}

// runDispatch consumes Telegram updates until the channel closes. Each
// message is handled in its own goroutine so one slow provider call never
// blocks other users.
func (s *Server) runDispatch(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = s.pollTimeout

	for update := range s.api.GetUpdatesChan(u) {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		msg := update.Message
		go s.handleCommand(ctx, msg)
	}
}

func (s *Server) runAdminServer(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         s.httpOpts.Addr,
		Handler:      r,
		ReadTimeout:  s.httpOpts.Timeout,
		WriteTimeout: s.httpOpts.Timeout,
	}

	s.lg.Info("admin HTTP listening", "address", s.httpOpts.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start admin server: %w", err)
	}
	return nil
}
