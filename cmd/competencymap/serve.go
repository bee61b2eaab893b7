package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"competencymap/internal/auth"
	"competencymap/internal/handler"
	"competencymap/internal/hub"
	"competencymap/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		a.cfg.Server.Addr = addr
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	log := a.logger
	log.Info("Starting competencymap server", zap.String("config", a.cfg.Summary()))

	authenticator, err := auth.New(a.cfg.Auth.Secret, a.cfg.Auth.Issuer, a.cfg.Auth.CookieName, a.cfg.Auth.TokenTTL.Duration())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect event bus to SSE hub
	sseHub := hub.New(log.Named("hub"))
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	a.bus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()

	mappingHandler := handler.NewMappingHandler(a.svc, authenticator, a.strings, log.Named("http"))
	mappingHandler.SetBaseURL(a.cfg.Server.BaseURL)
	mappingHandler.SetHealthCheck(a.store)

	mux := http.NewServeMux()
	mappingHandler.Register(mux)
	mux.Handle("GET /events", sseHub)

	finalHandler := handler.Chain(mux,
		handler.Recover(log),
		handler.CORS(a.cfg.Server.CORSOrigins),
		handler.Logger(log.Named("access")),
		handler.Session(authenticator, log),
	)

	server := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  a.cfg.Server.IdleTimeout.Duration(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", a.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped")
	return nil
}
