package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/joescharf/codereview/internal/analyzer"
	"github.com/joescharf/codereview/internal/api"
	"github.com/joescharf/codereview/internal/gateway"
	"github.com/joescharf/codereview/internal/llm"
	"github.com/joescharf/codereview/internal/review"
	"github.com/joescharf/codereview/internal/store"
)

// newBackend returns the analysis backend selected by the backend key.
func newBackend() (analyzer.Backend, error) {
	switch name := viper.GetString("backend"); name {
	case "", "stub":
		return analyzer.NewStub(), nil
	case "anthropic":
		apiKey := viper.GetString("anthropic.api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("backend %q needs anthropic.api_key or ANTHROPIC_API_KEY", name)
		}
		return llm.NewClient(apiKey, viper.GetString("anthropic.model")), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want stub or anthropic)", name)
	}
}

// newReviewService builds the review service over an in-memory chat store.
// The returned func closes the store.
func newReviewService(ctx context.Context) (*review.Service, func(), error) {
	backend, err := newBackend()
	if err != nil {
		return nil, nil, err
	}

	s, err := store.NewSQLiteStore(store.MemoryDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open chat store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("migrate chat store: %w", err)
	}

	slog.Debug("review service ready", "backend", backend.Name())
	return review.NewService(backend, s, slog.Default()), func() { _ = s.Close() }, nil
}

// newAPIHandler returns the gateway HTTP handler over svc.
func newAPIHandler(svc *review.Service) http.Handler {
	return api.NewServer(svc, api.Config{
		RequestTimeout: viper.GetDuration("server.request_timeout"),
		Logger:         slog.Default(),
		Version:        buildVersion,
	}).Router()
}

// newGatewayClient targets api_url, or an in-process gateway when it is empty.
func newGatewayClient(ctx context.Context) (*gateway.Client, func(), error) {
	opts := gateway.Options{
		BaseURL: viper.GetString("api_url"),
		Timeout: viper.GetDuration("client.timeout"),
	}
	cleanup := func() {}

	if opts.BaseURL == "" {
		svc, closeSvc, err := newReviewService(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts.Handler = newAPIHandler(svc)
		cleanup = closeSvc
	}

	c, err := gateway.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}
