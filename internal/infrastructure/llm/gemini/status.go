package gemini

import (
	"context"
	"log/slog"

	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// StatusReporter probes the hosted backend for the diagnostic endpoint.
type StatusReporter struct {
	provider *Provider
	logger   *slog.Logger
}

func NewStatusReporter(provider *Provider, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{provider: provider, logger: logger}
}

func (r *StatusReporter) Status(ctx context.Context) ports.BackendStatus {
	status := ports.BackendStatus{
		APIKeySet:         r.provider.Configured(),
		ClientInitialized: r.provider.Initialized(),
	}

	client, err := r.provider.Client()
	if err != nil {
		return status
	}
	status.ClientInitialized = true

	stores, err := client.listStores(ctx)
	if err != nil {
		r.logger.Warn("status probe failed", "error", err)
		return status
	}
	status.StoresAccessible = len(stores)
	status.ClientWorking = true
	return status
}
