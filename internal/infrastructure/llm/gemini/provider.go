package gemini

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider hands out the process-wide client, constructed lazily on first
// use. Without an API key every access fails with ErrNotConfigured and the
// callers degrade to demo behavior; construction is re-attempted on the
// next access.
type Provider struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	client *Client
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

func (p *Provider) Client() (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.cfg.APIKey == "" {
		return nil, domain.WrapError(domain.ErrNotConfigured, "gemini client", fmt.Errorf("api key is not set"))
	}

	p.client = NewClient(p.cfg.BaseURL, p.cfg.APIKey, p.cfg.Model)
	p.logger.Info("gemini client initialized", "model", p.client.model)
	return p.client, nil
}

// Configured reports whether an API key is present.
func (p *Provider) Configured() bool {
	return p.cfg.APIKey != ""
}

// Initialized reports whether the client has been constructed.
func (p *Provider) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != nil
}
