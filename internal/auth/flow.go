package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duplex-cli/duplex/internal/config"
	"github.com/duplex-cli/duplex/internal/log"
	"github.com/duplex-cli/duplex/internal/messenger"
)

const defaultTimeout = 5 * time.Minute

// Flow drives a full authorization-code exchange: it builds the auth context,
// assembles the configured channel pair behind a compound messenger, and runs
// install, send and receive against it.
type Flow struct {
	cfg *config.Config
}

// New creates a Flow from the application config
func New(cfg *config.Config) *Flow {
	return &Flow{cfg: cfg}
}

// Run performs the entire exchange and returns the authorization code
func (f *Flow) Run(ctx context.Context) (string, error) {
	authCtx, err := f.buildAuthContext()
	if err != nil {
		return "", err
	}

	def, other, err := f.buildMessengers()
	if err != nil {
		return "", err
	}
	compound := messenger.NewCompoundMessenger(def, other)

	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	if err := compound.WithContext(ctx, authCtx); err != nil {
		return "", fmt.Errorf("failed to prepare messengers: %w", err)
	}

	if err := compound.SendAuthMessage(ctx); err != nil {
		return "", fmt.Errorf("failed to initiate authorization: %w", err)
	}

	code, err := compound.ReceiveAuthMessage(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to receive authorization code: %w", err)
	}

	log.Info("Authorization exchange completed")
	return code, nil
}

// buildAuthContext assembles the authorization URL and redirect target from
// the provider config, with a fresh anti-forgery state token per exchange.
func (f *Flow) buildAuthContext() (messenger.AuthContext, error) {
	if f.cfg.Provider.AuthURL == "" {
		return messenger.AuthContext{}, fmt.Errorf("no provider auth_url configured")
	}
	if f.cfg.Provider.ClientID == "" {
		return messenger.AuthContext{}, fmt.Errorf("no provider client_id configured")
	}

	authURL, err := url.Parse(f.cfg.Provider.AuthURL)
	if err != nil {
		return messenger.AuthContext{}, fmt.Errorf("invalid provider auth_url: %w", err)
	}

	redirectURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("127.0.0.1:%d", f.cfg.Callback.Port),
		Path:   f.cfg.Callback.Path,
	}

	state := uuid.NewString()

	query := authURL.Query()
	query.Set("client_id", f.cfg.Provider.ClientID)
	query.Set("response_type", "code")
	query.Set("redirect_uri", redirectURL.String())
	query.Set("state", state)
	if len(f.cfg.Provider.Scopes) > 0 {
		query.Set("scope", strings.Join(f.cfg.Provider.Scopes, " "))
	}
	authURL.RawQuery = query.Encode()

	return messenger.AuthContext{
		AuthURL:     authURL,
		CSRF:        state,
		RedirectURL: redirectURL,
	}, nil
}

// buildMessengers returns the preferred channel and its fallback per config
func (f *Flow) buildMessengers() (messenger.ChannelMessenger, messenger.ChannelMessenger, error) {
	local := messenger.NewLocalServerMessenger(f.cfg.Callback.Path)
	console := messenger.NewStdioMessenger()

	switch f.cfg.Channels.Preferred {
	case "", "local_server":
		return local, console, nil
	case "stdio":
		return console, local, nil
	default:
		return nil, nil, fmt.Errorf("unknown preferred channel %q", f.cfg.Channels.Preferred)
	}
}

// timeout parses the configured exchange timeout, falling back to the default
// when unset or unparseable.
func (f *Flow) timeout() time.Duration {
	if f.cfg.Flow.Timeout == "" {
		return defaultTimeout
	}
	timeout, err := time.ParseDuration(f.cfg.Flow.Timeout)
	if err != nil {
		log.Warn("Invalid flow timeout in config, using default", "timeout", f.cfg.Flow.Timeout, "default", defaultTimeout)
		return defaultTimeout
	}
	return timeout
}
