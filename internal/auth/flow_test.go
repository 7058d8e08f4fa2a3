package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duplex-cli/duplex/internal/config"
	"github.com/duplex-cli/duplex/internal/messenger"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			AuthURL:  "https://provider.example/authorize",
			ClientID: "client-123",
			Scopes:   []string{"openid", "profile"},
		},
		Callback: config.CallbackConfig{
			Port: 18741,
			Path: "/callback",
		},
		Channels: config.ChannelConfig{
			Preferred: "local_server",
		},
		Flow: config.FlowConfig{
			Timeout: "5m",
		},
	}
}

func TestBuildAuthContext(t *testing.T) {
	flow := New(testConfig())

	authCtx, err := flow.buildAuthContext()
	require.NoError(t, err)

	require.NotNil(t, authCtx.AuthURL)
	query := authCtx.AuthURL.Query()
	assert.Equal(t, "client-123", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "http://127.0.0.1:18741/callback", query.Get("redirect_uri"))
	assert.Equal(t, "openid profile", query.Get("scope"))

	// The state parameter doubles as the CSRF token the channels validate against
	assert.NotEmpty(t, authCtx.CSRF)
	assert.Equal(t, authCtx.CSRF, query.Get("state"))

	require.NotNil(t, authCtx.RedirectURL)
	assert.Equal(t, "127.0.0.1:18741", authCtx.RedirectURL.Host)
	assert.Equal(t, "/callback", authCtx.RedirectURL.Path)
}

func TestBuildAuthContextFreshStatePerExchange(t *testing.T) {
	flow := New(testConfig())

	first, err := flow.buildAuthContext()
	require.NoError(t, err)
	second, err := flow.buildAuthContext()
	require.NoError(t, err)

	assert.NotEqual(t, first.CSRF, second.CSRF)
}

func TestBuildAuthContextRequiresProvider(t *testing.T) {
	t.Run("MissingAuthURL", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider.AuthURL = ""

		_, err := New(cfg).buildAuthContext()
		assert.ErrorContains(t, err, "no provider auth_url configured")
	})

	t.Run("MissingClientID", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider.ClientID = ""

		_, err := New(cfg).buildAuthContext()
		assert.ErrorContains(t, err, "no provider client_id configured")
	})
}

func TestBuildMessengers(t *testing.T) {
	t.Run("LocalServerPreferred", func(t *testing.T) {
		def, other, err := New(testConfig()).buildMessengers()
		require.NoError(t, err)
		assert.IsType(t, &messenger.LocalServerMessenger{}, def)
		assert.IsType(t, &messenger.StdioMessenger{}, other)
	})

	t.Run("StdioPreferred", func(t *testing.T) {
		cfg := testConfig()
		cfg.Channels.Preferred = "stdio"

		def, other, err := New(cfg).buildMessengers()
		require.NoError(t, err)
		assert.IsType(t, &messenger.StdioMessenger{}, def)
		assert.IsType(t, &messenger.LocalServerMessenger{}, other)
	})

	t.Run("UnknownChannel", func(t *testing.T) {
		cfg := testConfig()
		cfg.Channels.Preferred = "carrier-pigeon"

		_, _, err := New(cfg).buildMessengers()
		assert.ErrorContains(t, err, "unknown preferred channel")
	})
}

func TestTimeout(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.Flow.Timeout = "30s"
		assert.Equal(t, 30*time.Second, New(cfg).timeout())
	})

	t.Run("Unset", func(t *testing.T) {
		cfg := testConfig()
		cfg.Flow.Timeout = ""
		assert.Equal(t, defaultTimeout, New(cfg).timeout())
	})

	t.Run("Unparseable", func(t *testing.T) {
		cfg := testConfig()
		cfg.Flow.Timeout = "soonish"
		assert.Equal(t, defaultTimeout, New(cfg).timeout())
	})
}
