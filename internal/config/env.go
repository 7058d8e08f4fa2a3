package config

import (
	"os"
	"strconv"
	"strings"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "DUPLEX_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {}, // Special case, no-op
	},
	{
		name:  "DUPLEX_CONFIG_PROVIDER_AUTH_URL",
		desc:  "Sets the provider authorization endpoint URL.  Default: None",
		apply: func(c *Config, s string) { c.Provider.AuthURL = s },
	},
	{
		name:  "DUPLEX_CONFIG_PROVIDER_CLIENT_ID",
		desc:  "Sets the OAuth client id.  Default: None",
		apply: func(c *Config, s string) { c.Provider.ClientID = s },
	},
	{
		name:  "DUPLEX_CONFIG_PROVIDER_SCOPES",
		desc:  "Sets the requested scopes as a comma-separated list.  Default: None",
		apply: func(c *Config, s string) { c.Provider.Scopes = splitScopes(s) },
	},
	{
		name: "DUPLEX_CONFIG_CALLBACK_PORT",
		desc: "Sets the loopback callback listener port.  Default: 18741",
		apply: func(c *Config, s string) {
			if port, err := strconv.Atoi(s); err == nil {
				c.Callback.Port = port
			}
		},
	},
	{
		name:  "DUPLEX_CONFIG_CALLBACK_PATH",
		desc:  "Sets the loopback callback path.  Default: /callback",
		apply: func(c *Config, s string) { c.Callback.Path = s },
	},
	{
		name:  "DUPLEX_CONFIG_CHANNELS_PREFERRED",
		desc:  "Sets the preferred channel.  One of `local_server` or `stdio`.  Default: local_server",
		apply: func(c *Config, s string) { c.Channels.Preferred = s },
	},
	{
		name:  "DUPLEX_CONFIG_FLOW_TIMEOUT",
		desc:  "Sets the exchange timeout as a Go duration.  Default: 5m",
		apply: func(c *Config, s string) { c.Flow.Timeout = s },
	},
	{
		name:  "DUPLEX_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "DUPLEX_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}

func splitScopes(s string) []string {
	var scopes []string
	for _, scope := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(scope); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}
