// Package config loads the builder-signer service configuration from the
// environment. Credentials are read once at startup and never mutated.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rekonmarkets/rekon-go/builder"
)

type Config struct {
	Builder BuilderConfig
	Server  ServerConfig
}

type BuilderConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	AuthToken string `mapstructure:"auth_token"`
}

// Credentials returns the immutable builder credentials.
func (c *Config) Credentials() builder.Credentials {
	return builder.Credentials{
		APIKey:     c.Builder.APIKey,
		Secret:     c.Builder.Secret,
		Passphrase: c.Builder.Passphrase,
	}
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 3000)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"builder.api_key":    "POLY_BUILDER_API_KEY",
		"builder.secret":     "POLY_BUILDER_SECRET",
		"builder.passphrase": "POLY_BUILDER_PASSPHRASE",
		"server.auth_token":  "AUTH_TOKEN",
		"server.port":        "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

// validate refuses to serve without the full credential set. AUTH_TOKEN is
// optional; when empty the /sign endpoint is unauthenticated.
func (c *Config) validate() error {
	for _, r := range []struct {
		val  string
		name string
	}{
		{c.Builder.APIKey, "POLY_BUILDER_API_KEY"},
		{c.Builder.Secret, "POLY_BUILDER_SECRET"},
		{c.Builder.Passphrase, "POLY_BUILDER_PASSPHRASE"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	return nil
}
