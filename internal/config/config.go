// Package config loads service configuration from a YAML file with
// environment-variable overrides for secrets and listen settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the Ledgerbook provider endpoints. Overridable via the config
// file for sandbox environments.
const (
	DefaultProviderName   = "ledgerbook"
	DefaultAuthURL        = "https://identity.ledgerbook.com/oauth/authorize"
	DefaultTokenURL       = "https://identity.ledgerbook.com/oauth/token"
	DefaultAPIBaseURL     = "https://api.ledgerbook.com/v2"
	DefaultBusinessHeader = "X-Business-Id"
)

// ProviderConfig describes the accounting provider's OAuth and API endpoints.
type ProviderConfig struct {
	Name           string   `yaml:"name"`
	ClientID       string   `yaml:"client_id"`
	ClientSecret   string   `yaml:"client_secret"`
	AuthURL        string   `yaml:"auth_url"`
	TokenURL       string   `yaml:"token_url"`
	APIBaseURL     string   `yaml:"api_base_url"`
	BusinessHeader string   `yaml:"business_header"`
	Scopes         []string `yaml:"scopes"`
}

// Config is the top-level service configuration.
type Config struct {
	Host     string         `yaml:"host"`
	Port     string         `yaml:"port"`
	DBPath   string         `yaml:"db_path"`
	Provider ProviderConfig `yaml:"provider"`
}

// Load reads the config file at path (missing file is fine, defaults apply),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Host:   "127.0.0.1",
		Port:   "8080",
		DBPath: "ledgerlink.db",
		Provider: ProviderConfig{
			Name:           DefaultProviderName,
			AuthURL:        DefaultAuthURL,
			TokenURL:       DefaultTokenURL,
			APIBaseURL:     DefaultAPIBaseURL,
			BusinessHeader: DefaultBusinessHeader,
			Scopes:         []string{"accounting.documents", "accounting.contacts", "offline_access"},
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Provider.BusinessHeader == "" {
		cfg.Provider.BusinessHeader = DefaultBusinessHeader
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LEDGERLINK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LEDGERLINK_CLIENT_ID"); v != "" {
		cfg.Provider.ClientID = v
	}
	if v := os.Getenv("LEDGERLINK_CLIENT_SECRET"); v != "" {
		cfg.Provider.ClientSecret = v
	}
}
