package config

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
)

// AccountConfig is the kind-specific credential/config bundle for one
// account. Only the fields matching Kind are meaningful; the core treats
// the bundle as opaque.
type AccountConfig struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // imap | hosted | local

	// Remote-protocol accounts
	Email    string `json:"email,omitempty"`
	Secret   string `json:"secret,omitempty"`
	IMAPHost string `json:"imap_host,omitempty"`
	IMAPPort int    `json:"imap_port,omitempty"`
	SMTPHost string `json:"smtp_host,omitempty"`
	SMTPPort int    `json:"smtp_port,omitempty"`
	UseSSL   bool   `json:"use_ssl,omitempty"`

	// Hosted-API accounts
	APIKey  string `json:"api_key,omitempty"`
	GrantID string `json:"grant_id,omitempty"`
	BaseURL string `json:"base_url,omitempty"`

	// Local accounts
	LocalPart string `json:"local_part,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// Config holds the application configuration
type Config struct {
	DataDir       string          `json:"data_dir"`
	APIPort       string          `json:"api_port"`
	LogLevel      string          `json:"log_level"`
	EncryptionKey string          `json:"encryption_key"` // protects relay secrets at rest
	CORSOrigins   string          `json:"cors_origins"`
	Accounts      []AccountConfig `json:"accounts"`
}

// Default configuration values
const (
	DefaultDataDir       = "data"
	DefaultAPIPort       = "8080"
	DefaultLogLevel      = "INFO"
	DefaultEncryptionKey = "term-mail-default-key-change-in-production"
	DefaultCORSOrigins   = "*"
)

// Load loads configuration from environment variables and config file
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:       DefaultDataDir,
		APIPort:       DefaultAPIPort,
		LogLevel:      DefaultLogLevel,
		EncryptionKey: DefaultEncryptionKey,
		CORSOrigins:   DefaultCORSOrigins,
	}

	// Config file is optional
	_ = cfg.loadFromFile()

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return json.Unmarshal(data, c)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("TERMMAIL_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("TERMMAIL_API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("TERMMAIL_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("TERMMAIL_ENCRYPTION_KEY"); val != "" {
		c.EncryptionKey = val
	}
	if val := os.Getenv("TERMMAIL_CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
}

// GetEncryptionKey derives the 32-byte key protecting relay secrets.
func (c *Config) GetEncryptionKey() []byte {
	hash := sha256.Sum256([]byte(c.EncryptionKey))
	return hash[:]
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
