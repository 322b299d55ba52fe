package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds linkctl settings. Flags override the environment.
type Config struct {
	ServerURL string `env:"LINKCTL_SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"LINKCTL_TOKEN"`
	TokenFile string `env:"LINKCTL_TOKEN_FILE"`
	Output    string `env:"LINKCTL_OUTPUT" envDefault:"text"`
	NoColor   bool
}

// LoadConfig reads the environment. NO_COLOR disables colour when set to
// any value.
func LoadConfig() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	c.NoColor = os.Getenv("NO_COLOR") != ""
	return &c, nil
}

// Validate checks values that came from flags or the environment
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q: must be text or json", c.Output)
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server URL %q must start with http:// or https://", c.ServerURL)
	}
	return nil
}

// LoadToken reads the token file unless a token was already given. A
// missing file is not an error; commands that need a token get a 401.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes token to the token file, readable only by the owner
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".linkctl", "token")
	}
	return filepath.Join(home, ".linkctl", "token")
}
