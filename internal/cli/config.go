package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration
type Config struct {
	DefaultServer string                  `yaml:"default_server"`
	Servers       map[string]ServerConfig `yaml:"servers"`
}

// ServerConfig represents connection details for a named server
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".bushel", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				DefaultServer: "local",
				Servers:       make(map[string]ServerConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerConfig resolves connection details for a server.
// Priority: command flags > environment variables > config file
// Returns the server config and the effective server name.
func GetServerConfig(serverName, baseURLFlag, apiKeyFlag string) (*ServerConfig, string, error) {
	// First check command line flags
	if baseURLFlag != "" {
		if serverName == "" {
			serverName = "flags"
		}
		return &ServerConfig{
			BaseURL: baseURLFlag,
			APIKey:  apiKeyFlag,
		}, serverName, nil
	}

	// Then check environment variables
	envBaseURL := os.Getenv("BUSHEL_BASE_URL")
	envAPIKey := os.Getenv("BUSHEL_API_KEY")
	if envBaseURL != "" {
		if serverName == "" {
			serverName = "env"
		}
		return &ServerConfig{
			BaseURL: envBaseURL,
			APIKey:  envAPIKey,
		}, serverName, nil
	}

	// Finally check config file
	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}

	if serverName == "" {
		serverName = cfg.DefaultServer
	}

	srvCfg, ok := cfg.Servers[serverName]
	if !ok {
		return nil, "", fmt.Errorf("server '%s' not found in config (run 'bushel config init' to create one)", serverName)
	}

	if apiKeyFlag != "" {
		srvCfg.APIKey = apiKeyFlag
	} else if envAPIKey != "" {
		srvCfg.APIKey = envAPIKey
	}

	if srvCfg.BaseURL == "" {
		return nil, "", fmt.Errorf("base_url must be configured for server '%s'", serverName)
	}

	return &srvCfg, serverName, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultServer: "local",
		Servers: map[string]ServerConfig{
			"local": {
				BaseURL: "http://localhost:8080",
				APIKey:  "admin-123",
			},
			"staging": {
				BaseURL: "https://flags-staging.example.com",
				APIKey:  "staging-key",
			},
			"prod": {
				BaseURL: "https://flags.example.com",
				APIKey:  "prod-key",
			},
		},
	}

	return SaveConfig(cfg)
}
