package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verisense/internal/model"
)

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv fills summarizer credentials from the provider's usual environment variables
func applyProviderEnv(cfg *model.Config) {
	s := &cfg.Models.Summarizer
	switch strings.ToLower(s.Provider) {
	case "openai":
		if s.APIKey == "" {
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if s.APIKey == "" {
			s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if s.BaseURL == "" {
			s.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	if cfg.Models.Embedding.Backend == "ollama" && os.Getenv("OLLAMA_BASE_URL") != "" &&
		cfg.Models.Embedding.OllamaURL == model.DefaultConfig().Models.Embedding.OllamaURL {
		cfg.Models.Embedding.OllamaURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage VeriSense configuration",
	Long: `Manage VeriSense configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (VERISENSE_*, MONGODB_URI, SMTP_*, ...)
3. Config file (~/.verisense/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", used)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (defaults and environment only)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("error finding home directory: %w", err)
			}
			path = filepath.Join(home, ".verisense", "config.yaml")
		}

		if err := writeDefaultConfig(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "\nTo view the effective configuration:\n  verisense config show\n")
		return nil
	},
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	var b strings.Builder
	b.WriteString("# VeriSense configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Secrets are better kept in the environment or a .env file:\n")
	b.WriteString("#   MONGODB_URI, JWT_SECRET, SMTP_SERVER, SMTP_PORT, SMTP_USER, SMTP_PASSWORD,\n")
	b.WriteString("#   GOOGLE_FACTCHECK_API_KEY, HF_TOKEN, OPENAI_API_KEY, ANTHROPIC_API_KEY, REDIS_URL\n\n")
	b.Write(yamlData)

	// 0600: the file may end up holding credentials
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
