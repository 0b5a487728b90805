package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verisense/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verisense",
	Short: "VeriSense - news credibility analysis",
	Long: `VeriSense estimates how credible a news article is.

It combines a fake-news classifier, semantic verification of extracted
claims against trusted reference statements, published fact-checks,
language and sentiment red flags, source reputation and named entities
into one transparent 0-100 credibility score.

Every score comes with its breakdown. VeriSense is guidance, not a verdict.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose || viper.GetBool("debug_mode") {
			level = "debug"
		}
		logging.InitLogger(level, cfg.Logging.Format)
		if used := viper.ConfigFileUsed(); used != "" {
			slog.Debug("[Config] Using config file", "path", used)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("verisense v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verisense/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// envBindings maps config keys to the plain environment names used in deployments
var envBindings = map[string][]string{
	"database.uri":                  {"MONGODB_URI"},
	"fact_check.api_key":            {"GOOGLE_FACTCHECK_API_KEY"},
	"smtp.server":                   {"SMTP_SERVER"},
	"smtp.port":                     {"SMTP_PORT"},
	"smtp.user":                     {"SMTP_USER"},
	"smtp.password":                 {"SMTP_PASSWORD"},
	"auth.jwt_secret":               {"JWT_SECRET"},
	"auth.redis_url":                {"REDIS_URL"},
	"models.hf_token":               {"HF_TOKEN", "HUGGINGFACE_TOKEN"},
	"models.embedding.genai_api_key": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"cache.valkey_address":          {"VALKEY_ADDRESS"},
	"debug_mode":                    {"DEBUG_MODE"},
}

// initConfig loads .env, the config file and environment variables
func initConfig() {
	if err := godotenv.Load(); err != nil {
		// Missing .env is normal outside development; logging is not set up yet
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".verisense"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VERISENSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		}
	}
}

func bindEnv(v *viper.Viper) {
	for key, names := range envBindings {
		prefixed := "VERISENSE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
}
