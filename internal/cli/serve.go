package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisense/internal/auth"
	"github.com/ppiankov/verisense/internal/mail"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/server"
	"github.com/ppiankov/verisense/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the VeriSense API server",
	Long: `Serve starts the HTTP API: account registration with emailed one-time
codes, article analysis and per-user analysis history.

History is stored in MongoDB (MONGODB_URI). When the URI is unset, a
placeholder or unreachable, a local SQLite database is used instead.

Example:
  verisense serve
  verisense serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("[Store] Close failed", "error", err)
		}
	}()

	mailer := mail.New(cfg.SMTP)
	if mailer.Simulated() {
		slog.Warn("[Mail] SMTP not configured, verification codes will be logged and returned to clients")
	}

	authSvc, err := auth.NewService(st, auth.NewOTPStore(cfg.Auth.RedisURL), mailer, cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	if !p.FactCheckEnabled() {
		slog.Info("[FactCheck] GOOGLE_FACTCHECK_API_KEY not set, external fact-checks disabled")
	}

	srv := server.New(cfg.Server, p, authSvc, st, cfg.Database.HistoryLimit)
	return srv.Run(ctx, cfg.Server.Addr)
}
