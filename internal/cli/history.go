package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisense/internal/auth"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/store"
)

var (
	historyEmail string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored analyses for a user",
	Long: `History prints the most recent analyses saved for an account, newest first.

Example:
  verisense history --email reader@example.com --limit 20`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyEmail, "email", "", "account email (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries (default from database.history_limit)")
	_ = historyCmd.MarkFlagRequired("email")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	email, err := auth.NormalizeEmail(historyEmail)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	user, err := st.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no account for %s", email)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.Database.HistoryLimit
	}
	records, err := st.ListHistory(ctx, user.ID, limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No analyses stored for %s\n", email)
		return nil
	}
	return printHistory(cmd, records)
}

func printHistory(cmd *cobra.Command, records []model.HistoryRecord) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSCORE\tRATING\tSOURCE\tEXCERPT")
	for _, r := range records {
		source := r.SourceURL
		if source == "" {
			source = string(r.SourceType)
		}
		excerpt := model.Article{Text: r.ArticleText}.Excerpt(48)
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Local().Format("2006-01-02 15:04"), r.CredibilityScore, r.Classification, source, excerpt)
	}
	return tw.Flush()
}
