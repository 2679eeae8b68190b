package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"jeopardy-service/internal/config"
	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/infra/postgres"
	"jeopardy-service/internal/logging"
)

// NewImportCmd stores a question file in Postgres so the server can serve it by id.
func NewImportCmd(opts *rootOptions) *cobra.Command {
	var (
		bankID string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a question bank file into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			n, err := runImport(cmd.Context(), cfg, args[0], bankID, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&bankID, "id", "", "bank id (defaults to the file name)")
	cmd.Flags().StringVar(&format, "format", "", "csv, json or xml (defaults to the file extension)")
	return cmd
}

func runImport(ctx context.Context, cfg config.Config, path, bankID, formatTag string) (int, error) {
	logging.New(cfg.Log)

	format, err := resolveFormat(path, formatTag)
	if err != nil {
		return 0, err
	}
	if bankID == "" {
		bankID = bankIDFromPath(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return 0, err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	n, err := postgres.NewBankStore(db).Import(ctx, bankID, format, data)
	if err != nil {
		return 0, err
	}
	slog.Info("bank imported", slog.String("bank_id", bankID), slog.String("format", format.String()), slog.Int("count", n))
	return n, nil
}
