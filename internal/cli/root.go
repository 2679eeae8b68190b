package cli

import (
	"os"

	"github.com/spf13/cobra"

	"jeopardy-service/internal/config"
)

const defaultConfigPath = "config/config.yaml"

// rootOptions are the persistent flags every subcommand reads its config through.
type rootOptions struct {
	configPath string
	port       string
	logLevel   string
	bankDir    string
}

// load reads the config file and applies flag overrides on top of it.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.LoadOptional(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.port != "" {
		cfg.Server.Port = o.port
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.bankDir != "" {
		cfg.Bank.Dir = o.bankDir
	}
	return cfg, nil
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "jeopardy",
		Short: "Category/value trivia tables over websockets or the terminal",
		Long: `jeopardy runs turn-based trivia games. Contestants take turns picking a
category and a point value; a correct answer adds the value to their score,
a wrong one subtracts it. Question banks are CSV, JSON or XML files under
bank.dir, or banks imported into Postgres.

Every game keeps an interaction log (game_event_log.csv) and renders a
summary report as txt, pdf or docx.`,
		Example: `  jeopardy play --questions banks/week1.csv --report pdf
  jeopardy import banks/week1.json --id week1
  JEOPARDY_PORT=9000 jeopardy start --config config/config.yaml`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", envOr(defaultConfigPath, "JEOPARDY_CONFIG", "CONFIG_PATH"), "path to YAML config [$JEOPARDY_CONFIG]")
	flags.StringVar(&opts.port, "port", envOr("", "JEOPARDY_PORT", "PORT"), "port to listen on, overrides server.port [$JEOPARDY_PORT]")
	flags.StringVar(&opts.logLevel, "log-level", os.Getenv("JEOPARDY_LOG_LEVEL"), "debug, info, warn or error, overrides log.level")
	flags.StringVar(&opts.bankDir, "bank-dir", os.Getenv("JEOPARDY_BANK_DIR"), "directory the server loads question files from, overrides bank.dir")

	cmd.AddCommand(
		NewStartCmd(opts),
		NewMigrateCmd(opts),
		NewImportCmd(opts),
		NewPlayCmd(opts),
	)
	return cmd
}

// envOr returns the first non-empty variable among keys, or fallback.
func envOr(fallback string, keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return fallback
}
