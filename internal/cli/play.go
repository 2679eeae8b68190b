package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/ingest"
	"jeopardy-service/internal/logging"
	"jeopardy-service/internal/report"
)

const maxPlayers = 4

type playOptions struct {
	questions string
	format    string
	report    string
	outDir    string
}

// NewPlayCmd runs one game on the console.
func NewPlayCmd(root *rootOptions) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			logging.New(cfg.Log)
			if opts.outDir == "" {
				opts.outDir = cfg.Reports.Dir
			}
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.questions, "questions", "", "question file (prompted when empty)")
	cmd.Flags().StringVar(&opts.format, "format", "", "csv, json or xml (defaults to the file extension)")
	cmd.Flags().StringVar(&opts.report, "report", "txt", "report format: txt, pdf or docx")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "directory for the report and event log (defaults to reports.dir)")
	return cmd
}

// console reads answers line by line; EOF ends the game early.
type console struct {
	in  *bufio.Scanner
	out io.Writer
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *console) readInt(lo, hi int) (int, error) {
	for {
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			c.printf("Invalid input. Please enter a number: ")
			continue
		}
		if n < lo || n > hi {
			c.printf("Please enter a number between %d and %d: ", lo, hi)
			continue
		}
		return n, nil
	}
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, opts playOptions) error {
	reportFormat, err := report.ParseFormat(opts.report)
	if err != nil {
		return err
	}
	c := &console{in: bufio.NewScanner(in), out: out}
	game := app.NewGame("GAME_"+uuid.NewString(), ingest.NewFileSource(), nil)

	c.printf("=======================================\n")
	c.printf("  WELCOME TO JEOPARDY GAME!\n")
	c.printf("=======================================\n\n")

	if err := loadQuestions(ctx, c, game, opts); err != nil {
		return err
	}
	if err := registerPlayers(c, game); err != nil {
		return err
	}
	if err := game.Start(); err != nil {
		return err
	}
	c.printf("\nGame started! Let's play!\n")

	if err := playTurns(c, game); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	game.End()

	return finish(c, game, reportFormat, opts.outDir)
}

func loadQuestions(ctx context.Context, c *console, game *app.Game, opts playOptions) error {
	path := opts.questions
	if path == "" {
		c.printf("Enter the path to the questions file:\n")
		line, err := c.readLine()
		if err != nil {
			return err
		}
		path = line
	}
	format, err := resolveFormat(path, opts.format)
	if err != nil {
		return err
	}
	n, err := game.IngestQuestions(ctx, path, format)
	if err != nil {
		return err
	}
	c.printf("Loaded %d questions.\n\n", n)
	return nil
}

func registerPlayers(c *console, game *app.Game) error {
	c.printf("How many players? (1-%d):\n", maxPlayers)
	count, err := c.readInt(1, maxPlayers)
	if err != nil {
		return err
	}
	game.Events().RecordSystem(domain.ActivitySelectPlayerCount, fmt.Sprintf("Number of players: %d", count))

	for i := 1; i <= count; i++ {
		c.printf("Enter name for Player %d: ", i)
		name, err := c.readLine()
		if err != nil {
			return err
		}
		if name == "" {
			name = fmt.Sprintf("Player %d", i)
		}
		if _, err := game.AddContestant(name); err != nil {
			return err
		}
	}

	c.printf("\nPlayers registered:\n")
	for _, p := range game.Contestants() {
		c.printf("  - %s\n", p.Name)
	}
	return nil
}

func playTurns(c *console, game *app.Game) error {
	for !game.IsComplete() {
		current, err := game.CurrentContestant()
		if err != nil {
			return err
		}
		c.printf("\n=======================================\n")
		c.printf("Current Player: %s\n", current.Name)
		c.printf("Current Score: %d\n", current.Score)
		c.printf("---------------------------------------\n")

		c.printf("\nDo you want to (P)lay or (Q)uit?\n")
		choice, err := c.readLine()
		if err != nil {
			return err
		}
		if strings.EqualFold(choice, "Q") {
			c.printf("Ending game early...\n")
			return nil
		}

		categories := game.AvailableCategories()
		c.printf("\nAvailable Categories:\n")
		for i, category := range categories {
			c.printf("%d. %s\n", i+1, category)
		}
		c.printf("Select category (1-%d): ", len(categories))
		ci, err := c.readInt(1, len(categories))
		if err != nil {
			return err
		}
		category := categories[ci-1]

		values := game.AvailableValues(category)
		c.printf("\nAvailable Values:\n")
		for i, v := range values {
			c.printf("%d. %d points\n", i+1, v)
		}
		c.printf("Select value (1-%d): ", len(values))
		vi, err := c.readInt(1, len(values))
		if err != nil {
			return err
		}
		value := values[vi-1]

		q, ok := game.Peek(category, value)
		if !ok {
			continue
		}
		printQuestion(c, q)
		c.printf("Your answer (A/B/C/D): ")
		answer, err := c.readLine()
		if err != nil {
			return err
		}

		outcome, err := game.SubmitTurn(category, value, strings.ToUpper(answer), app.DefaultPolicy{})
		if err != nil {
			return err
		}
		if outcome.Correct {
			c.printf("\nCORRECT! +%d points\n", outcome.Points)
		} else {
			c.printf("\nINCORRECT! %d points\n", outcome.Points)
			c.printf("Correct answer was: %s\n", outcome.CorrectAnswer)
		}
		c.printf("New score: %d\n", outcome.NewScore)
	}
	return nil
}

func printQuestion(c *console, q domain.Question) {
	c.printf("\nCategory: %s | Value: %d points\n", q.Category, q.Value)
	c.printf("Question: %s\n", q.Prompt)
	c.printf("Options:\n")
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.printf("  %s. %s\n", k, q.Options[k])
	}
}

func finish(c *console, game *app.Game, format report.Format, outDir string) error {
	c.printf("\n=======================================\n")
	c.printf("         GAME OVER!\n")
	c.printf("=======================================\n\n")

	c.printf("FINAL SCORES:\n")
	for _, entry := range game.Scoreboard().Entries {
		c.printf("%s: %d points\n", entry.Name, entry.Score)
	}

	reportPath, err := game.ExportReport(report.NewExporter(), outDir, format)
	if err != nil {
		return err
	}
	logPath := filepath.Join(outDir, "game_event_log.csv")
	if _, err := game.ExportEventLog(logPath); err != nil {
		return err
	}

	c.printf("\nReports generated successfully!\n")
	c.printf("  - Summary report: %s\n", reportPath)
	c.printf("  - Event log: %s\n", logPath)
	return nil
}
