package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/bts-board/internal/config"
	"github.com/pfrederiksen/bts-board/internal/dates"
	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"github.com/pfrederiksen/bts-board/internal/view"
	"github.com/pfrederiksen/bts-board/internal/web"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNoResults = 2
)

// errNoResults makes show exit with ExitNoResults
var errNoResults = errors.New("no results for at least one file")

// app carries flag values and loaded settings for one invocation
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	now func() time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bts-board",
		Short: "View beat-the-streak predictions and past results",
		Long: `A viewer for the daily beat-the-streak CSV files.
Shows today's predictions and, for any recent date, the results and model
performance tables, either in the terminal or as a web page.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(a.serveCmd(), a.datesCmd(), a.showCmd())
	return cmd
}

// setup loads the config and configures the default logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return nil
}

func (a *app) client() *source.Client {
	return source.New(a.cfg.ClientOptions()...)
}

func (a *app) today() (time.Time, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return time.Time{}, err
	}
	return dates.Today(loc, a.now), nil
}

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			srv := web.New(a.client(), a.cfg.Repo(), web.Options{
				CandidateDays: a.cfg.Dates.CandidateDays,
				Location:      loc,
				Now:           a.now,
			})
			return srv.ListenAndServe(cmd.Context(), a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func (a *app) datesCmd() *cobra.Command {
	var count int
	var format string

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Print today's date and the selectable past dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}
			if count <= 0 {
				count = a.cfg.Dates.CandidateDays
			}
			today, err := a.today()
			if err != nil {
				return err
			}

			return WriteDates(cmd.OutOrStdout(), &DatesResult{
				Today:      dates.DisplayDate(today),
				Candidates: dates.CandidateDates(today, count),
			}, outFormat)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of past dates (default dates.candidate_days)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var date string
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch and print today's predictions or a past date's tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format, FormatText, FormatJSON, FormatHTML)
			if err != nil {
				return err
			}
			today, err := a.today()
			if err != nil {
				return err
			}

			result := &OutputResult{
				CheckedAt:  a.now().UTC(),
				Today:      dates.DisplayDate(today),
				Candidates: dates.CandidateDates(today, a.cfg.Dates.CandidateDays),
			}

			client := a.client()
			if date == "" {
				url := a.cfg.Repo().MustURL(source.KindPredictions, dates.FormatForURL(dates.LocaleDate(today)))
				logger.Debug("Fetching predictions", logger.Fields{"url": url})
				result.Panels = []view.Panel{
					view.Load(cmd.Context(), client, view.PanelPredictions, web.PredictionsTitle, url),
				}
			} else {
				parsed, err := dates.ParseCandidate(date)
				if err != nil {
					return err
				}
				result.Date = dates.LocaleDate(parsed)

				state, err := view.NewBoard(client, a.cfg.Repo()).Select(cmd.Context(), result.Date)
				if err != nil {
					return err
				}
				result.Panels = state.Panels()
			}

			if err := WriteOutput(cmd.OutOrStdout(), result, outFormat, a.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if result.Failed() {
				return errNoResults
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Past date as M/D/YYYY (default: today's predictions)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or html")
	return cmd
}

func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, 0, len(allowed))
	for _, f := range allowed {
		if f == format {
			return format, nil
		}
		names = append(names, "'"+string(f)+"'")
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", s, strings.Join(names, ", "))
}

// exitCode maps a command error to a process exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNoResults):
		return ExitNoResults
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errNoResults) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	code := exitCode(err)
	stop()
	os.Exit(code)
}
