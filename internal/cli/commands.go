package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"graham/internal/adapters/config"
	"graham/internal/batch"
	"graham/internal/domain/analysis"
	"graham/internal/repository/postgres"
	"graham/pkg/errors"
	"graham/pkg/logger"
)

var cfg *config.Config

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var tracker errors.Tracker

	rootCmd := &cobra.Command{
		Use:           "graham",
		Short:         "LLM-driven fundamental investment research",
		Long:          "graham screens and deep-dives equities with an LLM reasoning loop,\nverified financial data and SEC filings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
				return err
			}
			tracker = initErrorTracker(cfg, logger.Get())
			logger.SetErrorTracker(tracker)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if tracker != nil {
				_ = tracker.Flush(cmd.Context())
			}
			_ = logger.Sync()
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newProtocolsCmd())

	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	var analysisType string

	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Run one analysis stage for a single ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(strings.TrimSpace(args[0]))

			switch analysis.Type(analysisType) {
			case analysis.TypeSharia, analysis.TypeQuick, analysis.TypeDeepDive:
			default:
				return errors.Wrapf(errors.ErrInvalidInput, "unknown analysis type %q", analysisType)
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := app.analyzer(app.repo).Analyze(ctx, ticker, analysis.Type(analysisType))
			if err != nil {
				return err
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&analysisType, "type", string(analysis.TypeDeepDive),
		"analysis stage: sharia_screen, quick_screen or deep_dive")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var protocolID string

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Run a screening protocol over a CSV ticker list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			if protocolID == "" {
				protocolID = cfg.Batch.DefaultProtocol
			}
			protocol, err := batch.GetProtocol(protocolID)
			if err != nil {
				return err
			}

			tickers, err := batch.LoadTickers(args[0])
			if err != nil {
				return err
			}

			// The runner persists every result itself; the analyzer gets no
			// repository so nothing is saved twice.
			runner := batch.NewRunner(app.analyzer(nil), app.repo, protocol, printProgress)

			// SIGINT pauses at the next ticker boundary; the in-flight
			// analysis finishes and persists first.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			go func() {
				<-quit
				fmt.Println("\nStopping after the current ticker...")
				runner.Stop()
			}()

			fmt.Printf("Batch %s: protocol %s, %d tickers\n\n", runner.BatchID(), protocol.ID, len(tickers))

			if err := runner.Run(cmd.Context(), tickers); err != nil {
				return err
			}

			printBatchSummary(runner, protocol)
			return nil
		},
	}

	cmd.Flags().StringVar(&protocolID, "protocol", "",
		"protocol id (defaults to BATCH_DEFAULT_PROTOCOL)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history TICKER",
		Short: "Show past analysis results for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(strings.TrimSpace(args[0]))

			db, err := postgres.Connect(cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := postgres.NewAnalysisRepository(db).History(cmd.Context(), ticker, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("No analyses recorded for %s\n", ticker)
				return nil
			}

			for _, r := range results {
				conviction := ""
				if r.Conviction != "" {
					conviction = fmt.Sprintf(" (%s)", r.Conviction)
				}
				fmt.Printf("%s  %-13s %-13s%s  $%.4f\n",
					r.CreatedAt.Format("2006-01-02 15:04"),
					r.Metadata.AnalysisType, r.Decision, conviction,
					r.Metadata.TokenUsage.CostUSD)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	return cmd
}

func newProtocolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protocols",
		Short: "List available screening protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := batch.ProtocolIDs()
			sort.Strings(ids)

			for _, id := range ids {
				protocol, err := batch.GetProtocol(id)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", protocol.ID, protocol.Name)
				for _, stage := range protocol.Stages {
					passes := make([]string, 0, len(stage.PassDecisions))
					for _, d := range stage.PassDecisions {
						passes = append(passes, string(d))
					}
					fmt.Printf("  %-14s advances on %s\n", stage.Name, strings.Join(passes, ", "))
				}
			}
			return nil
		},
	}
}

func printResult(result *analysis.Result) {
	fmt.Printf("\n%s: %s", result.Ticker, result.Decision)
	if result.Conviction != "" {
		fmt.Printf(" (%s conviction)", result.Conviction)
	}
	fmt.Println()

	usage := result.Metadata.TokenUsage
	fmt.Printf("iterations=%d tool_calls=%d years=%d tokens=%s cost=$%.4f duration=%.1fs\n\n",
		result.Metadata.Iterations,
		result.Metadata.ToolCallsMade,
		result.Metadata.YearsAnalyzed,
		humanize.Comma(int64(usage.InputTokens+usage.OutputTokens)),
		usage.CostUSD,
		result.Metadata.DurationSeconds)

	fmt.Println(result.Thesis)
}

func printProgress(s batch.Snapshot) {
	fmt.Printf("[%d/%d %s] (%d/%d) %s: %s\n",
		s.StageIndex+1, s.TotalStages, s.Stage,
		s.TickerIndex+1, s.StageSize,
		s.Ticker, s.Decision)
}

func printBatchSummary(runner *batch.Runner, protocol batch.Protocol) {
	if runner.Status() == batch.StatusPaused {
		fmt.Println("\nBatch paused; completed results are persisted. Re-run to start over.")
		return
	}

	results := runner.Results()
	var totalCost float64

	fmt.Println("\nSummary:")
	for _, stage := range protocol.Stages {
		counts := make(map[analysis.Decision]int)
		for _, r := range results[stage.Name] {
			counts[r.Decision]++
			totalCost += r.Metadata.TokenUsage.CostUSD
		}

		decisions := make([]string, 0, len(counts))
		for d := range counts {
			decisions = append(decisions, string(d))
		}
		sort.Strings(decisions)

		parts := make([]string, 0, len(decisions))
		for _, d := range decisions {
			parts = append(parts, fmt.Sprintf("%s=%d", d, counts[analysis.Decision(d)]))
		}
		fmt.Printf("  %-14s %s\n", stage.Name, strings.Join(parts, " "))
	}
	fmt.Printf("Total cost: $%.4f\n", totalCost)

	if failures := runner.Failures(); len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Printf("  %s (%s): %s\n", f.Ticker, f.Stage, f.Error)
		}
	}
}
