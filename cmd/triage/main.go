package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mailscope.app/triage/common/id"
	"mailscope.app/triage/common/llm"
	"mailscope.app/triage/common/logger"
	"mailscope.app/triage/common/otel"
	"mailscope.app/triage/core/config"
	"mailscope.app/triage/internal/history"
	"mailscope.app/triage/internal/oracle"
	"mailscope.app/triage/internal/pipeline"
	"mailscope.app/triage/internal/report"
)

var (
	inputDir     string
	outJSON      string
	outMD        string
	redact       bool
	bestEffort   bool
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Derive grounded, resolution-checked issues from email threads",
	Long: `triage reads email thread files (email*.txt), asks an LLM to draft
issues and resolution verdicts, verifies every claim against the verbatim
thread text, and writes a ranked Portfolio Health report.

Claims that cannot be grounded in the thread, or whose resolution proof does
not postdate the problem, never reach the report.`,
	RunE: run,
}

var historyCmd = &cobra.Command{
	Use:   "history <thread-id>",
	Short: "Show a thread's attention-flag trend across recorded runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.Flags().StringVar(&inputDir, "input-dir", ".", "folder containing email*.txt thread files")
	rootCmd.Flags().StringVar(&outJSON, "out-json", "report.json", "output path for the JSON report")
	rootCmd.Flags().StringVar(&outMD, "out-md", "report.md", "output path for the Markdown report")
	rootCmd.Flags().BoolVar(&redact, "redact", false, "pseudonymize email addresses before sending text to the models")
	rootCmd.Flags().BoolVar(&bestEffort, "best-effort", false, "degrade failed resolution calls to status=unknown instead of failing the thread")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of past runs to show")
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if bestEffort {
		cfg.Pipeline.BestEffort = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	if telemetry != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}
	logger.Setup(cfg)

	if err := id.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("id init: %w", err)
	}
	runID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(runID)})
	slog.InfoContext(ctx, "triage starting", "env", cfg.Env, "input_dir", inputDir, "redact", redact)

	oracleClient, err := buildOracle(cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(oracleClient, cfg.Pipeline, redact)
	runner := pipeline.NewRunner(p, cfg.Pipeline.MaxThreadWorkers)

	entries, err := runner.Run(ctx, inputDir)
	if err != nil {
		return fmt.Errorf("processing threads: %w", err)
	}

	draftModel, resolveModel, summaryModel := oracleClient.Models()
	rep := report.Report{
		RunID:       strconv.FormatInt(runID, 10),
		GeneratedAt: time.Now().UTC(),
		Models: report.Models{
			Draft:   draftModel,
			Resolve: resolveModel,
			Summary: summaryModel,
		},
		Threads: entries,
	}

	if err := writeOutputs(rep); err != nil {
		return err
	}

	if cfg.History.Enabled() {
		if err := recordHistory(ctx, cfg.History.Path, runID, rep); err != nil {
			// History is bookkeeping; the report already exists on disk.
			slog.WarnContext(ctx, "recording run history failed", "error", err)
		}
	}

	fmt.Printf("Wrote %s and %s\n", outJSON, outMD)
	return nil
}

func buildOracle(cfg config.Config) (*oracle.Client, error) {
	clients := make([]llm.Client, 0, 3)
	for _, c := range []config.LLMConfig{cfg.DraftLLM, cfg.ResolveLLM, cfg.SummaryLLM} {
		client, err := llm.New(llm.Config{
			Provider: c.Provider,
			APIKey:   c.APIKey,
			BaseURL:  c.BaseURL,
			Model:    c.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		clients = append(clients, client)
	}
	return oracle.NewClient(clients[0], clients[1], clients[2]), nil
}

func writeOutputs(rep report.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outJSON, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outJSON, err)
	}
	if err := os.WriteFile(outMD, []byte(report.RenderMarkdown(rep)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outMD, err)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if !cfg.History.Enabled() {
		return fmt.Errorf("run history is not configured: set TRIAGE_HISTORY_DB")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	threadID := args[0]
	trends, err := store.ThreadHistory(cmd.Context(), threadID, historyLimit)
	if err != nil {
		return err
	}
	if len(trends) == 0 {
		fmt.Printf("No recorded runs mention thread %s\n", threadID)
		return nil
	}

	for _, tr := range trends {
		fmt.Printf("%s  run=%d  attention_flags=%d\n", tr.GeneratedAt, tr.RunID, tr.AttentionCount)
	}
	return nil
}

func recordHistory(ctx context.Context, path string, runID int64, rep report.Report) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(ctx, runID, rep)
}
