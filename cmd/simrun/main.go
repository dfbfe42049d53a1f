// Command simrun runs a seeded, day-stepped multi-agent cooperation
// simulation to completion, persisting run state, daily metrics, events,
// and network snapshots to SQLite as it goes. It wires up structured
// logging, environment-variable configuration for external LLM API keys,
// a database-open-then-resume-or-fresh-start branch, a daily auto-save,
// and signal-driven graceful shutdown with a final save.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	strftime "github.com/ncruces/go-strftime"

	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/llm"
	"github.com/brackenfield/commons-sim/internal/persistence"
	"github.com/brackenfield/commons-sim/internal/sim"
)

func main() {
	scenarioDir := flag.String("scenarios", "scenarios", "directory of scenario YAML files")
	scenarioName := flag.String("scenario", "", "scenario name to run (required)")
	days := flag.Int("days", 30, "number of days to simulate")
	seed := flag.Uint("seed", 1, "deterministic RNG seed")
	dbPath := flag.String("db", "data/commons-sim.db", "path to the SQLite persistence file")
	resumeRunID := flag.String("resume", "", "run ID to resume instead of starting fresh")
	flag.Parse()

	logger := slog.New(newLogHandler())
	slog.SetDefault(logger)

	if *scenarioName == "" && *resumeRunID == "" {
		slog.Error("must provide -scenario or -resume")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	store, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open persistence store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	chain := buildAdapterChain(logger)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	var orchestrator *sim.Orchestrator
	var runID string

	if *resumeRunID != "" {
		var snapshot sim.State
		row, err := store.LoadRun(ctx, *resumeRunID, &snapshot)
		if err != nil {
			slog.Error("failed to load run", "runId", *resumeRunID, "error", err)
			os.Exit(1)
		}
		orchestrator = sim.FromState(logger, &snapshot, chain)
		runID = row.RunID
		slog.Info("resumed run", "runId", runID, "day", snapshot.Meta.CurrentDay)
	} else {
		registry := config.NewRegistry()
		if err := registry.LoadDir(*scenarioDir); err != nil {
			slog.Error("failed to load scenarios", "dir", *scenarioDir, "error", err)
			os.Exit(1)
		}
		cfg, err := registry.Get(*scenarioName)
		if err != nil {
			slog.Error("unknown scenario", "scenario", *scenarioName, "error", err)
			os.Exit(1)
		}

		orchestrator = sim.Initialize(logger, "", cfg, uint32(*seed), chain)
		runID, err = store.InsertRun(ctx, cfg.Name, uint32(*seed), orchestrator.Serialize())
		if err != nil {
			slog.Error("failed to insert run", "error", err)
			os.Exit(1)
		}
		slog.Info("starting run", "runId", runID, "scenario", cfg.Name, "population", humanize.Comma(int64(cfg.AgentPopulation.Size)))
	}

	started := time.Now()
	interrupted := false
	for day := 0; day < *days; day++ {
		if ctx.Err() != nil {
			slog.Info("run interrupted", "runId", runID, "day", day)
			interrupted = true
			break
		}

		result, err := orchestrator.StepDay(ctx)
		if err != nil {
			slog.Warn("step day failed", "error", err)
			interrupted = true
			break
		}

		if err := store.AppendDailyMetrics(ctx, runID, result.Metrics.Day, result.Metrics); err != nil {
			slog.Warn("failed to append daily metrics", "error", err)
		}

		events := make([]any, 0, len(result.LogEntries)+len(result.CausalLinks))
		for _, e := range result.LogEntries {
			events = append(events, e)
		}
		for _, c := range result.CausalLinks {
			events = append(events, c)
		}
		if err := store.AppendEvents(ctx, runID, result.Metrics.Day, events); err != nil {
			slog.Warn("failed to append events", "error", err)
		}

		if err := store.AppendNetworkSnapshot(ctx, runID, result.Metrics.Day, orchestrator.State().Network.Edges()); err != nil {
			slog.Warn("failed to append network snapshot", "error", err)
		}

		if err := store.PatchRunState(ctx, runID, result.Metrics.Day, orchestrator.Serialize()); err != nil {
			slog.Warn("failed to patch run state", "error", err)
		}

		slog.Info("day complete",
			"day", result.Metrics.Day,
			"season", result.Metrics.Season,
			"cooperationRate", fmt.Sprintf("%.2f", result.Metrics.Cooperation.CooperationRate),
			"reciprocity", fmt.Sprintf("%.2f", result.Metrics.Network.Reciprocity),
			"at", strftime.Format("%Y-%m-%d %H:%M:%S", time.Now()),
		)
	}

	finalStatus := persistence.RunStatusCompleted
	if interrupted {
		finalStatus = persistence.RunStatusPaused
	}
	// ctx may already be canceled by the shutdown signal; the final status
	// write must still go through.
	if err := store.SetRunStatus(context.Background(), runID, finalStatus); err != nil {
		slog.Warn("failed to set final run status", "error", err)
	}

	fmt.Printf("Run %s complete after %s.\n", runID, humanize.RelTime(started, time.Now(), "", ""))
}

func buildAdapterChain(logger *slog.Logger) *llm.Chain {
	openai := llm.NewOpenAIResponsesAdapter(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"), envOr("OPENAI_RESPONSES_MODEL", "gpt-4o-mini"))
	bedrock := llm.NewBedrockConverseAdapter(os.Getenv("BEDROCK_CONVERSE_URL"), os.Getenv("BEDROCK_CONVERSE_MODEL"), os.Getenv("BEDROCK_CONVERSE_AUTH"))
	ollama := llm.NewOllamaAdapter(os.Getenv("OLLAMA_HOST"), envOr("OLLAMA_PLAN_MODEL", "llama3"))

	if !openai.Enabled() && !bedrock.Enabled() && !ollama.Enabled() {
		slog.Warn("no LLM adapter configured — falling back to heuristic task ordering")
	}

	return llm.NewChain(logger, openai, bedrock, ollama)
}

func newLogHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
