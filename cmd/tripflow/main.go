package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tripweaver-ai/tripflow"
	"github.com/tripweaver-ai/tripflow/agents"
	"github.com/tripweaver-ai/tripflow/config"
	"github.com/tripweaver-ai/tripflow/store/postgres"
)

var (
	configPath  string
	threadID    string
	destination string
	startDate   string
	endDate     string
	budget      float64
	userID      string
	jsonOut     bool
)

func main() {
	root := &cobra.Command{
		Use:   "tripflow",
		Short: "Trip planning pipeline",
		Long:  "tripflow runs a fixed sequence of planning stages for a trip and keeps resumable snapshots of every run.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON output")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the planning pipeline for a trip",
		RunE:  runPlan,
	}
	planCmd.Flags().StringVar(&destination, "destination", "", "trip destination (required)")
	planCmd.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (required)")
	planCmd.Flags().StringVar(&endDate, "end", "", "end date YYYY-MM-DD (required)")
	planCmd.Flags().Float64Var(&budget, "budget", 1000, "total trip budget")
	planCmd.Flags().StringVar(&userID, "user", "cli", "requesting user ID")
	planCmd.Flags().StringVar(&threadID, "thread", "", "thread ID (generated when empty)")
	planCmd.MarkFlagRequired("destination")
	planCmd.MarkFlagRequired("start")
	planCmd.MarkFlagRequired("end")

	stateCmd := &cobra.Command{
		Use:   "state <thread-id>",
		Short: "Show the latest persisted state of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runState,
	}

	root.AddCommand(planCmd, stateCmd)
	if err := root.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func buildCoordinator(ctx context.Context, cfg *config.Config) (*tripflow.Coordinator, error) {
	logger := buildLogger(cfg)

	var checkpoints tripflow.CheckpointStore
	var err error
	switch cfg.Store.Type {
	case "", "memory":
		// In-memory state does not survive the process; the file store is
		// the useful default for a CLI but memory keeps tests hermetic.
		checkpoints = tripflow.NewMemoryCheckpointStore()
	case "file":
		checkpoints, err = tripflow.NewFileCheckpointStore(cfg.Store.Path)
	case "postgres":
		checkpoints, err = postgres.New(ctx, cfg.Store.DSN)
	}
	if err != nil {
		return nil, err
	}

	var audit tripflow.AuditLog
	if cfg.Audit.Path != "" {
		audit, err = tripflow.NewSQLiteAuditLog(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
	}

	model, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	return tripflow.NewCoordinator(tripflow.CoordinatorOptions{
		Handlers:    agents.Default(model),
		Checkpoints: checkpoints,
		Audit:       audit,
		Logger:      logger,
	})
}

func buildLogger(cfg *config.Config) *slog.Logger {
	if cfg.Log.Format == "json" {
		return tripflow.NewJSONLogger()
	}
	return tripflow.NewLogger()
}

func buildModel(cfg *config.Config) (llms.Model, error) {
	if !cfg.Provider.Enabled {
		return nil, nil
	}
	opts := []openai.Option{
		openai.WithToken(cfg.Provider.APIKey),
		openai.WithModel(cfg.Provider.Model),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Provider.BaseURL))
	}
	return openai.New(opts...)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	coordinator, err := buildCoordinator(ctx, cfg)
	if err != nil {
		return err
	}

	request := tripflow.TripRequest{
		UserID:      userID,
		Destination: destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      budget,
	}

	color.Blue("Planning trip to %s (%s to %s)", destination, startDate, endDate)
	report, err := coordinator.Plan(ctx, request, threadID)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	coordinator, err := buildCoordinator(ctx, cfg)
	if err != nil {
		return err
	}

	state, err := coordinator.GetState(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(state)
	}
	color.Cyan("Thread: %s", state.ThreadID)
	color.White("Current step: %s", state.State.CurrentStep)
	color.White("Completed stages: %d", len(state.State.CompletedStages))
	color.White("Errors: %d", len(state.State.Errors))
	color.White("Checkpoints: %d (last update %s)",
		state.Metadata.CheckpointCount,
		state.Metadata.LastUpdated.Format(time.RFC3339))
	if len(state.NextStages) == 0 {
		color.Green("Run complete")
	} else {
		color.Yellow("Next stages: %v", state.NextStages)
	}
	return nil
}

func printReport(report *tripflow.FinalReport) {
	color.Cyan("Thread: %s", report.ThreadID)
	color.Green("Status: %s (%d/%d stages, %s)",
		report.Status, len(report.CompletedStages), report.OutcomeCount+len(report.Errors),
		report.Duration.Round(time.Millisecond))
	for _, stage := range report.CompletedStages {
		color.White("  ok  %s", stage)
	}
	for _, stageErr := range report.Errors {
		color.Red("  err %s", stageErr)
	}
	for _, warning := range report.Warnings {
		color.Yellow("  warn %s", warning)
	}
	if overview, ok := report.TripSummary["trip_overview"].(map[string]any); ok {
		color.Blue("Overview: %v", overview)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
