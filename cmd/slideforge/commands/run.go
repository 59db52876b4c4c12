package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/slideforge/slideforge/cmd/slideforge/ui"
	"github.com/slideforge/slideforge/internal/config"
	"github.com/slideforge/slideforge/internal/ledger"
	"github.com/slideforge/slideforge/internal/pipeline"
)

var (
	runInput  string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the document-to-video pipeline",
	Long: `Run executes all pipeline stages in order: text extraction,
summarization, icon fetching, PPTX and PDF rendering, and video assembly.
Stages whose artifacts already exist in the output directory are skipped.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input document (default: first PDF in the input directory)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	documentPath, err := resolveInput(runInput, cfg.Input.Dir)
	if err != nil {
		return err
	}
	outputDir := cfg.Input.OutputDir
	if runOutput != "" {
		outputDir = runOutput
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	deps, err := buildDeps(cfg, creds, documentPath, logger)
	if err != nil {
		return err
	}

	runLedger, err := ledger.Open(filepath.Join(outputDir, "runs.db"), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, continuing without history")
	} else {
		deps.Recorder = runLedger
		defer runLedger.Close()
	}

	progress := ui.NewStageProgress(int64(len(pipeline.StageOrder)))
	deps.OnStage = stageUI(progress)

	orchestrator, err := pipeline.NewOrchestrator(deps)
	if err != nil {
		return err
	}

	ui.Message("Processing %s", documentPath)
	run := pipeline.NewRun(documentPath, outputDir)
	start := time.Now()

	runErr := orchestrator.Execute(cmd.Context(), run)
	progress.Finish()
	printRunSummary(run)

	if runErr != nil {
		ui.Error("pipeline failed: %v", runErr)
		return runErr
	}
	ui.Success("Completed in %s", ui.FormatDuration(time.Since(start)))
	ui.Message("Video: %s", run.Artifacts[pipeline.StageRenderVideo])
	return nil
}

// stageUI returns the orchestrator hook that drives the progress bar and a
// spinner for the stage in flight. Verbose runs skip the spinner so it does
// not interleave with the debug log stream.
func stageUI(progress *ui.StageProgress) func(pipeline.StageName, pipeline.Status) {
	var active *ui.Spinner
	stop := func() {
		if active != nil {
			active.Stop()
			active = nil
		}
	}
	return func(stage pipeline.StageName, status pipeline.Status) {
		switch status {
		case pipeline.StatusRunning:
			if ui.Verbose() {
				return
			}
			active = ui.NewSpinner(string(stage))
			active.Start()
		case pipeline.StatusDone, pipeline.StatusCached:
			stop()
			progress.Step(string(stage))
		case pipeline.StatusFailed:
			stop()
		}
	}
}

func printRunSummary(run *pipeline.Run) {
	rows := make([][]string, 0, len(pipeline.StageOrder))
	for _, stage := range pipeline.StageOrder {
		artifact := run.Artifacts[stage]
		rows = append(rows, []string{
			string(stage),
			ui.StatusColor(string(run.Statuses[stage])),
			artifact,
		})
	}
	ui.Table([]string{"STAGE", "STATUS", "ARTIFACT"}, rows)
}
