package commands

import (
	"database/sql"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slideforge/slideforge/cmd/slideforge/ui"
	"github.com/slideforge/slideforge/internal/config"
	"github.com/slideforge/slideforge/internal/ledger"
	"github.com/slideforge/slideforge/internal/observability"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent pipeline run",
	RunE:  showStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "output directory holding the run ledger")
	rootCmd.AddCommand(statusCmd)
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	outputDir := cfg.Input.OutputDir
	if statusOutput != "" {
		outputDir = statusOutput
	}

	runLedger, err := ledger.Open(filepath.Join(outputDir, "runs.db"), observability.Nop())
	if err != nil {
		return err
	}
	defer runLedger.Close()

	run, stages, err := runLedger.LatestRun()
	if errors.Is(err, sql.ErrNoRows) {
		ui.Info("No runs recorded in %s", outputDir)
		return nil
	}
	if err != nil {
		return err
	}

	ui.Message("Run %s", run.ID)
	ui.Message("Document: %s", run.Document)
	ui.Message("Status: %s", ui.StatusColor(run.Status))
	if run.FinishedAt != nil {
		ui.Message("Duration: %s", ui.FormatDuration(run.FinishedAt.Sub(run.StartedAt)))
	}

	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		detail := s.Artifact
		if s.Error != "" {
			detail = s.Error
		}
		rows = append(rows, []string{
			s.Stage,
			ui.StatusColor(s.Status),
			ui.FormatDuration(s.Elapsed),
			detail,
		})
	}
	ui.Table([]string{"STAGE", "STATUS", "ELAPSED", "DETAIL"}, rows)
	return nil
}
