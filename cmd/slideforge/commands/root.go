package commands

import (
	"github.com/spf13/cobra"

	"github.com/slideforge/slideforge/cmd/slideforge/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "slideforge",
	Short: "Slideforge - turn a document into a slide deck and narrated video",
	Long: `Slideforge reads a PDF document and derives a presentation from it:
a summarized slide deck with icons, rendered as PPTX and PDF, plus a
narrated slideshow video. Completed stages are cached on disk, so an
interrupted run resumes where it stopped.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.InitUI(noColor, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
