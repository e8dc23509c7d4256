package cmd

import (
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/measurer/internal/evalcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measurer",
		Short: "Extract product measurements from images",
		Long: `Measurer downloads product images, recognizes their text and extracts a
single "value unit" measurement (e.g. "10 pound") for a named entity such
as width, item_weight or voltage.

Settings are read from the environment and an optional .env file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("verbose", false, "Debug logging")

	cmd.AddCommand(evalcmd.NewPredictCmd())
	cmd.AddCommand(evalcmd.NewEvaluateCmd())
	cmd.AddCommand(evalcmd.NewExtractCmd())
	cmd.AddCommand(evalcmd.NewCatalogCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewDownloadImagesCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
