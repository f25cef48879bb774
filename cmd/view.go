package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/client"
	"github.com/KaramelBytes/sheetviz-cli/internal/ui"
)

var (
	viewFlagSet viewFlags
	viewOutDir  string
)

var viewCmd = &cobra.Command{
	Use:   "view <upload-id|file>",
	Short: "Explore an upload or a local spreadsheet interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, src, err := loadTable(cmd, args[0])
		var fetchErr *client.FetchError
		var loadErr error
		switch {
		case errors.As(err, &fetchErr):
			// The viewer still opens and shows the empty-data state.
			src = tableSource{Name: args[0], UploadID: args[0]}
			t, loadErr = analysis.RawTable{}, fetchErr
		case err != nil:
			return err
		}
		v := analysis.NewView(t, analysisOptions())
		if err := viewFlagSet.apply(cmd, v); err != nil {
			return err
		}
		return ui.Run(v, ui.ViewerOptions{
			Source:    src.Name,
			UploadID:  src.UploadID,
			OutDir:    viewOutDir,
			LoadError: loadErr,
		})
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewFlagSet.register(viewCmd.Flags())
	viewCmd.Flags().StringVar(&viewOutDir, "out-dir", ".", "directory for exported files")
}
