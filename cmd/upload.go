package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/parser"
)

var uploadQuiet bool

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Manage spreadsheets stored on the upload service",
}

// expandFiles resolves globs and literal paths, dropping duplicates.
func expandFiles(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

var uploadAddCmd = &cobra.Command{
	Use:   "add <files...>",
	Short: "Upload CSV/TSV/XLSX files (the first sheet of a workbook is stored)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandFiles(args)
		if err != nil {
			return err
		}
		cl, err := authedClient()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !parser.Supported(path) {
				return fmt.Errorf("%w: %s", parser.ErrUnsupported, filepath.Base(path))
			}
			if !uploadQuiet {
				fmt.Fprintf(out, "[%d/%d] Uploading %s...\n", i+1, total, filepath.Base(path))
			}
			warnExtraSheets(cmd, path)
			up, err := cl.UploadFile(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
			}
			fmt.Fprintf(out, "✓ %s → %s (%d rows)\n", up.FileName, up.ID, len(up.Data))
		}
		return nil
	},
}

// warnExtraSheets notes that only the first worksheet of a workbook is kept.
func warnExtraSheets(cmd *cobra.Command, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	sheets, err := parser.SheetNames(content)
	if err != nil || len(sheets) < 2 {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s has %d sheets; only %q is uploaded.\n", filepath.Base(path), len(sheets), sheets[0])
}

var uploadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := authedClient()
		if err != nil {
			return err
		}
		ups, err := cl.ListUploads(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ups) == 0 {
			fmt.Fprintln(out, "(no uploads)")
			return nil
		}
		for _, u := range ups {
			fmt.Fprintf(out, "- %s: %s (%s)\n", u.ID, u.FileName, u.UploadDate.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var uploadRmCmd = &cobra.Command{
	Use:     "rm <id...>",
	Aliases: []string{"delete"},
	Short:   "Delete uploads",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := authedClient()
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := cl.DeleteUpload(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.AddCommand(uploadAddCmd, uploadListCmd, uploadRmCmd)
	uploadAddCmd.Flags().BoolVarP(&uploadQuiet, "quiet", "q", false, "suppress progress output")
}
