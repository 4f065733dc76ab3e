package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitask/internal/export"
)

func exportCmd(e *env) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as CSV or everything as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			now := time.Now()
			path := out
			if path == "" {
				path = filepath.Join(e.cfg.Export.Dir, export.FileName(f, now))
			}
			if err := export.Run(s, f, path, now); err != nil {
				return err
			}
			e.log.Info("exported", zap.String("format", string(f)), zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", f, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Format: csv, json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: export dir with a timestamped name)")
	return cmd
}
