package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/services"
	"github.com/terraincognita07/rehab360/internal/store"
)

const (
	exportFormatCSV  = "csv"
	exportFormatJSON = "json"
)

var errExportFormat = errors.New("export format must be csv or json")

func newExportCommand(rt *runtime) *cobra.Command {
	var format, from, to, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write entries as CSV or JSON, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != exportFormatCSV && format != exportFormatJSON {
				return errExportFormat
			}
			exportRange, err := services.ParseExportRange(from, to)
			if err != nil {
				return err
			}

			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				records := services.SelectExportLogs(journal.Snapshot(), exportRange)

				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
					if err != nil {
						return fmt.Errorf("open export file: %w", err)
					}
					defer file.Close()
					w = file
				}

				if err := writeExport(w, format, records); err != nil {
					return err
				}
				if output != "" {
					summary := services.BuildExportSummary(records)
					message := fmt.Sprintf("Exported %d entries to %s", summary.TotalEntries, output)
					if summary.HasData {
						message += fmt.Sprintf(" (%s to %s)", summary.DateFrom, summary.DateTo)
					}
					fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess(message))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", exportFormatCSV, "csv or json")
	cmd.Flags().StringVar(&from, "from", "", "first log date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last log date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func writeExport(w io.Writer, format string, records []models.DailyLog) error {
	if format == exportFormatCSV {
		return services.WriteExportCSV(w, records)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(services.BuildExportJSONEntries(records)); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}
