package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"auxmark.dev/pkg/auxmark/internal/controller"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [report]",
		Short: "View a previously saved run report",
		Long:  "View a run report written with --report. Defaults to the configured report path.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString(reportPathKey)
			if len(args) == 1 {
				path = args[0]
			}

			if path == "" {
				return errors.New("no report path given and report.path is not configured")
			}

			report, err := reportStore.LoadReport(m.Path(path))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n\n", report.RunID)

			if len(report.Files) > 0 {
				table := tablewriter.NewWriter(out)
				table.SetHeader([]string{"File", "State", "Renamed to", "Jobs", "Failed", "Error"})
				table.SetBorder(false)
				table.SetAutoWrapText(false)

				for _, file := range report.Files {
					table.Append([]string{
						file.Path,
						file.State,
						file.RenamedTo,
						strconv.Itoa(file.JobsRun),
						strconv.Itoa(file.JobsFailed),
						file.Error,
					})
				}

				table.Render()
				fmt.Fprintln(out)
			}

			fmt.Fprint(out, controller.RenderSummaryTable(m.Summary{
				RunID:        report.RunID,
				DryRun:       report.DryRun,
				FilesScanned: report.FilesScanned,
				FilesChanged: report.FilesChanged,
				FilesRenamed: report.FilesRenamed,
				FilesFailed:  report.FilesFailed,
				JobsRun:      report.JobsRun,
				JobsFailed:   report.JobsFailed,
			}))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
