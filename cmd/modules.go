package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// modulesCmd represents the modules command.
var modulesCmd = newModulesCmd()

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List available modules",
		Long:  "Lists the available modules with their aliases and whether they are enabled by configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			catalog, err := detectorCatalog(m.Path(dir))
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Module", "Aliases", "Enabled", "Description"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)

			for _, entry := range catalog {
				table.Append([]string{
					entry.detector.Name(),
					strings.Join(domain.AliasesOf(entry.detector), ", "),
					strconv.FormatBool(entry.enabled),
					entry.description,
				})
			}

			table.Render()

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
