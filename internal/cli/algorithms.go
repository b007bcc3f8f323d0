package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/ephemeral/internal/decay"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the forgetting algorithms",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := decay.NewRegistry()
		rows := make([][]string, 0, len(reg.All()))
		for _, d := range reg.All() {
			applies := make([]string, len(d.Applies))
			for i, t := range d.Applies {
				applies[i] = string(t)
			}
			rows = append(rows, []string{d.ID, d.Name, d.Description, strings.Join(applies, ", ")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Name", "Description", "Applies to"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
		))
		return nil
	},
}
