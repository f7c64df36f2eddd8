package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sarchlab/optrace/patching"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the operators that are patched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadMetatypes()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Metatype", "Namespace", "Functions", "Trace")

		for _, m := range list {
			rows := []struct {
				ns   string
				spec *patching.PatchSpec
			}{
				{"functional", m.FunctionalPatchSpec},
				{"torch", m.ModulePatchSpec},
				{"Tensor", m.TensorPatchSpec},
			}

			for _, r := range rows {
				if r.spec == nil {
					continue
				}

				err := table.Append(m.Name, r.ns,
					strings.Join(r.spec.FunctionNames, ", "),
					traceName(r.spec.CustomTrace))
				if err != nil {
					return err
				}
			}
		}

		return table.Render()
	},
}

func traceName(fn patching.TraceFunction) string {
	switch fn.(type) {
	case nil:
		return "node"
	case patching.ForwardTraceOnly:
		return "forward only"
	default:
		return fmt.Sprintf("%T", fn)
	}
}

func init() {
	rootCmd.AddCommand(opsCmd)
}
