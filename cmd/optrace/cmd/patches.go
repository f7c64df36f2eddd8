package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
)

var patchesCmd = &cobra.Command{
	Use:   "patches",
	Short: "Patch the reference framework, list the patches, and undo them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		fw, s, err := newReferenceSession(logger, idgen.New())
		if err != nil {
			return err
		}

		before := snapshot(fw)

		err = s.PatchAll()
		if err != nil {
			_ = s.UnpatchAll()
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("#", "Namespace", "Name", "Original")
		for i, rec := range s.Registry().Records() {
			err = table.Append(fmt.Sprint(i), rec.Namespace.Name(), rec.Name,
				fmt.Sprint(rec.Op))
			if err != nil {
				return err
			}
		}

		err = table.Render()
		if err != nil {
			return err
		}

		for _, m := range s.Registry().Missing() {
			fmt.Printf("missing: %s.%s\n", m.Namespace, m.Name)
		}

		err = s.Close()
		if err != nil {
			return err
		}

		changed := diff(before, snapshot(fw))
		if len(changed) > 0 {
			return fmt.Errorf("operators not restored: %v", changed)
		}

		fmt.Println("all operators restored")

		return nil
	},
}

func snapshot(fw *framework.Framework) map[string]framework.Callable {
	s := make(map[string]framework.Callable)
	for _, ns := range fw.Namespaces() {
		for _, name := range ns.Names() {
			c, _ := ns.GetAttr(name)
			s[ns.Name()+"."+name] = c
		}
	}

	return s
}

func diff(before, after map[string]framework.Callable) []string {
	var changed []string

	for name, c := range before {
		if after[name] != c {
			changed = append(changed, name)
		}
	}

	for name := range after {
		if _, ok := before[name]; !ok {
			changed = append(changed, name)
		}
	}

	return changed
}

func init() {
	rootCmd.AddCommand(patchesCmd)
}
