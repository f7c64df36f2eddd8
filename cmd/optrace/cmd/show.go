package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarchlab/optrace/datarecording"
	"github.com/sarchlab/optrace/instrumentation/tracing"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a trace stored by trace --db.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("show.db")
		if path == "" {
			return errors.New("--db is required")
		}

		dataReader, err := datarecording.NewReader(path)
		if err != nil {
			return err
		}
		defer func() { _ = dataReader.Close() }()

		reader := tracing.NewTraceReader(dataReader)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		err = showOps(ctx, reader, tracing.OpQuery{
			ScopePrefix: viper.GetString("show.scope"),
			FailedOnly:  viper.GetBool("show.failed"),
			Limit:       viper.GetInt("show.limit"),
		})
		if err != nil {
			return err
		}

		if viper.GetBool("show.edges") {
			err = showEdges(ctx, reader)
			if err != nil {
				return err
			}
		}

		return showForwards(ctx, reader)
	},
}

func showOps(
	ctx context.Context,
	reader *tracing.TraceReader,
	query tracing.OpQuery,
) error {
	ops, total, err := reader.ListOps(ctx, query)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Seq", "ID", "Operator", "Scope", "In", "Out", "Failed")

	for _, op := range ops {
		err = table.Append(op.Seq, op.ID, op.Name, op.Scope,
			op.NumInputs, op.NumOutputs, op.Failed)
		if err != nil {
			return err
		}
	}

	err = table.Render()
	if err != nil {
		return err
	}

	fmt.Printf("%d of %d operator calls\n", len(ops), total)

	return nil
}

func showEdges(ctx context.Context, reader *tracing.TraceReader) error {
	edges, err := reader.ListEdges(ctx, "")
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Producer", "Output", "Consumer", "Position")

	for _, e := range edges {
		err = table.Append(e.Producer, e.OutputIndex, e.Consumer, e.InputPosition)
		if err != nil {
			return err
		}
	}

	return table.Render()
}

func showForwards(ctx context.Context, reader *tracing.TraceReader) error {
	forwards, err := reader.ListForwards(ctx)
	if err != nil {
		return err
	}

	if len(forwards) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Seq", "Operator", "Scope", "Forwarded")

	for _, f := range forwards {
		err = table.Append(f.Seq, f.Name, f.Scope, f.Forwarded)
		if err != nil {
			return err
		}
	}

	return table.Render()
}

func init() {
	flags := showCmd.Flags()
	flags.String("db", "", "trace database written by trace --db")
	flags.String("scope", "", "only show calls under this scope prefix")
	flags.Bool("failed", false, "only show calls that returned an error")
	flags.Int("limit", 0, "show at most this many calls")
	flags.Bool("edges", false, "also print the data flow edges")

	for _, key := range []string{"db", "scope", "failed", "limit", "edges"} {
		err := viper.BindPFlag("show."+key, flags.Lookup(key))
		if err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(showCmd)
}
