package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/datarecording"
	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/monitoring"
	"github.com/sarchlab/optrace/nn"
	"github.com/sarchlab/optrace/tensor"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace a forward pass of the reference model.",
	Long: `trace patches the reference framework, runs the reference model, ` +
		`and prints the operator calls it made. The calls can also be ` +
		`stored in a SQLite database and watched from a web page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		ids := idgen.New()
		if viper.GetBool("trace.global-ids") {
			ids = idgen.NewGlobal()
		}

		fw, s, err := newReferenceSession(logger, ids)
		if err != nil {
			return err
		}

		graph := tracing.NewGraphTracer()
		tracing.CollectTrace(s, graph)

		backTrace := tracing.NewBackTraceTracer(nil)
		tracing.CollectTrace(s, backTrace)

		if viper.GetBool("verbose") {
			tracing.LogOps(s, logger)
		}

		if path := viper.GetString("trace.db"); path != "" {
			recorder := datarecording.New(path)
			defer func() { _ = recorder.Close() }()

			tracing.CollectTrace(s, tracing.NewDBTracer(recorder))
		}

		if path := viper.GetString("trace.json"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			jsonTracer := tracing.NewJSONTracer(f)
			defer func() { _ = jsonTracer.Close() }()

			tracing.CollectTrace(s, jsonTracer)
		}

		var monitor *monitoring.Monitor
		if viper.GetBool("trace.monitor") {
			monitor = monitoring.NewMonitor().
				WithLogger(logger).
				WithPortNumber(viper.GetInt("trace.port"))
			monitor.RegisterSession(s)
			monitor.RegisterGraph(graph)
		}

		err = s.PatchAll()
		if err != nil {
			_ = s.UnpatchAll()
			return err
		}
		defer func() { _ = s.Close() }()

		if monitor != nil {
			err = startMonitor(monitor, logger)
			if err != nil {
				return err
			}
			defer shutdownMonitor(monitor)
		}

		err = runPasses(fw, monitor, viper.GetInt("trace.iterations"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Operators running when the pass failed:")
			backTrace.DumpAll()

			return err
		}

		err = printGraph(graph)
		if err != nil {
			return err
		}

		if monitor != nil && viper.GetBool("trace.wait") {
			waitForInterrupt()
		}

		return nil
	},
}

func startMonitor(monitor *monitoring.Monitor, logger *zap.Logger) error {
	_, err := monitor.StartServer()
	if err != nil {
		return err
	}

	if viper.GetBool("trace.open") {
		err = monitor.OpenInBrowser()
		if err != nil {
			logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	return nil
}

func shutdownMonitor(monitor *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = monitor.Shutdown(ctx)
}

func runPasses(
	fw *framework.Framework,
	monitor *monitoring.Monitor,
	iterations int,
) error {
	if iterations < 1 {
		iterations = 1
	}

	model := &nn.DataParallel{Module: nn.NewMLP(4, 8, 3)}
	input := tensor.NewDense([]int{2, 4}, []float64{
		0.5, -1, 2, 0,
		1, 1, -0.5, 3,
	})

	var bar *monitoring.ProgressBar
	if monitor != nil {
		bar = monitor.CreateProgressBar("forward", uint64(iterations))
		defer monitor.CompleteProgressBar(bar)
	}

	for i := 0; i < iterations; i++ {
		if bar != nil {
			bar.IncrementInProgress(1)
		}

		out, err := fw.CallModule(model, input)
		if err != nil {
			return err
		}

		if i == iterations-1 {
			repr, err := fw.Repr(out)
			if err != nil {
				return err
			}

			fmt.Println(repr)
		}

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}
	}

	return nil
}

func printGraph(graph *tracing.GraphTracer) error {
	inputs := make(map[string][]string)
	for _, e := range graph.Edges() {
		inputs[e.To] = append(inputs[e.To], fmt.Sprintf("%s:%d", e.From, e.OutputIndex))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Operator", "Scope", "Inputs", "Outputs")

	for _, n := range graph.Nodes() {
		err := table.Append(n.ID, n.Name, n.Scope,
			strings.Join(inputs[n.ID], " "), fmt.Sprint(n.NumOutputs))
		if err != nil {
			return err
		}
	}

	err := table.Render()
	if err != nil {
		return err
	}

	fmt.Printf("%d nodes, %d edges, %d forwards\n",
		len(graph.Nodes()), len(graph.Edges()), len(graph.Forwards()))

	return nil
}

func waitForInterrupt() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop the monitoring server.")
	<-ctx.Done()
}

func init() {
	flags := traceCmd.Flags()
	flags.String("db", "", "store the trace in <path>.sqlite3, which must not exist")
	flags.String("json", "", "write the finished calls to this JSON file")
	flags.Bool("monitor", false, "serve the trace over HTTP")
	flags.Int("port", 0, "port of the monitoring server")
	flags.Bool("open", false, "open the monitoring page in a browser")
	flags.Bool("wait", false, "keep the monitoring server running")
	flags.Int("iterations", 1, "number of forward passes")
	flags.Bool("global-ids", false, "use globally unique operator call IDs")

	for _, key := range []string{
		"db", "json", "monitor", "port", "open", "wait",
		"iterations", "global-ids",
	} {
		err := viper.BindPFlag("trace."+key, flags.Lookup(key))
		if err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(traceCmd)
}
