package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/coherence"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/trace"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/workload"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/monitoring"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/report"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/simulation"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/tracing"
)

const (
	envPrefix  = "MESISIM_"
	domainFreq = 1 * sim.GHz
)

type config struct {
	tracePrefix       string
	indexBits         int
	associativity     int
	blockBits         int
	output            string
	cores             int
	maxCycles         uint64
	memoryLatency     int
	writeBackLatency  int
	invalidateLatency int
	db                string
	traceBus          bool
	logBus            bool
	dumpTags          bool
	checkInvariants   bool
	logEvents         bool
	monitor           bool
	monitorPort       int
	openBrowser       bool
}

func newRunCmd() *cobra.Command {
	cfg := &config{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a trace set through the simulated caches.",
		Long: "`run -t app` reads app_proc0.trace to app_proc<N-1>.trace, " +
			"one per core, and prints the statistics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}

			if err := cfg.validate(); err != nil {
				return err
			}

			return run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := runCmd.Flags()
	flags.StringVarP(&cfg.tracePrefix, "trace", "t", "",
		"prefix of the per-core trace files")
	flags.IntVarP(&cfg.indexBits, "index-bits", "s", 6,
		"number of set index bits")
	flags.IntVarP(&cfg.associativity, "assoc", "E", 2,
		"number of ways per set")
	flags.IntVarP(&cfg.blockBits, "block-bits", "b", 5,
		"number of block offset bits")
	flags.StringVarP(&cfg.output, "output", "o", "",
		"file to write the report to, stdout if empty")
	flags.IntVar(&cfg.cores, "cores", 4, "number of cores")
	flags.Uint64Var(&cfg.maxCycles, "max-cycles", 100_000_000,
		"stop after this many cycles, 0 for no limit")
	flags.IntVar(&cfg.memoryLatency, "memory-latency", 100,
		"cycles to fetch a line from memory")
	flags.IntVar(&cfg.writeBackLatency, "writeback-latency", 100,
		"cycles to write a line back to memory")
	flags.IntVar(&cfg.invalidateLatency, "invalidate-latency", 2,
		"cycles of an invalidate broadcast")
	flags.StringVar(&cfg.db, "db", "",
		"record statistics into this SQLite file or clickhouse:// DSN")
	flags.BoolVar(&cfg.traceBus, "trace-bus", false,
		"record every bus transaction into the database")
	flags.BoolVar(&cfg.logBus, "log-bus", false,
		"print every bus transaction and snoop to stderr")
	flags.BoolVar(&cfg.dumpTags, "dump-tags", false,
		"print the tag array of every core after the report")
	flags.BoolVar(&cfg.checkInvariants, "check-invariants", false,
		"check the coherence invariants after every cycle")
	flags.BoolVar(&cfg.logEvents, "log-events", false,
		"print every engine event to stderr")
	flags.BoolVar(&cfg.monitor, "monitor", false,
		"serve the monitoring page while running")
	flags.IntVar(&cfg.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if 0")
	flags.BoolVar(&cfg.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")

	return runCmd
}

// applyEnv fills the flags that are not given on the command line from
// MESISIM_* variables, so that --index-bits reads MESISIM_INDEX_BITS.
func applyEnv(flags *pflag.FlagSet) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		name := envPrefix +
			strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}

		if err := flags.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})

	return errors.Join(errs...)
}

func (c *config) validate() error {
	switch {
	case c.tracePrefix == "":
		return errors.New("a trace prefix is required (--trace)")
	case c.cores < 1:
		return fmt.Errorf("need at least one core, got %d", c.cores)
	case c.indexBits < 0 || c.blockBits < 0:
		return fmt.Errorf("index bits (%d) and block bits (%d) "+
			"must not be negative", c.indexBits, c.blockBits)
	case c.indexBits+c.blockBits > 32:
		return fmt.Errorf("index bits (%d) and block bits (%d) "+
			"do not fit a 32-bit address", c.indexBits, c.blockBits)
	case c.associativity < 1:
		return fmt.Errorf("associativity must be at least 1, got %d",
			c.associativity)
	case c.memoryLatency < 1 || c.writeBackLatency < 1 ||
		c.invalidateLatency < 1:
		return errors.New("latencies must be at least one cycle")
	case !c.monitor && (c.monitorPort != 0 || c.openBrowser):
		return errors.New("--monitor-port and --open-browser need --monitor")
	}

	return nil
}

func run(cfg *config, stdout, stderr io.Writer) error {
	traces, err := workload.LoadApp(cfg.tracePrefix, cfg.cores)
	if err != nil {
		return err
	}

	s, err := buildSimulation(cfg)
	if err != nil {
		return err
	}

	engine := s.GetEngine()
	if cfg.logEvents {
		engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0), domainFreq))
	}

	domain := buildDomain(cfg, engine, traces)
	registerComponents(s, domain)

	busTracer := tracing.NewBusyTimeTracer(engine,
		tracing.KindIs("bus_transaction"))
	tracing.CollectTrace(domain.Bus(), busTracer)

	snoopTracer := tracing.NewStepCountTracer(nil)
	for i := 0; i < domain.NumCores(); i++ {
		tracing.CollectTrace(domain.Bank(i), snoopTracer)
	}

	if cfg.traceBus {
		attachTracer(domain, trace.NewDBTracer(s.GetDataRecorder(), engine))
	}

	if cfg.logBus {
		attachTracer(domain, trace.NewTracer(log.New(stderr, "", 0), engine))
	}

	var bar *monitoring.ProgressBar
	if m := s.GetMonitor(); m != nil {
		bar = watchProgress(m, domain)

		if cfg.openBrowser {
			if err := m.OpenBrowser(); err != nil {
				log.Printf("cannot open browser: %v", err)
			}
		}
	}

	domain.Start()

	if err := engine.Run(); err != nil {
		return err
	}

	if bar != nil {
		s.GetMonitor().CompleteProgressBar(bar)
	}

	result := domain.Result()

	if err := writeReport(cfg, stdout, result, busTracer, snoopTracer); err != nil {
		return err
	}

	if cfg.dumpTags {
		if err := dumpTags(stdout, domain); err != nil {
			return err
		}
	}

	if recorder := s.GetDataRecorder(); recorder != nil {
		report.Record(recorder, result)
	}

	if err := s.Terminate(); err != nil {
		return err
	}

	return result.Err
}

func buildSimulation(cfg *config) (*simulation.Simulation, error) {
	builder := simulation.MakeBuilder()

	if cfg.monitor {
		builder = builder.WithMonitorPort(cfg.monitorPort)
	} else {
		builder = builder.WithoutMonitoring()
	}

	switch {
	case cfg.db != "":
		builder = builder.WithOutputFileName(cfg.db)
	case cfg.traceBus:
		builder = builder.WithDataRecording()
	}

	return builder.Build()
}

func buildDomain(
	cfg *config,
	engine sim.Engine,
	traces [][]workload.Access,
) *coherence.Domain {
	builder := coherence.MakeBuilder().
		WithEngine(engine).
		WithFreq(domainFreq).
		WithIndexBits(cfg.indexBits).
		WithAssociativity(cfg.associativity).
		WithBlockBits(cfg.blockBits).
		WithMemoryLatency(cfg.memoryLatency).
		WithWriteBackLatency(cfg.writeBackLatency).
		WithInvalidateLatency(cfg.invalidateLatency).
		WithMaxCycles(cfg.maxCycles).
		WithTraces(traces)

	if cfg.checkInvariants {
		builder = builder.WithInvariantCheck()
	}

	return builder.Build("Domain")
}

func registerComponents(s *simulation.Simulation, domain *coherence.Domain) {
	s.RegisterComponent(domain)
	s.RegisterComponent(domain.Bus())

	for i := 0; i < domain.NumCores(); i++ {
		s.RegisterComponent(domain.Bank(i))
	}
}

func attachTracer(domain *coherence.Domain, tracer tracing.Tracer) {
	tracing.CollectTrace(domain.Bus(), tracer)

	for i := 0; i < domain.NumCores(); i++ {
		tracing.CollectTrace(domain.Bank(i), tracer)
	}
}

func watchProgress(
	m *monitoring.Monitor,
	domain *coherence.Domain,
) *monitoring.ProgressBar {
	_, total := domain.Retired()
	bar := m.CreateProgressBar("Retired accesses", uint64(total))

	domain.AcceptHook(&progressHook{domain: domain, bar: bar})

	return bar
}

func writeReport(
	cfg *config,
	stdout io.Writer,
	result coherence.Result,
	busTracer *tracing.BusyTimeTracer,
	snoopTracer *tracing.StepCountTracer,
) error {
	if cfg.output == "" {
		return writeSummary(stdout, result, busTracer, snoopTracer)
	}

	f, err := os.Create(cfg.output)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	err = writeSummary(f, result, busTracer, snoopTracer)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close report: %w", closeErr)
	}

	return err
}

func writeSummary(
	w io.Writer,
	result coherence.Result,
	busTracer *tracing.BusyTimeTracer,
	snoopTracer *tracing.StepCountTracer,
) error {
	if err := report.WriteText(w, result); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "  Bus Busy Time (s): %.9f\n",
		busTracer.BusyTime()); err != nil {
		return err
	}

	for _, name := range snoopTracer.GetStepNames() {
		_, err := fmt.Fprintf(w, "  Snoop %s: %d\n",
			name, snoopTracer.GetStepCount(name))
		if err != nil {
			return err
		}
	}

	return nil
}

func dumpTags(w io.Writer, domain *coherence.Domain) error {
	for i := 0; i < domain.NumCores(); i++ {
		if _, err := fmt.Fprintf(w, "\nCore %d Tag Array:\n", i); err != nil {
			return err
		}

		if err := domain.Bank(i).DumpTags(w); err != nil {
			return err
		}
	}

	return nil
}
