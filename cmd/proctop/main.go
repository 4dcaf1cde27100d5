package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/nhdewitt/proctop/internal/collector"
	"github.com/nhdewitt/proctop/internal/platform"
	"github.com/nhdewitt/proctop/internal/protocol"
)

func main() {
	loadDotEnv()

	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := defaultOptions(getenv)

	cmd := &cobra.Command{
		Use:           "proctop",
		Short:         "Show per-process and system CPU, memory and uptime from /proc",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ProcRoot, "proc-root", opts.ProcRoot, "process-information tree to read")
	f.StringVar(&opts.OSReleasePath, "os-release", opts.OSReleasePath, "os-release file")
	f.StringVar(&opts.PasswdPath, "passwd", opts.PasswdPath, "password database used to resolve users")
	f.DurationVar(&opts.Interval, "interval", opts.Interval, "CPU sampling interval")
	f.DurationVar(&opts.Refresh, "refresh", opts.Refresh, "time between refreshes")
	f.IntVar(&opts.Limit, "limit", opts.Limit, "number of processes to show (0 = all)")
	f.BoolVar(&opts.Once, "once", false, "collect one tick and exit")
	f.BoolVar(&opts.JSON, "json", false, "emit JSON envelopes instead of a table")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "log parse diagnostics to stderr")

	return cmd
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(io.Discard, "proctop: ", log.LstdFlags)
	if opts.Verbose {
		logger.SetOutput(stderr)
	}

	info := platform.Detect(opts.ProcRoot)
	if !info.HasProcFS {
		return fmt.Errorf("%s does not look like a proc filesystem", opts.ProcRoot)
	}
	logger.Printf("cpus=%d kernel=%q cgroup=v%d", info.NumCPU, info.KernelVersion, info.CgroupVersion)

	cfg := opts.collectorConfig()
	cfg.Logger = logger
	host := collector.NewHost(cfg)
	host.Limit = opts.Limit

	hostname, _ := os.Hostname()
	envelopes := make(chan protocol.Envelope, 8)
	c := collector.New(hostname, envelopes).WithLogger(logger)

	var out sink = newDisplay(stdout)
	if opts.JSON {
		out = jsonSink{enc: jsonAPI.NewEncoder(stdout)}
	}

	if opts.Once {
		metrics, err := host.Collect(ctx)
		if err != nil {
			return err
		}
		tickID := uuid.NewString()
		for _, m := range metrics {
			if err := out.Write(c.Wrap(tickID, m)); err != nil {
				return err
			}
		}
		return nil
	}

	go c.Run(ctx, opts.Refresh, host.Collect)

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-envelopes:
			if err := out.Write(env); err != nil {
				return err
			}
		}
	}
}

// sink consumes envelopes as they arrive.
type sink interface {
	Write(protocol.Envelope) error
}

// jsonAPI writes one envelope per line. Envelope.MarshalJSON is honored.
var jsonAPI = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

type jsonSink struct {
	enc *jsoniter.Encoder
}

func (s jsonSink) Write(env protocol.Envelope) error {
	return s.enc.Encode(env)
}
