package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.bertha.cloud/partitio/isi/multiping"
	"gitlab.bertha.cloud/partitio/isi/multiping/internal/config"
)

type flags struct {
	cfgFile            string
	timeout            time.Duration
	retry              int
	delay              time.Duration
	ignoreLookupErrors bool
	strict             bool
	payloadSize        uint
	interval           time.Duration
	watch              bool
	verbose            bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "multiping [flags] host...",
		Short: "Ping many hosts at once",
		Long: `multiping sends ICMP echo requests to all the given hosts over a single raw
socket and reports which of them answered, and how fast.

It requires the privileges to open raw sockets (root, or CAP_NET_RAW on Linux).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			targets := append(cfg.Targets, args...)
			if len(targets) == 0 {
				return errors.New("no host given")
			}
			opts := []multiping.Option{
				multiping.WithDelay(cfg.Delay),
				multiping.WithIgnoreLookupErrors(cfg.IgnoreLookupErrors),
				multiping.WithStrictReplies(cfg.StrictReplies),
				multiping.WithPayloadSize(cfg.PayloadSize),
			}
			if f.watch {
				ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer cancel()
				return watch(ctx, targets, cfg, opts)
			}
			rs, pending, err := multiping.MultiPing(targets, cfg.Timeout, cfg.Retry, opts...)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), rs, pending)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.cfgFile, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	fl.DurationVarP(&f.timeout, "timeout", "t", time.Second, "overall time to wait for replies")
	fl.IntVarP(&f.retry, "retry", "r", 0, "number of resends to the hosts which did not answer")
	fl.DurationVar(&f.delay, "delay", 0, "delay between two echo requests")
	fl.BoolVar(&f.ignoreLookupErrors, "ignore-lookup-errors", false, "report unresolvable hosts as not answering")
	fl.BoolVar(&f.strict, "strict", false, "only accept echo replies")
	fl.UintVarP(&f.payloadSize, "size", "s", 8, "echo payload size")
	fl.DurationVarP(&f.interval, "interval", "i", time.Second, "time between two rounds in watch mode")
	fl.BoolVarP(&f.watch, "watch", "w", false, "ping the hosts every interval until interrupted")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logs")
	return cmd
}

// loadConfig reads the config file and applies the flags set on the
// command line over it.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	path := f.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	fl := cmd.Flags()
	if fl.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fl.Changed("retry") {
		cfg.Retry = f.retry
	}
	if fl.Changed("delay") {
		cfg.Delay = f.delay
	}
	if fl.Changed("ignore-lookup-errors") {
		cfg.IgnoreLookupErrors = f.ignoreLookupErrors
	}
	if fl.Changed("strict") {
		cfg.StrictReplies = f.strict
	}
	if fl.Changed("size") {
		cfg.PayloadSize = f.payloadSize
	}
	if fl.Changed("interval") {
		cfg.Interval = f.interval
	}
	return cfg, nil
}

func report(w io.Writer, rs map[string]time.Duration, pending []string) {
	addrs := make([]string, 0, len(rs))
	for a := range rs {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return rs[addrs[i]] < rs[addrs[j]] })
	for _, a := range addrs {
		fmt.Fprintf(w, "%-40s %v\n", a, rs[a])
	}
	for _, a := range pending {
		fmt.Fprintf(w, "%-40s no response\n", a)
	}
}

func watch(ctx context.Context, targets []string, cfg *config.Config, opts []multiping.Option) error {
	opts = append(opts,
		multiping.WithTimeout(cfg.Timeout),
		multiping.WithInterval(cfg.Interval),
	)
	p, err := multiping.NewPinger(ctx, targets, opts...)
	if err != nil {
		return err
	}
	defer p.Close()
	go p.Run()

	t := time.NewTicker(cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			sts := p.Statistics()
			keys := make([]string, 0, len(sts))
			for k := range sts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				logrus.WithFields(sts[k].Fields()).Info()
			}
		case <-ctx.Done():
			return nil
		}
	}
}
