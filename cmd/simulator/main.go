package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	config := &SimulatorConfig{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Drive concurrent conversations against the concierge webhook",
		Long: "simulator plays many users talking to /webhook at once and reports\n" +
			"latency percentiles and how the replies were distributed across intents.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Users <= 0 || config.Turns <= 0 || config.Concurrency <= 0 {
				return fmt.Errorf("users, turns and concurrency must be positive")
			}

			var logger *zap.Logger
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("Simulation started",
				zap.String("server", config.ServerURL),
				zap.Int("users", config.Users),
				zap.Int("turns", config.Turns),
				zap.Int("concurrency", config.Concurrency),
			)

			report, err := NewSimulator(config, logger).Run(ctx)
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&config.ServerURL, "server", "http://localhost:5000", "webhook base URL")
	flags.IntVarP(&config.Users, "users", "u", 50, "number of simulated users")
	flags.IntVarP(&config.Turns, "turns", "t", 20, "turns per user")
	flags.IntVarP(&config.Concurrency, "concurrency", "c", 10, "users talking at the same time")
	flags.StringVarP(&config.Language, "language", "l", "", "language selected for every user before the first turn")
	flags.DurationVar(&config.Timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.Int64Var(&config.Seed, "seed", time.Now().UnixNano(), "utterance selection seed")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

// runContext lets tests drive the command without signals.
func runContext(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func printReport(w io.Writer, r *Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "\nTurns:      %d (%d failed)\n", r.Turns, r.Failures)
	fmt.Fprintf(w, "Elapsed:    %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Throughput: %.1f turns/s\n", r.Throughput())
	fmt.Fprintf(w, "Latency:    p50=%s p95=%s p99=%s\n",
		r.Percentile(50).Round(time.Microsecond),
		r.Percentile(95).Round(time.Microsecond),
		r.Percentile(99).Round(time.Microsecond),
	)

	keys := make([]string, 0, len(r.Responses))
	for k := range r.Responses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if r.Responses[keys[i]] != r.Responses[keys[j]] {
			return r.Responses[keys[i]] > r.Responses[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintln(w, "Responses:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %d\n", k, r.Responses[k])
	}
}
