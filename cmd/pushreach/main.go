package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zeusync/pushreach/internal/config"
	"github.com/zeusync/pushreach/internal/injector"
	"github.com/zeusync/pushreach/internal/rollout"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "pushreach",
		Short:         "Push-and-reach goal-conditioned environment over a physics simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	rootCmd.AddCommand(serveCmd(), rolloutCmd(), configCmd())

	// A missing .env is fine; PUSHREACH_* may come from the real environment.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one environment per websocket connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv, cleanup, err := injector.InitializeServer(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func rolloutCmd() *cobra.Command {
	var (
		episodes int
		horizon  int
		workers  int
		policy   string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Run a scripted policy and print episode diagnostics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("episodes") {
				cfg.Rollout.Episodes = episodes
			}
			if flags.Changed("horizon") {
				cfg.Rollout.Horizon = horizon
			}
			if flags.Changed("workers") {
				cfg.Rollout.Workers = workers
			}
			if flags.Changed("policy") {
				cfg.Rollout.Policy = policy
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner, cleanup, err := injector.InitializeRunner(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResult(cmd, res)
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&episodes, "episodes", "n", 0, "number of episodes")
	flags.IntVar(&horizon, "horizon", 0, "steps per episode")
	flags.IntVarP(&workers, "workers", "w", 0, "concurrent environments")
	flags.StringVarP(&policy, "policy", "p", "", "policy: reach, random or zero")
	flags.BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, res rollout.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "policy %s: %d episodes in %s, success rate %.3f\n\n",
		res.Policy, len(res.Episodes), res.Elapsed.Round(time.Millisecond), res.SuccessRate())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range res.Diagnostics {
		fmt.Fprintf(tw, "%s\t%.6f\n", s.Name, s.Value)
	}
	return tw.Flush()
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
