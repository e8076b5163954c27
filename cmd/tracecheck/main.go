// Trace-evidence validation CLI
// Validates OpenTelemetry spans from a test run against declarative expectations
package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof endpoint is opt-in via --pprof flag
	"os"

	"github.com/grafana/pyroscope-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tracecheck",
		Short:        "Validate trace evidence against a behavioral contract",
		SilenceUsage: true,
	}

	root.AddCommand(validateCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracecheck %s (commit: %s, built: %s)\n", version, commit, buildTime)
		},
	}
}

// envDefaults reads TRACECHECK_* environment variables so CI setups can
// fix the output format and history database without repeating flags.
func envDefaults() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRACECHECK")
	v.AutomaticEnv()
	v.SetDefault("format", "human")
	v.SetDefault("db", "")
	return v
}

// startProfiling starts the opt-in pprof server and pyroscope push
// profiler. The returned stop function is a no-op when neither is on.
func startProfiling(pprofAddr, pyroscopeAddr string) (func(), error) {
	if pprofAddr != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on %s\n", pprofAddr)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil { //nolint:gosec // pprof server is opt-in via flag
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if pyroscopeAddr == "" {
		return func() {}, nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "tracecheck",
		ServerAddress:   pyroscopeAddr,
		Logger:          nil,
	})
	if err != nil {
		return nil, fmt.Errorf("starting pyroscope profiler: %w", err)
	}
	return func() {
		if err := profiler.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "error stopping pyroscope profiler: %v\n", err)
		}
	}, nil
}
