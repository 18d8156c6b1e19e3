// valkey-benchmark drives a configurable command workload against a Valkey
// server (standalone or cluster) and reports throughput and latency.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asafpamzn/valkey-benchmark-go/benchmark"
	"github.com/asafpamzn/valkey-benchmark-go/client"
	"github.com/asafpamzn/valkey-benchmark-go/logger"
)

var (
	cfgFile  string
	logLevel string
	threads  int

	cfg benchmark.Config

	sequentialKeyspace uint64
	randomKeyspace     uint64
	zipfKeyspace       uint64
	durationSec        int
	qpsChangeIntervalS int
)

var rootCmd = &cobra.Command{
	Use:   "valkey-benchmark",
	Short: "Load-generation and latency-measurement harness for Valkey",
	Long: `valkey-benchmark drives many concurrent client connections against a
Valkey server, issues a configurable command workload at a controlled rate
and reports throughput and latency statistics in real time and in a final
summary.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.valkey-benchmark.yaml)")

	rootCmd.Flags().StringVarP(&cfg.Host, "host", "H", "127.0.0.1", "Server hostname")
	rootCmd.Flags().IntVarP(&cfg.Port, "port", "p", 6379, "Server port")
	rootCmd.Flags().StringVarP(&cfg.Password, "password", "a", "", "Password for AUTH")
	rootCmd.Flags().IntVar(&cfg.DB, "db", 0, "Database number (standalone only)")

	rootCmd.Flags().IntVarP(&cfg.Clients, "clients", "c", 50, "Number of parallel connections")
	rootCmd.Flags().Uint64VarP(&cfg.Requests, "requests", "n", 100000, "Total number of requests (0 = unbounded)")
	rootCmd.Flags().IntVar(&durationSec, "test-duration", 0, "Test duration in seconds (0 = unbounded)")
	rootCmd.Flags().IntVarP(&cfg.DataSize, "data-size", "d", benchmark.DefaultDataSize, "Data size of SET values in bytes")
	rootCmd.Flags().IntVar(&threads, "threads", 0, "OS thread cap (GOMAXPROCS), 0 = runtime default")

	rootCmd.Flags().StringVarP(&cfg.Command, "type", "t", benchmark.CommandSet, "Command type: set, get, script or custom")
	rootCmd.Flags().StringVar(&cfg.CommandTemplate, "command", "", "Custom command template, e.g. \"INCR __key__\"")
	rootCmd.Flags().StringVar(&cfg.Script, "script", "", "Lua script body for -t script")

	rootCmd.Flags().Uint64Var(&sequentialKeyspace, "sequential", 0, "Use sequential keys from a keyspace of this size")
	rootCmd.Flags().Uint64VarP(&randomKeyspace, "random", "r", 0, "Use random keys from a keyspace of this size")
	rootCmd.Flags().Uint64Var(&zipfKeyspace, "zipf", 0, "Use zipf-distributed keys from a keyspace of this size")
	rootCmd.Flags().StringVar(&cfg.FixedKey, "key", "", "Use one fixed key for every request")

	rootCmd.Flags().IntVar(&cfg.QPS, "qps", 0, "Fixed queries per second across all clients (0 = unlimited)")
	rootCmd.Flags().IntVar(&cfg.StartQPS, "start-qps", 0, "Starting QPS for dynamic rate ramping")
	rootCmd.Flags().IntVar(&cfg.EndQPS, "end-qps", 0, "Ending QPS for dynamic rate ramping")
	rootCmd.Flags().IntVar(&cfg.QPSChange, "qps-change", 0, "QPS step applied at each ramp interval (may be negative)")
	rootCmd.Flags().IntVar(&qpsChangeIntervalS, "qps-change-interval", 0, "Seconds between QPS ramp steps")

	rootCmd.Flags().BoolVar(&cfg.UseTLS, "tls", false, "Connect over TLS")
	rootCmd.Flags().BoolVar(&cfg.TLSSkipVerify, "tls-skip-verify", false, "Skip TLS certificate verification")
	rootCmd.Flags().BoolVar(&cfg.Cluster, "cluster", false, "Connect in cluster mode")
	rootCmd.Flags().BoolVar(&cfg.ReadFromReplica, "read-from-replica", false, "Route reads to replicas (cluster mode)")

	rootCmd.Flags().DurationVar(&cfg.ReportingPeriod, "reporting-period", time.Second, "Period between live status lines (0 = disabled)")
	rootCmd.Flags().StringVar(&cfg.JSONOutFile, "json-out-file", "", "Write the final result as JSON to this file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".valkey-benchmark")
		}
	}
	viper.SetEnvPrefix("VALKEY_BENCHMARK")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command) error {
	log := logger.Default
	log.SetLevel(logger.ParseLevel(logLevel))

	// Config file and environment fill in connection settings the flags left
	// at their defaults.
	if !cmd.Flags().Changed("host") && viper.IsSet("host") {
		cfg.Host = viper.GetString("host")
	}
	if !cmd.Flags().Changed("port") && viper.IsSet("port") {
		cfg.Port = viper.GetInt("port")
	}
	if !cmd.Flags().Changed("password") && viper.IsSet("password") {
		cfg.Password = viper.GetString("password")
	}

	if threads > 0 {
		runtime.GOMAXPROCS(threads)
	}

	switch {
	case cfg.FixedKey != "":
		cfg.KeyMode = benchmark.KeyFixed
	case randomKeyspace > 0:
		cfg.KeyMode = benchmark.KeyRandom
		cfg.Keyspace = randomKeyspace
	case zipfKeyspace > 0:
		cfg.KeyMode = benchmark.KeyZipf
		cfg.Keyspace = zipfKeyspace
	default:
		cfg.KeyMode = benchmark.KeySequential
		if sequentialKeyspace > 0 {
			cfg.Keyspace = sequentialKeyspace
		}
	}
	cfg.Duration = time.Duration(durationSec) * time.Second
	cfg.QPSChangeInterval = time.Duration(qpsChangeIntervalS) * time.Second

	if cfg.ReadFromReplica && !cfg.Cluster {
		log.Warn("client", "read-from-replica has no effect in standalone mode")
	}

	factory := func() (client.Client, error) {
		return client.New(client.Options{
			Host:            cfg.Host,
			Port:            cfg.Port,
			Password:        cfg.Password,
			DB:              cfg.DB,
			UseTLS:          cfg.UseTLS,
			TLSSkipVerify:   cfg.TLSSkipVerify,
			Cluster:         cfg.Cluster,
			ReadFromReplica: cfg.ReadFromReplica,
		})
	}

	runner, err := benchmark.NewRunner(&cfg, factory, benchmark.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Unbounded() {
		log.Info("benchmark", "no request or duration limit configured, running until interrupted")
	}
	log.Info("benchmark", "starting: clients=%d requests=%d duration=%v type=%s target=%s",
		cfg.Clients, cfg.Requests, cfg.Duration, cfg.Command, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	benchmark.PrintSummary(os.Stdout, &cfg, res)
	if cfg.JSONOutFile != "" {
		if err := benchmark.WriteJSON(cfg.JSONOutFile, res); err != nil {
			return fmt.Errorf("write %s: %w", cfg.JSONOutFile, err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
