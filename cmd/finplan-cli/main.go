package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"finplan/internal/backend"
	"finplan/internal/config"
	applog "finplan/internal/log"
	"finplan/internal/scenario"
	"finplan/internal/services"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	scenarioFile string
	jsonOutput   bool
	year         int
)

var rootCmd = &cobra.Command{
	Use:           "finplan-cli",
	Short:         "Project P&L and cash runway from the stored plan",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (YAML)")
	flags.StringVarP(&scenarioFile, "scenario", "s", "", "Scenario file applied over a copy of the plan")
	flags.BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")
	flags.IntVarP(&year, "year", "y", 0, "Plan year (default from PROJECTION_YEAR or the scenario)")
	flags.String("backend", "", "Record store: memory, file, sqlite or postgres")
	flags.String("data-dir", "", "Directory of the file backend")
	flags.String("sqlite-path", "", "Database path of the sqlite backend")
	flags.String("database-url", "", "Connection URL of the postgres backend")
	flags.String("log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(plCmd, runwayCmd, baselineCmd, dealCmd, breakdownCmd)
}

// flagKeys maps persistent flags to the environment keys they override.
var flagKeys = map[string]string{
	"backend":      "data_backend",
	"data-dir":     "data_dir",
	"sqlite-path":  "sqlite_db_path",
	"database-url": "database_url",
	"log-level":    "log_level",
	"year":         "projection_year",
}

// loadConfig layers the config file and flags over the environment config.
func loadConfig(path string, flags *pflag.FlagSet) (*config.Config, error) {
	// config.Load reads the environment; viper only carries the file and flags.
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for flag, key := range flagKeys {
		f := flags.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}

	cfg := config.Load()
	if v.IsSet("data_backend") {
		cfg.DataBackend = v.GetString("data_backend")
	}
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("sqlite_db_path") {
		cfg.SQLiteDBPath = v.GetString("sqlite_db_path")
	}
	if v.IsSet("database_url") {
		cfg.DatabaseURL = v.GetString("database_url")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("projection_year") {
		cfg.ProjectionYear = v.GetInt("projection_year")
	}
	// The CLI never publishes change events.
	cfg.AMQPURL = ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *applog.Logger {
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "finplan-cli",
		Level:           charmlog.WarnLevel,
	})
	if lvl, err := charmlog.ParseLevel(level); err == nil {
		handler.SetLevel(lvl)
	}
	return applog.New(applog.Config{Handler: handler, Component: applog.ComponentCLI})
}

// session is the planning service a command runs against.
type session struct {
	planner *services.PlanningService
	year    int
	close   func() error
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	s := &session{year: cfg.ProjectionYear, close: result.Cleanup}

	records := result.Store
	var sc *scenario.Scenario
	if scenarioFile != "" {
		if sc, err = scenario.Load(scenarioFile); err != nil {
			_ = s.close()
			return nil, err
		}
		fork, err := scenario.Fork(ctx, records)
		if err != nil {
			_ = s.close()
			return nil, fmt.Errorf("copy plan for scenario: %w", err)
		}
		records = fork
	}

	s.planner = services.NewPlanningService(records,
		services.WithLogger(logger.WithComponent(applog.ComponentPlanning).Logger))
	if sc != nil {
		if err := sc.ApplyTo(ctx, s.planner); err != nil {
			_ = s.close()
			return nil, err
		}
		if sc.Year != 0 && !cmd.Flags().Changed("year") {
			s.year = sc.Year
		}
		logger.Info("Applied scenario", "name", sc.Name, "file", scenarioFile)
	}
	return s, nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
