package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/spektr-org/vitasicura/config"
	"github.com/spektr-org/vitasicura/dataset"
	"github.com/spektr-org/vitasicura/logging"
)

// ============================================================================
// VITA SICURA CLI — insurance BI dashboard
// ============================================================================

const version = "0.3.0"

// app carries what every subcommand needs once the root has set up.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	loader *dataset.Loader
	flush  func()
}

var (
	configPath string
	dataDir    string
	state      app
)

var rootCmd = &cobra.Command{
	Use:   "vitasicura",
	Short: "Vita Sicura — insurance analytics dashboard",
	Long: `Vita Sicura reads the four analytics CSVs (clients, next best action,
pricing, territory) and serves them as an interactive dashboard with an
AI advisor for the sales network.

Environment:
  OPENROUTER_API_KEY    Enables briefings and the client copilot`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if state.flush != nil {
			state.flush()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to YAML config (default "+config.DefaultPath+" when present)")
	pf.StringVar(&dataDir, "data", "", "Directory holding the analytics CSVs (overrides config)")

	rootCmd.AddCommand(serveCmd, tuiCmd, kpiCmd, validateCmd, briefCmd, exportCmd, configCmd)
}

// setup loads config, logging and the dataset loader.
func setup(cmd *cobra.Command, _ []string) error {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}

	log, flush := logging.Setup(cfg.Logging.Level, cfg.Logging.SeqURL, os.Stderr)
	slog.SetDefault(log)

	state = app{
		cfg:    cfg,
		log:    log,
		loader: dataset.NewLoader(cfg.Data.Dir, dataset.WithLogger(log)),
		flush:  flush,
	}
	log.Debug("configuration loaded", "command", cmd.Name(), "data", cfg.Data.Dir)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if state.flush != nil {
			state.flush()
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", eris.ToString(err, false))
		os.Exit(1)
	}
}
