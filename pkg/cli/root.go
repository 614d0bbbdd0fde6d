// Package cli wires configuration, the store, the model client, and the
// orchestrator into the storycraft command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/storycraft/storycraft/pkg/config"
	"github.com/storycraft/storycraft/pkg/llm"
	"github.com/storycraft/storycraft/pkg/memory"
	"github.com/storycraft/storycraft/pkg/observability"
	"github.com/storycraft/storycraft/pkg/orchestrator"
	"github.com/storycraft/storycraft/pkg/retry"
	"github.com/storycraft/storycraft/pkg/runner"
)

type app struct {
	cfgPath   string
	storePath string
	mock      bool

	cfg     config.Config
	logger  *zap.Logger
	store   memory.Store
	orch    *orchestrator.Orchestrator
	metrics *observability.PipelineMetrics
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "storycraft",
		Short:         "storycraft turns a one-line idea into an illustrated story document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "storycraft.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "override the SQLite store path (':memory:' keeps everything in-process)")
	root.PersistentFlags().BoolVar(&a.mock, "mock", false, "use the offline canned model instead of a provider")

	root.AddCommand(newRunCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newRunsCommand(a))
	return root
}

// setup builds the shared dependencies. Called by each subcommand's RunE so
// flags are parsed first.
func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	path := cfg.Store.Path
	if a.storePath != "" {
		path = a.storePath
	}
	if path == ":memory:" {
		a.store = memory.NewMemStore()
	} else {
		store, err := memory.NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.store = store
	}

	client, err := a.buildClient()
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Std(),
		MaxDelay:    cfg.Retry.MaxDelay.Std(),
	}
	a.metrics = observability.NewPipelineMetrics(observability.NewMetricsRegistry())

	r := runner.New(client, a.store, policy, a.logger)
	a.orch = orchestrator.New(r, a.store, a.logger)
	a.orch.WithMetrics(a.metrics)
	return nil
}

func (a *app) buildClient() (llm.Client, error) {
	if a.mock {
		return llm.CannedClient{}, nil
	}
	return llm.NewOpenAIClient(llm.Settings{
		Model:   a.cfg.LLM.Model,
		APIKey:  a.cfg.LLM.APIKey,
		BaseURL: a.cfg.LLM.BaseURL,
	})
}

func (a *app) teardown() {
	if a.store != nil {
		a.store.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
