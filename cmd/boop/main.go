package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsaristov/boop-final-prototype/internal/config"
	"github.com/tsaristov/boop-final-prototype/internal/forge"
	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/intent"
	"github.com/tsaristov/boop-final-prototype/internal/library"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/memory"
	"github.com/tsaristov/boop-final-prototype/internal/persona"
	"github.com/tsaristov/boop-final-prototype/internal/runner"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "boop",
	Short: "boop - a personality-driven assistant that builds its own tools",
	Long: `boop is a chat assistant with a tool forge: ask it to do something it
cannot do yet and it writes, tests, and debugs a tool for the job, then
keeps that tool in a shared library for next time.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("failed to initialize file logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	// Assigned outside the composite literal to avoid an initialization
	// cycle: runChat refers back to rootCmd.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default <workspace>/.boop/config.yaml)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(telegramCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired subsystems behind every command.
type app struct {
	cfg        *config.Config
	llm        gateway.Client
	fast       gateway.Client
	store      *tool.Store
	pipeline   *forge.Pipeline
	runner     *runner.Runner
	installer  *library.Installer
	cache      *intent.ListCache
	memory     *memory.Store
	condenser  *memory.Condenser
	dispatcher *intent.Dispatcher
}

// buildApp loads configuration and wires every subsystem. The memory
// store and library are optional: a missing database path or library repo
// leaves those features off.
func buildApp(cmd *cobra.Command) (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath(workspace)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := gateway.NewClient(cmd.Context(), cfg.LLM, cfg.GetLLMTimeout())
	if err != nil {
		return nil, err
	}
	fast := gateway.FastClient(llm, cfg.LLM)

	store := tool.NewStore(cfg.Forge.ToolsDir)
	pipeline := forge.NewPipeline(llm, store, cfg.Forge.MaxFixAttempts, cfg.GetExecTimeout())
	run := runner.New(llm, store, cfg.GetExecTimeout())
	cache := intent.NewListCache(store, intent.DefaultCacheTTL)

	a := &app{
		cfg:      cfg,
		llm:      llm,
		fast:     fast,
		store:    store,
		pipeline: pipeline,
		runner:   run,
		cache:    cache,
	}

	if cfg.Library.Repo != "" {
		gh := library.NewGitHubClient(cfg.Library)
		a.installer = library.NewInstaller(gh, store, fast)
	}

	if cfg.Memory.DatabasePath != "" {
		mem, err := memory.Open(cfg.Memory.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.memory = mem
		a.condenser = memory.NewCondenser(mem, fast, cfg.Memory)
		run.WithRecorder(mem)
	}

	personaModel := cfg.Persona.Model
	responder := persona.New(personaClient(llm, personaModel), cfg.Persona.PromptPath)

	a.dispatcher = intent.NewDispatcher(
		fast, pipeline, run, a.installer, cache, a.memory, a.condenser, responder)
	return a, nil
}

func personaClient(llm gateway.Client, model string) gateway.Client {
	if model == "" {
		return llm
	}
	if sel, ok := llm.(gateway.ModelSelector); ok {
		return sel.WithModel(model)
	}
	return llm
}

func (a *app) close() {
	a.cache.Close()
	if a.condenser != nil {
		a.condenser.Stop()
	}
	if a.memory != nil {
		a.memory.Close()
	}
}
