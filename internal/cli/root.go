package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/temic137/formforge/internal/config"
	"github.com/temic137/formforge/internal/executor"
	"github.com/temic137/formforge/internal/gateway"
	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/llm/anthropic"
	"github.com/temic137/formforge/internal/llm/google"
	"github.com/temic137/formforge/internal/llm/ollama"
	"github.com/temic137/formforge/internal/llm/openai"
	"github.com/temic137/formforge/internal/llm/perplexity"
	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/pipeline"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/stats"
)

var (
	cfgFile     string
	cfg         *config.Config
	llmRegistry *llm.Registry
	modelRouter *router.Router
	recorder    stats.Recorder
	exec        *executor.Executor
	pipe        *pipeline.Pipeline
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "formforge",
	Short: "LLM-powered form and quiz schema generator",
	Long: `Formforge turns free-form content into structured form, quiz and survey
schemas using a two-stage LLM pipeline with purpose-based model routing
and ordered provider fallback.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip init for the init command itself
		if cmd.Name() == "init" {
			return nil
		}

		// Load configuration
		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		if !config.Exists(cfgFile) {
			return fmt.Errorf("configuration file not found. Run 'formforge init' to create one")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.LogLevel != "" {
			logger.SetLevel(logger.ParseLogLevel(cfg.LogLevel))
		}

		// Register enabled providers
		llmRegistry = llm.NewRegistry()
		var gwProviders []gateway.ProviderConfig
		for _, pc := range cfg.Providers {
			if !pc.Enabled {
				continue
			}

			var provider llm.Provider
			switch pc.Name {
			case "openai":
				provider = openai.New(pc.APIKey(), pc.BaseURL)
			case "anthropic":
				provider = anthropic.New(pc.APIKey(), pc.BaseURL)
			case "google":
				provider = google.New(pc.APIKey())
			case "perplexity":
				provider = perplexity.New(pc.APIKey())
			case "ollama":
				provider = ollama.New(pc.BaseURL)
			default:
				return fmt.Errorf("unsupported provider: %s", pc.Name)
			}

			llmRegistry.Register(provider)
			gwProviders = append(gwProviders, gateway.ProviderConfig{
				Name:    pc.Name,
				Model:   pc.DefaultModel,
				MaxRPM:  pc.MaxRPM,
				Enabled: true,
			})
		}

		gw := gateway.New(llmRegistry, gwProviders)

		modelRouter, err = router.New(cfg.Models, cfg.Routes)
		if err != nil {
			return fmt.Errorf("invalid routing config: %w", err)
		}

		recorder = stats.Noop{}
		if cfg.Stats.Enabled {
			r, err := stats.NewSQLite(cfg.Stats.Path)
			if err != nil {
				logger.Warning("Stats disabled, failed to open %s: %v", cfg.Stats.Path, err)
			} else {
				recorder = r
			}
		}

		timeout := time.Duration(cfg.Pipeline.AttemptTimeoutSeconds) * time.Second
		exec = executor.New(gw, modelRouter, recorder, timeout)
		pipe = pipeline.New(exec)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if recorder != nil {
			return recorder.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.formforge/config.yaml)")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(routesCmd)
}

func generateOptions() models.GenerateOptions {
	return models.GenerateOptions{
		SkipFieldOptimization:   cfg.Pipeline.SkipFieldOptimization,
		SkipQuestionEnhancement: cfg.Pipeline.SkipQuestionEnhancement,
		ParallelOptimization:    cfg.Pipeline.ParallelOptimization,
	}
}
