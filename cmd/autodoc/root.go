package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SamanBarahoie/AutoDocGPT/agentloop"
	"github.com/SamanBarahoie/AutoDocGPT/config"
	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

var rootCmd = &cobra.Command{
	Use:   "autodoc [goal]",
	Short: "Autonomous documentation agent",
	Long: `autodoc runs an LLM-driven agent against a project directory. The agent
explores the project with read-only and write tools, pursuing the given
documentation goal until it terminates or the iteration limit is reached.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", "", "path to a YAML settings file")
	flags.String("dir", ".", "project directory to document")
	flags.String("model", "", "model identifier (overrides config)")
	flags.String("provider", "", "backend provider (overrides config)")
	flags.Int("max-iterations", 0, "iteration cap (overrides config)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	settingsPath, _ := flags.GetString("config")

	cfg, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	if model, _ := flags.GetString("model"); model != "" {
		cfg.Model = model
	}
	if provider, _ := flags.GetString("provider"); provider != "" {
		cfg.Provider = provider
	}
	if n, _ := flags.GetInt("max-iterations"); n > 0 {
		cfg.MaxIterations = n
	}

	level := parseLevel(cfg.LogLevel)
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	dir, _ := flags.GetString("dir")
	ws, err := agentloop.NewWorkspace(dir)
	if err != nil {
		return err
	}

	registry := agentloop.NewRegistry()
	if err := agentloop.RegisterFileTools(registry, ws); err != nil {
		return err
	}
	if err := agentloop.RegisterSystemTools(registry, ws); err != nil {
		return err
	}

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}

	agentCfg := agentloop.DefaultConfig()
	agentCfg.Model = cfg.Model
	agentCfg.Provider = cfg.Provider
	agentCfg.MaxIterations = cfg.MaxIterations
	agentCfg.MaxTokens = cfg.MaxTokens
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		agentCfg.Temperature = &t
	}

	agent := agentloop.NewAgent(client, registry, ws, agentCfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drainEvents(agent.Events(), logger)
	}()

	goal := strings.Join(args, " ")
	logger.Info("starting agent", "goal", goal, "model", cfg.Model, "project", ws.Root())

	result, runErr := agent.Run(ctx, goal)
	wg.Wait()

	if result != nil && result.State == agentloop.StateAborted {
		if runErr != nil {
			return runErr
		}
		return errors.New(result.Message)
	}

	logger.Info("agent finished",
		"iterations", result.Iterations,
		"tokens", result.Usage.TotalTokens)
	fmt.Println(result.Message)
	return nil
}

// buildClient wires the configured backends: the OpenRouter HTTP adapter
// plus gollm-backed adapters for providers it speaks natively.
func buildClient(cfg *config.Config, logger *slog.Logger) (*llmclient.Client, error) {
	adapter, err := llmclient.NewChatAdapter("openrouter", cfg.APIKey,
		llmclient.WithBaseURL(cfg.APIBase),
		llmclient.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	policy := llmclient.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("retrying request", "attempt", attempt, "delay", delay, "error", err)
	}

	client := llmclient.NewClient(
		llmclient.WithBackend(adapter),
		llmclient.WithDefaultBackend("openrouter"),
		llmclient.WithRetryPolicy(policy),
	)

	// Direct providers route through gollm when their keys are present.
	for _, provider := range []string{"openai", "anthropic"} {
		if os.Getenv(strings.ToUpper(provider)+"_API_KEY") == "" {
			continue
		}
		g, err := llmclient.NewGollmAdapter(provider)
		if err != nil {
			logger.Warn("skipping provider", "provider", provider, "error", err)
			continue
		}
		client.RegisterBackend(g)
	}

	return client, nil
}

// drainEvents logs the agent event stream until it closes.
func drainEvents(events <-chan agentloop.AgentEvent, logger *slog.Logger) {
	for ev := range events {
		switch ev.Kind {
		case agentloop.EventToolCallStart:
			logger.Info("tool call", "tool", ev.Data["tool"], "args", ev.Data["arguments"])
		case agentloop.EventToolCallEnd:
			logger.Info("tool done", "tool", ev.Data["tool"], "status", ev.Data["status"], "ms", ev.Data["duration_ms"])
		case agentloop.EventAssistantText:
			logger.Debug("assistant", "content", ev.Data["content"])
		case agentloop.EventLoopDetection:
			logger.Warn("repeating tool calls detected", "iteration", ev.Data["iteration"])
		case agentloop.EventIterationLimit:
			logger.Warn("iteration limit reached", "max", ev.Data["max_iterations"])
		case agentloop.EventWarning:
			logger.Warn("agent warning", "detail", ev.Data)
		case agentloop.EventError:
			logger.Error("agent error", "error", ev.Data["error"])
		case agentloop.EventIterationStart:
			logger.Debug("iteration", "n", ev.Data["iteration"])
		}
	}
}
