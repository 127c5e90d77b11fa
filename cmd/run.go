// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/internal/agent"
	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/interaction"
	"github.com/xkilldash9x/browsepilot/internal/observability"
	"github.com/xkilldash9x/browsepilot/internal/service"
)

// newRunCmd creates the `run` command.
func newRunCmd(factory service.ComponentFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [query...]",
		Short: "Executes a natural-language query in a browser",
		Long: `Executes a natural-language query in a browser. The model picks browser actions
step by step until it calls a stop action or the interaction limit is reached.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyRunFlagOverrides(cmd, cfg); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			return runQuery(ctx, cfg, query, factory, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	runCmd.Flags().BoolP("interactive", "i", false, "Prompt for a message after every agent turn. (Overrides config/env)")
	runCmd.Flags().Bool("stay-open", true, "Wait for enter before exiting. (Overrides config/env)")
	runCmd.Flags().IntP("max-interactions", "n", 0, "Maximum number of resumed steps. (Overrides config/env)")
	runCmd.Flags().Bool("headless", false, "Run the browser without a window. (Overrides config/env)")
	runCmd.Flags().Bool("plain", false, "Send text-only turns to the model. (Overrides config/env)")
	runCmd.Flags().StringP("model", "m", "", "Model name. (Overrides config/env)")
	runCmd.Flags().Bool("no-color", false, "Disable styled output. (Overrides config/env)")

	return runCmd
}

// applyRunFlagOverrides copies explicitly set flags onto cfg and re-validates it.
func applyRunFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("interactive") {
		cfg.Interaction.Interactive, _ = flags.GetBool("interactive")
	}
	if flags.Changed("stay-open") {
		cfg.Interaction.StayOpen, _ = flags.GetBool("stay-open")
	}
	if flags.Changed("max-interactions") {
		cfg.Interaction.MaxInteractions, _ = flags.GetInt("max-interactions")
	}
	if flags.Changed("no-color") {
		cfg.Interaction.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("plain") {
		if plain, _ := flags.GetBool("plain"); plain {
			cfg.Execution.ContentMode = config.ContentModePlain
		} else {
			cfg.Execution.ContentMode = config.ContentModeRich
		}
	}
	if flags.Changed("model") {
		cfg.Agent.Model.Name, _ = flags.GetString("model")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flag overrides: %w", err)
	}
	return nil
}

// runQuery creates the components, runs one execution through the driver and
// releases the components again.
func runQuery(ctx context.Context, cfg *config.Config, query string, factory service.ComponentFactory, in io.Reader, out io.Writer, logger *zap.Logger) error {
	components, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer func() {
		if err := components.Shutdown(ctx); err != nil {
			logger.Warn("Components shutdown reported errors.", zap.Error(err))
		}
	}()

	exec, err := agent.NewExecution(query, agent.Dependencies{
		Model:    components.Model,
		Actions:  components.Registry,
		Executor: components.Executor,
		Browser:  components.Session,
	}, cfg.Execution, logger)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	logger.Info("Running query.", zap.String("execution_id", exec.ID()), zap.String("query", query))

	driver := interaction.NewDriver(cfg.Interaction, in, out, logger)
	if _, err := driver.Run(ctx, exec); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Execution aborted by user signal.", zap.String("execution_id", exec.ID()))
			return err
		}
		return fmt.Errorf("execution %s failed: %w", exec.ID(), err)
	}

	logger.Info("Execution complete.", zap.String("execution_id", exec.ID()), zap.Int("steps", exec.StepCount()))
	return nil
}
