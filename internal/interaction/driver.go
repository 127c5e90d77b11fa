// File: internal/interaction/driver.go
package interaction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browsepilot/internal/agent"
	"github.com/xkilldash9x/browsepilot/internal/config"
)

// Stepper is the suspendable execution the driver advances.
type Stepper interface {
	Start(ctx context.Context) (agent.Step, error)
	Resume(ctx context.Context, input string) (agent.Step, error)
}

// Driver connects an execution to a console: it shows each AGENT turn,
// collects user input when interactive and bounds the number of resumes.
type Driver struct {
	cfg      config.InteractionConfig
	in       *bufio.Reader
	out      io.Writer
	renderer *Renderer
	logger   *zap.Logger
}

// NewDriver creates a driver reading from in and writing to out.
func NewDriver(cfg config.InteractionConfig, in io.Reader, out io.Writer, logger *zap.Logger) *Driver {
	return &Driver{
		cfg:      cfg,
		in:       bufio.NewReader(in),
		out:      out,
		renderer: NewRenderer(out, cfg.NoColor),
		logger:   logger.Named("interaction"),
	}
}

// Run drives the execution to its end or to max_interactions resumes,
// whichever comes first. It returns 0 on completion; loop errors propagate.
func (d *Driver) Run(ctx context.Context, exec Stepper) (int, error) {
	step, err := exec.Start(ctx)
	if err != nil {
		return 1, err
	}
	d.show(step)

	interactions := 0
	for !step.Final && interactions < d.cfg.MaxInteractions {
		input := ""
		if d.cfg.Interactive {
			fmt.Fprint(d.out, d.renderer.Prompt())
			if input, err = d.readLine(); err != nil {
				return 1, err
			}
		}
		if step, err = exec.Resume(ctx, input); err != nil {
			return 1, err
		}
		d.show(step)
		interactions++
	}

	if !step.Final {
		d.logger.Info("Interaction limit reached.", zap.Int("max_interactions", d.cfg.MaxInteractions))
	}

	if d.cfg.StayOpen {
		fmt.Fprint(d.out, exitPrompt)
		if _, err := d.readLine(); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func (d *Driver) show(step agent.Step) {
	fmt.Fprintln(d.out, d.renderer.AgentLine(step.Turn))
}

// readLine returns one line without its terminator. End of input counts as
// an empty line.
func (d *Driver) readLine() (string, error) {
	line, err := d.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
