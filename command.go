package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/Songmu/wrapcommander"
	"github.com/mattn/go-shellwords"
)

// Environment exported to commands run by a gate.
const (
	PhaseEnv        = "TRAFFICLIGHT_PHASE"
	GateEnv         = "TRAFFICLIGHT_GATE"
	ActivationEnv   = "TRAFFICLIGHT_ACTIVATION"
	ActivationIDEnv = "TRAFFICLIGHT_ACTIVATION_ID"
)

type CommandActionConfig struct {
	Run string `yaml:"run"`
}

// CommandAction runs a command each time its gate opens. The activation is
// described to the command through the TRAFFICLIGHT_* environment.
type CommandAction struct {
	name     string
	commands []string
	timeout  time.Duration
}

func NewCommandAction(cfg *GateConfig) (*CommandAction, error) {
	cmds, err := shellwords.Parse(cfg.Command.Run)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %s %w", cfg.Command.Run, err)
	}
	if len(cmds) == 0 {
		return nil, errors.New("no command")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	return &CommandAction{
		name:     cfg.Name,
		commands: cmds,
		timeout:  timeout,
	}, nil
}

func (c *CommandAction) Name() string {
	return c.name
}

func (c *CommandAction) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	logger := newLoggerFromContext(ctx).With(
		"name", c.name,
		"module", "commandaction",
	)
	cmd := c.command(ctx)
	logger.Debug("executing command", "commands", cmd.Args)

	start := time.Now()
	out, err := cmd.CombinedOutput()
	attrs := []any{
		slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
		slog.Duration("elapsed", time.Since(start)),
		slog.String("output", string(out)),
	}
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("command timed out after %s: %w", c.timeout, err)
		}
		logger.Info("command failed", append(attrs, slog.String("error", err.Error()))...)
		return err
	}
	logger.Debug("command succeeded", attrs...)
	return nil
}

func (c *CommandAction) command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.commands[0], c.commands[1:]...)
	cmd.Env = append(os.Environ(), activationEnv(ctx)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 3 * time.Second
	return cmd
}

func activationEnv(ctx context.Context) []string {
	s, ok := stateFromContext(ctx)
	if !ok {
		return nil
	}
	return []string{
		PhaseEnv + "=" + s.Phase.String(),
		GateEnv + "=" + s.Gate,
		ActivationEnv + "=" + strconv.Itoa(s.Activation),
		ActivationIDEnv + "=" + s.ActivationID,
	}
}
