package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// execSpec configures the exec module, the escape hatch for site scrapers
// implemented outside this binary (browser automation scripts and the like).
// The child's stdout and stderr are captured into the run's log.
type execSpec struct {
	Command []string          `mapstructure:"command"`
	Env     map[string]string `mapstructure:"env"`
	Dir     string            `mapstructure:"dir"`
}

type execCmd struct {
	spec execSpec
}

func init() {
	Register("exec", newExecCmd)
}

func newExecCmd(params map[string]any) (Scraper, error) {
	var spec execSpec
	if err := decodeParams(params, &spec); err != nil {
		return nil, err
	}
	if len(spec.Command) == 0 || strings.TrimSpace(spec.Command[0]) == "" {
		return nil, fmt.Errorf("command is required")
	}
	return &execCmd{spec: spec}, nil
}

func (e *execCmd) Run(ctx context.Context, env Env) error {
	argv := make([]string, len(e.spec.Command))
	for i, arg := range e.spec.Command {
		// {output_dir} lets scripts take the destination as an argument
		// instead of reading the environment.
		argv[i] = strings.ReplaceAll(arg, "{output_dir}", env.OutputDir)
	}

	sink := &zapio.Writer{Log: env.Logger, Level: zap.InfoLevel}
	defer func() { _ = sink.Close() }()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.spec.Dir
	cmd.Stdout = sink
	cmd.Stderr = sink
	cmd.Env = append(os.Environ(), "FINDL_OUTPUT_DIR="+env.OutputDir)
	if env.Visible {
		cmd.Env = append(cmd.Env, "FINDL_VISIBLE=1")
	}
	for k, v := range e.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	env.Logger.Info("Running command", zap.Strings("argv", argv))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s: %w", argv[0], err)
	}
	return nil
}
