package utils

import (
	"context"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/omnipm/omnipm/pkg/types"
	log "github.com/sirupsen/logrus"
)

// CmdResult holds the captured output of one external tool invocation.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (r *CmdResult) Success() bool {
	return r.ExitCode == 0
}

// RunCommand spawns one external process and captures its output. A spawn
// failure maps to CommandError and non-text output to Utf8Error; a non-zero
// exit is not an error at this level, so call sites can fall back or inspect
// stderr themselves.
func RunCommand(ctx context.Context, name string, args ...string) (*CmdResult, error) {
	log.Debugf("running %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, types.WrapError(types.CommandError, err, "failed to execute "+name)
		}
	}

	res := &CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if !utf8.ValidString(res.Stdout) {
		return nil, types.Errorf(types.Utf8Error, "%s produced invalid UTF-8 output", name)
	}
	log.Debugf("%s exited %d, %d bytes of stdout", name, res.ExitCode, len(res.Stdout))
	return res, nil
}

// CommandOutput runs a process and returns its stdout, mapping a non-zero
// exit to an UnknownError carrying the captured stderr text.
func CommandOutput(ctx context.Context, name string, args ...string) (string, error) {
	res, err := RunCommand(ctx, name, args...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", types.Errorf(types.UnknownError, "%s %s failed: %s",
			name, strings.Join(args, " "), strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// CommandAvailable reports whether name resolves to an executable in PATH.
func CommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
