// Package analyzer runs the external stack analyzer and parses its output
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Placeholders substituted in the command arguments
const (
	DirPlaceholder = "{dir}"
	OutPlaceholder = "{out}"
)

// DefaultCommand is used when Options.Command is empty
var DefaultCommand = []string{"stack-analyser", DirPlaceholder, "--output=" + OutPlaceholder}

// Options configures an Analyzer
type Options struct {
	// Command is the argv of the analyzer, {dir} and {out} are replaced per run
	Command []string
	// Aliases overrides the embedded alias table
	Aliases *Table
}

// Analyzer runs one analyzer subprocess per call
type Analyzer struct {
	cmd     []string
	aliases *Table
}

// New builds an Analyzer
func New(o Options) (*Analyzer, error) {
	cmd := o.Command
	if len(cmd) == 0 {
		cmd = DefaultCommand
	}
	if !hasPlaceholder(cmd, OutPlaceholder) {
		return nil, fmt.Errorf("analyzer: command must reference %s", OutPlaceholder)
	}
	tbl := o.Aliases
	if tbl == nil {
		var err error
		if tbl, err = DefaultTable(); err != nil {
			return nil, err
		}
	}
	return &Analyzer{cmd: cmd, aliases: tbl}, nil
}

// OutputPath is where the analyzer writes the report for dir, a sibling of dir
func OutputPath(dir string) string { return filepath.Clean(dir) + ".stack.json" }

// Analyze runs the analyzer against dir and returns the normalized report
// the output file is left for the caller to clean up with the working directory
func (a *Analyzer) Analyze(ctx context.Context, dir string) (Report, error) {
	out := OutputPath(dir)
	_ = os.Remove(out)

	args := make([]string, len(a.cmd))
	for i, s := range a.cmd {
		s = strings.ReplaceAll(s, DirPlaceholder, dir)
		args[i] = strings.ReplaceAll(s, OutPlaceholder, out)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = filepath.Dir(filepath.Clean(dir))
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Report{}, fmt.Errorf("analyzer: %w", ctx.Err())
		}
		return Report{}, fmt.Errorf("analyzer: %w: %s", err, lastLine(stderr.String()))
	}

	b, err := os.ReadFile(out)
	if err != nil {
		return Report{}, fmt.Errorf("analyzer: read output: %w", err)
	}
	rep, err := Parse(b)
	if err != nil {
		return Report{}, err
	}
	return rep.Normalize(a.aliases), nil
}

func hasPlaceholder(cmd []string, p string) bool {
	for _, s := range cmd {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
