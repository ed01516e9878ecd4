// Package git clones repositories with the git CLI
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// execCommand is swapped in tests
var execCommand = exec.CommandContext

const waitDelay = 5 * time.Second

// Cloner performs shallow single branch clones
type Cloner struct {
	// Bin is the git executable, "git" when empty
	Bin string
}

// Clone clones url into dest, dest must not exist or be empty
func (g *Cloner) Clone(ctx context.Context, url, dest string) error {
	bin := g.Bin
	if bin == "" {
		bin = "git"
	}
	cmd := execCommand(ctx, bin, "clone", "--depth", "1", "--single-branch", "--", url, dest)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	// git-remote-https can outlive a killed git and hold stderr open
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("git clone %s: %w", url, ctx.Err())
		}
		return fmt.Errorf("git clone %s: %w: %s", url, err, tail(stderr.String(), 300))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
