// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// InstallRootEnv is set for the purge hook.
const InstallRootEnv = "LOADREMOTE_INSTALL_ROOT"

// PurgeCache empties the install root and then runs Hook, if any, in the
// embedded shell interpreter with the install root as working directory.
type PurgeCache struct {
	Root   string
	Hook   string
	Logger *log.Logger
}

// Name implements Command.
func (p *PurgeCache) Name() string { return "purge-cache" }

// Run purges the install root, then runs the hook. A hook that fails to
// parse aborts before anything is removed.
func (p *PurgeCache) Run(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var prog *syntax.File
	if strings.TrimSpace(p.Hook) != "" {
		var err error
		prog, err = syntax.NewParser().Parse(strings.NewReader(p.Hook), "purge_hook")
		if err != nil {
			return fmt.Errorf("failed to parse purge hook: %w", err)
		}
	}

	removed, err := Purge(p.Root)
	if err != nil {
		return err
	}
	logger.Info("purged package cache", "root", p.Root, "entries", removed)

	if prog == nil {
		return nil
	}
	return p.runHook(ctx, logger, prog)
}

func (p *PurgeCache) runHook(ctx context.Context, logger *log.Logger, prog *syntax.File) error {
	var out bytes.Buffer
	env := append(os.Environ(), InstallRootEnv+"="+p.Root)
	runner, err := interp.New(
		interp.Dir(p.Root),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &out, &out),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	var status interp.ExitStatus
	switch {
	case err == nil:
		logger.Debug("purge hook finished", "output", strings.TrimSpace(out.String()))
	case errors.As(err, &status):
		logger.Warn("purge hook exited with non-zero status", "status", int(status))
		logger.Debug("purge hook output", "output", strings.TrimSpace(out.String()))
	default:
		return fmt.Errorf("purge hook failed: %w", err)
	}
	return nil
}

// Purge removes every entry of root, creating root when missing. It
// returns how many entries were removed.
func Purge(root string) (int, error) {
	if root == "" {
		return 0, errors.New("purge: empty install root")
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, os.MkdirAll(root, 0o755)
	}
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", root, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return 0, fmt.Errorf("purge %s: %w", root, err)
		}
	}
	return len(entries), nil
}
