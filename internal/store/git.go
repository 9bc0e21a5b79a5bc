package store

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// GitVersionedStore is a VersionedStore backed by the git binary, invoked as
// a short-lived subprocess, the same way the ambient config loader shells
// out to "git rev-parse --show-toplevel" to find the repository root.
type GitVersionedStore struct {
	repoRoot string
	logger   *slog.Logger
	ctx      context.Context
}

// NewGitVersionedStore creates a VersionedStore that reads repoRoot's git
// history. A nil logger falls back to slog.Default(); a nil ctx falls back
// to context.Background(). Per §5, the engine's own stages never select on
// ctx — it exists solely so a caller-supplied signal context (SIGINT,
// SIGTERM) can interrupt a long-running git subprocess.
func NewGitVersionedStore(ctx context.Context, repoRoot string, logger *slog.Logger) *GitVersionedStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &GitVersionedStore{repoRoot: repoRoot, logger: logger, ctx: ctx}
}

// ListChanged runs "git diff --name-only <base>" restricted to the
// repository working tree. Any failure (git missing, base revision
// unknown, not a repository) is logged and reported as no changes, per the
// engine's "capability failure means empty set" contract.
func (g *GitVersionedStore) ListChanged(base string) ([]string, error) {
	out, err := g.run(g.ctx, "diff", "--name-only", "--diff-filter=ACDMR", base, "--")
	if err != nil {
		g.logger.Warn("git diff failed, treating as no changes", slog.String("base", base), slog.String("error", err.Error()))
		return nil, nil
	}
	return splitNonEmptyLines(out), nil
}

// ReadAt runs "git show <base>:<path>". A missing path at base is reported
// as (nil, nil), matching the interface contract, not as an error.
func (g *GitVersionedStore) ReadAt(base, path string) ([]byte, error) {
	out, err := g.run(g.ctx, "show", base+":"+path)
	if err != nil {
		// git show exits non-zero both for "path did not exist at base"
		// and for genuine failures; the engine treats both as absence,
		// since a genuine failure already surfaced via ListChanged.
		return nil, nil
	}
	return []byte(out), nil
}

func (g *GitVersionedStore) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
