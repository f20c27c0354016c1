package server

import (
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// maybeAutoCommit commits every change under the config directory when it
// is already a git worktree, and is silently a no-op otherwise. Grounded
// on the teacher's go.mod carrying github.com/go-git/go-git/v5 for its own
// config/state persistence; wired here so an admin write to config.yaml,
// the model bundle, or a script file leaves a reviewable history instead
// of silently overwriting the previous version.
func (s *Server) maybeAutoCommit(message string) {
	repo, err := git.PlainOpen(s.cfg.ConfigDir)
	if err != nil {
		return
	}

	wt, err := repo.Worktree()
	if err != nil {
		slog.Warn("auto-commit: open worktree failed", "error", err)
		return
	}

	if _, err := wt.Add("."); err != nil {
		slog.Warn("auto-commit: stage changes failed", "error", err)
		return
	}

	status, err := wt.Status()
	if err == nil && status.IsClean() {
		return
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "mockllm",
			Email: "mockllm@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		slog.Warn("auto-commit: commit failed", "error", err)
	}
}
