package plugins

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

const gitTimeout = 2 * time.Second

var gitCommand = regexp.MustCompile(`git\s+`)

// WorkingDirFunc resolves a session's current directory.
type WorkingDirFunc func(sessionID string) (string, error)

// Git logs the current branch when a git command runs inside a repository.
type Git struct {
	terminal.BasePlugin

	logger     *zap.Logger
	workingDir WorkingDirFunc
	branch     func(ctx context.Context, dir string) (string, error)
}

// NewGit creates a git plugin. A nil workingDir uses the process directory.
func NewGit(logger *zap.Logger, workingDir WorkingDirFunc) *Git {
	if workingDir == nil {
		workingDir = func(string) (string, error) { return os.Getwd() }
	}
	return &Git{logger: logger, workingDir: workingDir, branch: currentBranch}
}

func (g *Git) Name() string { return "git" }

func (g *Git) OnCommandStart(command, sessionID string) {
	if !gitCommand.MatchString(command) {
		return
	}
	dir, err := g.workingDir(sessionID)
	if err != nil || !isGitRepo(dir) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	branch, err := g.branch(ctx, dir)
	if err != nil || branch == "" {
		return
	}
	g.logger.Info("Git command",
		zap.String(logging.SessionKey, sessionID),
		zap.String("branch", branch),
		zap.String("dir", dir),
	)
}

func isGitRepo(dir string) bool {
	if dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func currentBranch(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "branch", "--show-current")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
