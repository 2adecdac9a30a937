package codebase

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// maxIndexedFiles caps the number of files one index build will walk.
const maxIndexedFiles = 5000

// defaultIgnoreDirs are skipped during a filesystem-walk fallback.
var defaultIgnoreDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	".venv":        {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
}

// WalkConfig controls which files ListFiles/WalkFiles surface.
type WalkConfig struct {
	RepoRoot   string
	Extensions []string // e.g. []string{".go", ".py"}; empty means "all"
}

// ListFiles returns every file under cfg.RepoRoot that passes the
// extension filter, preferring git's tracked+untracked listing and
// falling back to a filesystem walk when git is unavailable. Truncates
// at maxIndexedFiles with a logged warning.
func ListFiles(ctx context.Context, log *slog.Logger, cfg WalkConfig) ([]string, error) {
	files := listFilesGit(ctx, cfg.RepoRoot)
	if files == nil {
		var err error
		files, err = listFilesWalk(cfg.RepoRoot)
		if err != nil {
			return nil, err
		}
	}

	var filtered []string
	for _, f := range files {
		if !matchesExtension(f, cfg.Extensions) {
			continue
		}
		filtered = append(filtered, f)
	}

	if len(filtered) > maxIndexedFiles {
		log.WarnContext(ctx, "codebase index truncated at file cap",
			"cap", maxIndexedFiles, "discovered", len(filtered))
		filtered = filtered[:maxIndexedFiles]
	}

	return filtered, nil
}

func listFilesGit(ctx context.Context, repoRoot string) []string {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached",
		"--others", "--exclude-standard")
	cmd.Dir = repoRoot

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func listFilesWalk(repoRoot string) ([]string, error) {
	var out []string

	err := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, ignored := defaultIgnoreDirs[d.Name()]; ignored {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// MatchGlob reports whether path matches pattern using doublestar
// semantics, for the list_files tool's glob argument.
func MatchGlob(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}
