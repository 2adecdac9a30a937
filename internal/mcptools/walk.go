package mcptools

import (
	"io/fs"
	"path/filepath"
)

var ignoredDirNames = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	".venv":        {},
	"__pycache__":  {},
}

// walkDir walks root, invoking visit with each entry's path relative to
// repoRoot and whether it is a directory. Ignored directories are
// pruned rather than descended into.
func walkDir(repoRoot, root string, visit func(rel string, isDir bool)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == repoRoot {
			return nil
		}

		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if _, ignored := ignoredDirNames[d.Name()]; ignored {
				return filepath.SkipDir
			}
			visit(rel, true)
			return nil
		}

		visit(rel, false)
		return nil
	})
}
