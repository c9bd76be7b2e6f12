package scanner

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// analyzeDependencies reads projectPath/package.json. A missing or
// unreadable manifest yields empty lists. Outdated checks need a registry
// lookup and are left empty.
func analyzeDependencies(projectPath string, logger *slog.Logger) Dependencies {
	deps := Dependencies{
		MissingDependencies:  []string{},
		OutdatedDependencies: []OutdatedDependency{},
	}

	path := filepath.Join(projectPath, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read package.json", "file", path, "error", err)
		}
		return deps
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		logger.Warn("failed to parse package.json", "file", path, "error", err)
		return deps
	}

	all := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for k, v := range pkg.Dependencies {
		all[k] = v
	}
	for k, v := range pkg.DevDependencies {
		all[k] = v
	}

	deps.ArchbaseVersion = all["@archbase/react"]
	deps.ReactVersion = all["react"]
	for _, name := range recommendedDependencies {
		if all[name] == "" {
			deps.MissingDependencies = append(deps.MissingDependencies, name)
		}
	}
	return deps
}
