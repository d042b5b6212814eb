package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const settingsFile = "catalog.yaml"

// DefaultLevelsToWin applies when catalog.yaml omits levels_to_win.
const DefaultLevelsToWin = 3

// Load reads the catalog rooted at dir: an optional catalog.yaml with
// global settings plus one YAML file per domain. Any malformed entry
// fails the whole load; partially loaded content never reaches the
// engine.
func Load(dir string) (Catalog, error) {
	cat := Catalog{LevelsToWin: DefaultLevelsToWin}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read %s: %w", path, err)
		}

		if name == settingsFile {
			var s Settings
			if err := yaml.Unmarshal(raw, &s); err != nil {
				return Catalog{}, fmt.Errorf("parse %s: %w", path, err)
			}
			if err := s.Validate(); err != nil {
				return Catalog{}, fmt.Errorf("%s: %w", path, err)
			}
			if s.LevelsToWin != 0 {
				cat.LevelsToWin = s.LevelsToWin
			}
			continue
		}

		var d Domain
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return Catalog{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return Catalog{}, fmt.Errorf("%s: %w", path, err)
		}
		d.Path = path
		cat.Domains = append(cat.Domains, d)
	}

	names := map[string]string{}
	for _, d := range cat.Domains {
		if prev, ok := names[d.Name]; ok {
			return Catalog{}, fmt.Errorf("duplicate domain %q in %s and %s", d.Name, prev, d.Path)
		}
		names[d.Name] = d.Path
	}

	sort.Slice(cat.Domains, func(i, j int) bool {
		return cat.Domains[i].Name < cat.Domains[j].Name
	})
	return cat, nil
}
