package catalog

import (
	"fmt"
	"regexp"
)

const (
	CatalogKind            = "catalog"
	DomainKind             = "domain"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// Phase tags a step with its position in the workflow lifecycle.
type Phase string

const (
	PhaseInitiation Phase = "initiation"
	PhaseExecution  Phase = "execution"
	PhaseSettlement Phase = "settlement"
	PhaseDefault    Phase = "default"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseInitiation, PhaseExecution, PhaseSettlement, PhaseDefault:
		return true
	}
	return false
}

// Settings is the root catalog.yaml document.
type Settings struct {
	Kind          string `yaml:"kind"`
	SchemaVersion int    `yaml:"schema_version"`
	LevelsToWin   int    `yaml:"levels_to_win"`
}

// Step is an atomic workflow action. Immutable once loaded.
type Step struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Phase       Phase  `yaml:"phase"`
}

// Puzzle holds one canonical step ordering to be reconstructed.
type Puzzle struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Steps []Step `yaml:"correct_steps"`
}

// Stage groups puzzles for presentation. Sampling flattens stages away.
type Stage struct {
	Name    string   `yaml:"name"`
	Title   string   `yaml:"title"`
	Puzzles []Puzzle `yaml:"puzzles"`
}

// Domain is a themed collection of workflow puzzles.
type Domain struct {
	Kind          string  `yaml:"kind"`
	SchemaVersion int     `yaml:"schema_version"`
	Name          string  `yaml:"name"`
	Title         string  `yaml:"title"`
	DescriptionMD string  `yaml:"description_md"`
	Stages        []Stage `yaml:"stages"`

	Path string `yaml:"-"`
}

// Catalog is the full loaded content set. The engine treats it as read-only.
type Catalog struct {
	LevelsToWin int
	Domains     []Domain
}

// ByName returns the named domain, or nil when absent.
func (c Catalog) ByName(name string) *Domain {
	for i := range c.Domains {
		if c.Domains[i].Name == name {
			return &c.Domains[i]
		}
	}
	return nil
}

// Puzzles flattens every stage of the domain into a single pool, in
// stage then declaration order.
func (d Domain) Puzzles() []Puzzle {
	out := make([]Puzzle, 0)
	for _, st := range d.Stages {
		out = append(out, st.Puzzles...)
	}
	return out
}

// PuzzleCount reports how many puzzles the domain holds across all stages.
func (d Domain) PuzzleCount() int {
	n := 0
	for _, st := range d.Stages {
		n += len(st.Puzzles)
	}
	return n
}

func (s Settings) Validate() error {
	if s.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if s.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if s.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", s.SchemaVersion, SupportedSchemaVersion)
	}
	return nil
}

// Validate checks the structural catalog assumptions the engine relies on:
// puzzle ids unique across the whole domain, step ids unique within a
// puzzle, a non-empty canonical sequence per puzzle, known phase tags.
// A domain with zero puzzles is legal; starting a session on it surfaces
// exhaustion at runtime rather than a load error.
func (d Domain) Validate() error {
	if d.Kind != DomainKind {
		return fmt.Errorf("kind must be %q", DomainKind)
	}
	if d.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if d.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported domain schema_version %d (max supported %d)", d.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(d.Name) {
		return fmt.Errorf("invalid domain name %q", d.Name)
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}

	seenPuzzles := map[string]struct{}{}
	seenStages := map[string]struct{}{}
	for _, st := range d.Stages {
		if st.Name == "" {
			return fmt.Errorf("stages[].name is required")
		}
		if _, ok := seenStages[st.Name]; ok {
			return fmt.Errorf("duplicate stage name %q", st.Name)
		}
		seenStages[st.Name] = struct{}{}
		for _, p := range st.Puzzles {
			if !idPattern.MatchString(p.ID) {
				return fmt.Errorf("stage %q: invalid puzzle id %q", st.Name, p.ID)
			}
			if _, ok := seenPuzzles[p.ID]; ok {
				return fmt.Errorf("duplicate puzzle id %q (puzzle ids are unique per domain, not per stage)", p.ID)
			}
			seenPuzzles[p.ID] = struct{}{}
			if err := p.validate(); err != nil {
				return fmt.Errorf("puzzle %q: %w", p.ID, err)
			}
		}
	}
	return nil
}

func (p Puzzle) validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("correct_steps must contain at least one step")
	}
	seen := map[string]struct{}{}
	for _, s := range p.Steps {
		if s.ID == "" {
			return fmt.Errorf("correct_steps[].id is required")
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Title == "" {
			return fmt.Errorf("step %q: title is required", s.ID)
		}
		if s.Phase != "" && !s.Phase.Valid() {
			return fmt.Errorf("step %q: invalid phase %q", s.ID, s.Phase)
		}
	}
	return nil
}
