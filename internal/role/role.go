// Package role loads discussion role definitions from YAML files and renders
// them into generation prompts. Role files may write list fields as either a
// single scalar or a YAML sequence; both forms normalize to a string slice at
// load time so the rest of the codebase never sees the difference.
package role

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roundtable-dev/roundtable/internal/errors"
	"github.com/roundtable-dev/roundtable/internal/logging"
)

// Role describes a discussion participant.
type Role struct {
	// ID is the stable identifier used in messages and logs, derived from
	// the role name at load time.
	ID string `yaml:"-"`

	Name              string       `yaml:"role"`
	Description       string       `yaml:"description"`
	Responsibilities  FlexibleList `yaml:"responsibilities"`
	Expertise         FlexibleList `yaml:"expertise"`
	Characteristics   FlexibleList `yaml:"characteristics"`
	ExampleUtterances FlexibleList `yaml:"example_utterances"`

	// Weight biases this role's vote in consensus detection. Zero means
	// equal weighting.
	Weight float64 `yaml:"weight"`
}

// FlexibleList is a string slice that also accepts a single YAML scalar.
type FlexibleList []string

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (l *FlexibleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = FlexibleList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = FlexibleList(items)
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", value.Line)
	}
}

// slugify turns a role name into a stable lowercase identifier.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-' || r == '/':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Parse decodes a single role definition.
func Parse(data []byte) (*Role, error) {
	var r Role
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode role: %w", err)
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "role name is required")
	}
	if r.Weight < 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "role weight cannot be negative")
	}
	r.ID = slugify(r.Name)
	return &r, nil
}

// LoadDir loads every .yaml/.yml role file in dir, sorted by ID. Files that
// fail to parse are skipped with a logged warning rather than failing the
// whole load.
func LoadDir(dir string, logger *logging.Logger) ([]Role, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles directory: %w", err)
	}

	var roles []Role
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable role file", "path", path, "error", err)
			continue
		}
		r, err := Parse(data)
		if err != nil {
			logger.Warn("skipping invalid role file", "path", path, "error", err)
			continue
		}
		roles = append(roles, *r)
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

// Select picks the participant list for a discussion. When names are given,
// each must match a loaded role by ID or name; otherwise the first n roles
// are used.
func Select(roles []Role, names []string, n int) ([]Role, error) {
	if len(names) > 0 {
		selected := make([]Role, 0, len(names))
		for _, name := range names {
			found := false
			for _, r := range roles {
				if r.ID == slugify(name) || strings.EqualFold(r.Name, name) {
					selected = append(selected, r)
					found = true
					break
				}
			}
			if !found {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown role %q", name)
			}
		}
		return selected, nil
	}

	if n <= 0 || n > len(roles) {
		n = len(roles)
	}
	return append([]Role(nil), roles[:n]...), nil
}

// PromptDescription renders the role header for a generation prompt.
func (r *Role) PromptDescription() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s.\n\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "Role Description: %s\n\n", r.Description)
	}
	writeSection(&b, "Key Responsibilities:", r.Responsibilities)
	writeSection(&b, "Areas of Expertise:", r.Expertise)
	writeSection(&b, "Key Characteristics:", r.Characteristics)
	return b.String()
}

func writeSection(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteByte('\n')
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteByte('\n')
}

// Weights returns the consensus weight per role ID. Roles without an
// explicit weight get 1.0 so unweighted files behave as equal voters.
func Weights(roles []Role) map[string]float64 {
	weights := make(map[string]float64, len(roles))
	for _, r := range roles {
		w := r.Weight
		if w == 0 {
			w = 1.0
		}
		weights[r.ID] = w
	}
	return weights
}
