package role

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roundtable-dev/roundtable/internal/errors"
)

const securityEngineerYAML = `role: Security Engineer
description: Focuses on threat modeling and secure design.
responsibilities:
  - Review designs for security flaws
  - Define authentication requirements
expertise:
  - Application security
  - Cryptography
characteristics:
  - Skeptical of new attack surface
weight: 1.5
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(securityEngineerYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if r.ID != "security-engineer" {
		t.Errorf("ID = %q, want %q", r.ID, "security-engineer")
	}
	if r.Name != "Security Engineer" {
		t.Errorf("Name = %q, want %q", r.Name, "Security Engineer")
	}
	if len(r.Responsibilities) != 2 {
		t.Errorf("Responsibilities = %v, want 2 entries", r.Responsibilities)
	}
	if r.Weight != 1.5 {
		t.Errorf("Weight = %v, want 1.5", r.Weight)
	}
}

func TestParse_FlexibleList(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "scalar becomes single element",
			yaml: "role: PM\nexpertise: roadmaps\n",
			want: []string{"roadmaps"},
		},
		{
			name: "sequence preserved",
			yaml: "role: PM\nexpertise:\n  - roadmaps\n  - stakeholders\n",
			want: []string{"roadmaps", "stakeholders"},
		},
		{
			name: "empty scalar becomes nil",
			yaml: "role: PM\nexpertise: \"\"\n",
			want: nil,
		},
		{
			name: "absent field",
			yaml: "role: PM\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(r.Expertise) != len(tt.want) {
				t.Fatalf("Expertise = %v, want %v", r.Expertise, tt.want)
			}
			for i := range tt.want {
				if r.Expertise[i] != tt.want[i] {
					t.Errorf("Expertise[%d] = %q, want %q", i, r.Expertise[i], tt.want[i])
				}
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing role name", "description: no name here\n"},
		{"blank role name", "role: \"   \"\n"},
		{"negative weight", "role: PM\nweight: -1\n"},
		{"mapping in list field", "role: PM\nexpertise:\n  nested: map\n"},
		{"broken yaml", "role: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func writeRoleFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeRoleFiles(t, map[string]string{
		"security.yaml": securityEngineerYAML,
		"pm.yml":        "role: Product Manager\ndescription: Owns the roadmap.\n",
		"broken.yaml":   "role: [unclosed\n",
		"notes.txt":     "not a role file",
	})

	roles, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	// Broken file skipped, .txt ignored, remainder sorted by ID.
	if len(roles) != 2 {
		t.Fatalf("LoadDir() returned %d roles, want 2", len(roles))
	}
	if roles[0].ID != "product-manager" || roles[1].ID != "security-engineer" {
		t.Errorf("role IDs = [%s, %s], want sorted [product-manager, security-engineer]",
			roles[0].ID, roles[1].ID)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSelect(t *testing.T) {
	roles := []Role{
		{ID: "architect", Name: "Architect"},
		{ID: "backend-engineer", Name: "Backend Engineer"},
		{ID: "security-engineer", Name: "Security Engineer"},
	}

	t.Run("by name", func(t *testing.T) {
		selected, err := Select(roles, []string{"Security Engineer", "architect"}, 0)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(selected) != 2 || selected[0].ID != "security-engineer" || selected[1].ID != "architect" {
			t.Errorf("Select() = %v, want [security-engineer, architect] in request order", selected)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := Select(roles, []string{"astrologer"}, 0)
		if err == nil {
			t.Fatal("expected error for unknown role")
		}
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("first n", func(t *testing.T) {
		selected, err := Select(roles, nil, 2)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(selected) != 2 {
			t.Errorf("Select() returned %d roles, want 2", len(selected))
		}
	})

	t.Run("n larger than available", func(t *testing.T) {
		selected, err := Select(roles, nil, 10)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(selected) != 3 {
			t.Errorf("Select() returned %d roles, want all 3", len(selected))
		}
	})
}

func TestPromptDescription(t *testing.T) {
	r, err := Parse([]byte(securityEngineerYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	prompt := r.PromptDescription()

	for _, want := range []string{
		"You are a Security Engineer.",
		"Role Description: Focuses on threat modeling and secure design.",
		"Key Responsibilities:",
		"- Review designs for security flaws",
		"Areas of Expertise:",
		"Key Characteristics:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("PromptDescription() missing %q", want)
		}
	}
}

func TestPromptDescription_SparseRole(t *testing.T) {
	r := &Role{Name: "Observer"}
	prompt := r.PromptDescription()
	if strings.Contains(prompt, "Responsibilities") || strings.Contains(prompt, "Expertise") {
		t.Errorf("empty sections should be omitted, got %q", prompt)
	}
}

func TestWeights(t *testing.T) {
	roles := []Role{
		{ID: "a", Weight: 2.0},
		{ID: "b"}, // unset weight defaults to 1.0
	}
	weights := Weights(roles)
	if weights["a"] != 2.0 {
		t.Errorf("weights[a] = %v, want 2.0", weights["a"])
	}
	if weights["b"] != 1.0 {
		t.Errorf("weights[b] = %v, want 1.0", weights["b"])
	}
}
