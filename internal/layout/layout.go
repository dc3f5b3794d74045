package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/labelsel/internal/label"
)

// Group separates behaviour buttons from demographic metadata buttons.
type Group string

const (
	GroupAction   Group = "action"
	GroupMetadata Group = "metadata"
)

// metadataPlaceholder is the legacy entry that stood in for the metadata tab.
// Metadata categories are built in, so it is dropped on load.
const metadataPlaceholder = "Customer Metadata"

// CategorySpec is one button group: a category and its selectable values.
type CategorySpec struct {
	Name    string   `yaml:"name" json:"name"`
	Group   Group    `yaml:"group,omitempty" json:"group"`
	Actions []string `yaml:"actions" json:"actions"`
}

type layoutFile struct {
	Categories []CategorySpec `yaml:"categories"`
}

// Layout is the immutable set of categories and their values, in display
// and summary order.
type Layout struct {
	categories []CategorySpec
	index      map[string]map[string]bool
}

// New builds a layout from specs. Missing groups are inferred and the
// built-in metadata categories are appended when absent.
func New(specs []CategorySpec) (*Layout, error) {
	cats := make([]CategorySpec, 0, len(specs)+3)
	present := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Name == metadataPlaceholder {
			continue
		}
		c := CategorySpec{
			Name:    s.Name,
			Group:   s.Group,
			Actions: append([]string(nil), s.Actions...),
		}
		if c.Group == "" {
			c.Group = GroupAction
			if label.Category(c.Name).Demographic() {
				c.Group = GroupMetadata
			}
		}
		cats = append(cats, c)
		present[c.Name] = true
	}
	for _, m := range metadataDefaults() {
		if !present[m.Name] {
			cats = append(cats, m)
		}
	}

	l := &Layout{categories: cats}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.index = make(map[string]map[string]bool, len(cats))
	for _, c := range cats {
		vals := make(map[string]bool, len(c.Actions))
		for _, a := range c.Actions {
			vals[a] = true
		}
		l.index[c.Name] = vals
	}
	return l, nil
}

// Default returns the built-in layout.
func Default() *Layout {
	l, err := New(actionDefaults())
	if err != nil {
		panic(fmt.Sprintf("layout: invalid built-in layout: %v", err))
	}
	return l
}

func actionDefaults() []CategorySpec {
	return []CategorySpec{
		{Name: string(label.Movement), Group: GroupAction, Actions: []string{"Walking", "Standing"}},
		{Name: string(label.Location), Group: GroupAction, Actions: []string{"Mirror", "Shelf", "Counter", "Aisle"}},
		{Name: string(label.Gaze), Group: GroupAction, Actions: []string{"Mirror", "Shelf", "Counter", "Aisle"}},
		{Name: string(label.ArmMovement), Group: GroupAction, Actions: []string{"Picking", "Holding", "Wearing", "Touching", "None"}},
	}
}

func metadataDefaults() []CategorySpec {
	numbers := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		numbers = append(numbers, strconv.Itoa(i))
	}
	return []CategorySpec{
		{Name: string(label.Number), Group: GroupMetadata, Actions: numbers},
		{Name: string(label.Sex), Group: GroupMetadata, Actions: []string{"Male", "Female"}},
		{Name: string(label.Age), Group: GroupMetadata, Actions: []string{"Child", "Adult", "Elder"}},
	}
}

// DefaultPath returns ~/.labelsel/layout.yaml, or "" when home is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".labelsel", "layout.yaml")
}

// Load reads a layout from a YAML (or JSON) file.
// Empty path falls back to ~/.labelsel/layout.yaml.
// Missing file returns defaults. Invalid content returns an error.
func Load(path string) (*Layout, error) {
	l, _, err := LoadWithHash(path)
	return l, err
}

// LoadWithHash loads a layout and returns the SHA-256 of the raw file bytes.
// When no file exists the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Layout, string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return Default(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read layout: %w", err)
	}

	l, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return l, hashBytes(data), nil
}

// Parse decodes layout bytes. A document without categories yields defaults.
func Parse(data []byte) (*Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if len(f.Categories) == 0 {
		return Default(), nil
	}
	l, err := New(f.Categories)
	if err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// Validate checks names and values are non-empty and unique.
func (l *Layout) Validate() error {
	if len(l.categories) == 0 {
		return fmt.Errorf("no categories defined")
	}
	seen := make(map[string]bool, len(l.categories))
	for i, c := range l.categories {
		if c.Name == "" {
			return fmt.Errorf("category %d: name must not be empty", i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("category %q: defined more than once", c.Name)
		}
		seen[c.Name] = true

		if c.Group != GroupAction && c.Group != GroupMetadata {
			return fmt.Errorf("category %q: unknown group %q", c.Name, c.Group)
		}
		if len(c.Actions) == 0 {
			return fmt.Errorf("category %q: no actions defined", c.Name)
		}
		vals := make(map[string]bool, len(c.Actions))
		for _, a := range c.Actions {
			if a == "" {
				return fmt.Errorf("category %q: empty action", c.Name)
			}
			if vals[a] {
				return fmt.Errorf("category %q: action %q listed more than once", c.Name, a)
			}
			vals[a] = true
		}
	}
	return nil
}

// Categories returns a copy of the category specs in order.
func (l *Layout) Categories() []CategorySpec {
	out := make([]CategorySpec, len(l.categories))
	for i, c := range l.categories {
		out[i] = CategorySpec{
			Name:    c.Name,
			Group:   c.Group,
			Actions: append([]string(nil), c.Actions...),
		}
	}
	return out
}

// Group returns the categories of one group in order.
func (l *Layout) Group(g Group) []CategorySpec {
	var out []CategorySpec
	for _, c := range l.Categories() {
		if c.Group == g {
			out = append(out, c)
		}
	}
	return out
}

// LabelCategories returns the category names as label categories, in order.
func (l *Layout) LabelCategories() []label.Category {
	out := make([]label.Category, len(l.categories))
	for i, c := range l.categories {
		out[i] = label.Category(c.Name)
	}
	return out
}

// Has reports whether the layout defines category.
func (l *Layout) Has(category string) bool {
	_, ok := l.index[category]
	return ok
}

// Contains reports whether value is selectable for category.
func (l *Layout) Contains(category, value string) bool {
	return l.index[category][value]
}

// NewSelections returns an empty selection store over this layout's categories.
// Summaries list the canonical categories in declaration order, not layout
// order; categories the rule does not know come last, in layout order.
func (l *Layout) NewSelections() *label.Selections {
	return label.NewSelections(l.LabelCategories()...)
}

// DefaultYAML returns a commented YAML layout for init-layout.
func DefaultYAML() string {
	return `# labelsel button layout
# Generated by: labelsel init-layout
#
# Categories are listed in display order. Summaries always list the built-in
# categories in their fixed order; extra categories follow in file order.
# Each category needs a name and at least one action (button value).
# The decision rule reads these categories by name:
#   Customer Movement, Customer Location, Customer Gaze, Customer Arm Movements
# Other action categories are recorded in the summary but do not affect the label.
#
# Metadata categories (Customer Number, Customer Sex, Customer Age) are built in
# and appended automatically unless redefined here with group: metadata.

categories:
  - name: Customer Movement
    actions: [Walking, Standing]
  - name: Customer Location
    actions: [Mirror, Shelf, Counter, Aisle]
  - name: Customer Gaze
    actions: [Mirror, Shelf, Counter, Aisle]
  - name: Customer Arm Movements
    actions: [Picking, Holding, Wearing, Touching, None]
`
}
