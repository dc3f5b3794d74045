package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/labelsel/internal/label"
	"github.com/ppiankov/labelsel/internal/layout"
)

// Run evaluates all cases in a scenario against the given layout.
// Each case starts from empty selections (cases are independent).
// A nil layout means layout.Default.
func Run(s *Scenario, l *layout.Layout) *RunResult {
	if l == nil {
		l = layout.Default()
	}

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := runCase(c, l)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func runCase(c Case, l *layout.Layout) CaseResult {
	cr := CaseResult{Expected: c.Expect}

	sel := l.NewSelections()
	// Sorted so the first domain error reported is stable.
	names := make([]string, 0, len(c.Select))
	for name := range c.Select {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := c.Select[name]
		if !l.Contains(name, value) {
			cr.Reason = fmt.Sprintf("selection %s=%s is not in the layout", name, value)
			return cr
		}
		sel.Set(label.Category(name), value)
	}

	d := label.Derive(sel)
	cr.Actual = string(d.Label)
	cr.Rule = d.Rule
	cr.Summary = d.Summary

	switch {
	case cr.Actual != c.Expect:
		cr.Reason = fmt.Sprintf("label %s via %s", d.Label, d.Rule)
	case c.Summary != nil && *c.Summary != d.Summary:
		cr.Reason = fmt.Sprintf("summary %q, expected %q", d.Summary, *c.Summary)
	default:
		cr.Passed = true
	}
	return cr
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and its layout, and runs it.
// The scenario's own layout field wins over layoutPath; an empty
// layoutPath means the built-in layout.
func LoadAndRun(path, layoutPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	if s.Layout != "" {
		layoutPath = s.Layout
		if !filepath.IsAbs(layoutPath) {
			layoutPath = filepath.Join(filepath.Dir(path), layoutPath)
		}
	}

	l := layout.Default()
	if layoutPath != "" {
		l, err = layout.Load(layoutPath)
		if err != nil {
			return nil, fmt.Errorf("load layout: %w", err)
		}
	}

	result := Run(s, l)
	result.File = path

	return result, nil
}
