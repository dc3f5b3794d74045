package scenario

// Case is one test case within a scenario.
type Case struct {
	Select  map[string]string `yaml:"select"`
	Expect  string            `yaml:"expect"`
	Summary *string           `yaml:"summary,omitempty"`
	Note    string            `yaml:"note,omitempty"`
}

// Scenario is a named collection of label expectations.
type Scenario struct {
	Name string `yaml:"name"`
	// Layout optionally points at a layout file, relative to the scenario file.
	Layout string `yaml:"layout,omitempty"`
	Cases  []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Summary  string `json:"summary"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
