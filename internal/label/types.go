package label

import "fmt"

// Category names one axis of observation.
type Category string

const (
	Movement    Category = "Customer Movement"
	Location    Category = "Customer Location"
	Gaze        Category = "Customer Gaze"
	ArmMovement Category = "Customer Arm Movements"
	Number      Category = "Customer Number"
	Sex         Category = "Customer Sex"
	Age         Category = "Customer Age"
)

// Categories returns the canonical categories in declaration order.
// Summaries list recorded values in this order.
func Categories() []Category {
	return []Category{Movement, Location, Gaze, ArmMovement, Number, Sex, Age}
}

// Demographic reports whether the category is collected metadata that never
// influences the derived label.
func (c Category) Demographic() bool {
	switch c {
	case Number, Sex, Age:
		return true
	default:
		return false
	}
}

// Known values referenced by the decision rule.
const (
	Walking  = "Walking"
	Standing = "Standing"

	AtMirror  = "Mirror"
	AtShelf   = "Shelf"
	AtCounter = "Counter"
	AtAisle   = "Aisle"

	ArmPicking = "Picking"
	ArmHolding = "Holding"
	ArmWearing = "Wearing"
)

// Label is the single-word behaviour classification.
type Label string

const (
	Idle       Label = "Idle"
	Browsing   Label = "Browsing"
	Mirror     Label = "Mirror"
	Holding    Label = "Holding"
	Looking    Label = "Looking"
	Picking    Label = "Picking"
	Wearing    Label = "Wearing"
	Purchasing Label = "Purchasing"
)

// Labels returns the full output vocabulary.
func Labels() []Label {
	return []Label{Idle, Browsing, Mirror, Holding, Looking, Picking, Wearing, Purchasing}
}

// Selection is an optional category value. The zero value is absent.
// Two absent selections are equal under ==.
type Selection struct {
	Value   string
	Present bool
}

// None is the absent selection.
var None = Selection{}

// Some returns a present selection holding v.
func Some(v string) Selection {
	return Selection{Value: v, Present: true}
}

// Is reports whether the selection is present and holds v.
func (s Selection) Is(v string) bool {
	return s.Present && s.Value == v
}

func (s Selection) String() string {
	if !s.Present {
		return "<none>"
	}
	return s.Value
}

// Decision is the output of label derivation.
type Decision struct {
	Label   Label  `json:"label"`
	Summary string `json:"summary"`
	Rule    string `json:"rule"`
}

// Output renders the decision in the persisted text form.
func (d Decision) Output() string {
	return fmt.Sprintf("decision: [%s], label: [%s]", d.Summary, d.Label)
}
