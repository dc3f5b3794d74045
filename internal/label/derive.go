package label

// Arm movements that replace "Looking" when location and gaze are both the shelf.
var colocatedShelfArms = map[string]Label{
	ArmPicking: Picking,
	ArmHolding: Holding,
	ArmWearing: Wearing,
}

// Arm movements that replace "Looking" when only the gaze is on the shelf.
// Holding is deliberately absent here.
var gazeShelfArms = map[string]Label{
	ArmPicking: Picking,
	ArmWearing: Wearing,
}

// Derive computes the label and summary for the current selections.
// It never fails; demographic categories only reach the summary.
func Derive(sel *Selections) Decision {
	l, rule := Evaluate(sel.Get(Movement), sel.Get(Location), sel.Get(Gaze), sel.Get(ArmMovement))
	return Decision{
		Label:   l,
		Summary: sel.Summarize(),
		Rule:    rule,
	}
}

// Evaluate applies the decision rule to movement, location, gaze and arm
// movement, returning the label and the ID of the branch that produced it.
//
// Evaluation order (must not be changed):
//  1. Movement: Walking browses, anything but Standing idles
//  2. Location == Gaze (two absent values are equal): co-located rules
//  3. Location != Gaze: gaze-led rules
func Evaluate(m, l, g, a Selection) (Label, string) {
	switch {
	case m.Is(Walking):
		return Browsing, "movement.walking"
	case !m.Is(Standing):
		return Idle, "movement.other"
	}

	if l == g {
		return colocated(l, a)
	}
	return gazeLed(l, g, a)
}

func colocated(l, a Selection) (Label, string) {
	switch {
	case l.Is(AtMirror):
		if a.Is(ArmHolding) {
			return Holding, "standing.colocated.mirror.holding"
		}
		return Mirror, "standing.colocated.mirror"
	case l.Is(AtShelf):
		if lbl, ok := armLabel(colocatedShelfArms, a); ok {
			return lbl, "standing.colocated.shelf.arm"
		}
		return Looking, "standing.colocated.shelf"
	case l.Is(AtCounter):
		if a.Is(ArmHolding) {
			return Purchasing, "standing.colocated.counter.holding"
		}
		return Idle, "standing.colocated.counter"
	case l.Is(AtAisle):
		return Browsing, "standing.colocated.aisle"
	default:
		return Idle, "standing.colocated.other"
	}
}

func gazeLed(l, g, a Selection) (Label, string) {
	switch {
	case l.Is(AtShelf) && g.Is(AtMirror):
		return Mirror, "standing.shelf_to_mirror"
	case g.Is(AtMirror):
		if a.Is(ArmHolding) {
			return Holding, "standing.gaze.mirror.holding"
		}
		return Mirror, "standing.gaze.mirror"
	case g.Is(AtShelf):
		if lbl, ok := armLabel(gazeShelfArms, a); ok {
			return lbl, "standing.gaze.shelf.arm"
		}
		return Looking, "standing.gaze.shelf"
	default:
		return Looking, "standing.gaze.other"
	}
}

func armLabel(qualifying map[string]Label, a Selection) (Label, bool) {
	if !a.Present {
		return "", false
	}
	lbl, ok := qualifying[a.Value]
	return lbl, ok
}
