package label

import "testing"

func TestSummarizeCanonicalOrder(t *testing.T) {
	s := NewSelections()
	s.Set(Age, "Adult")
	s.Set(Gaze, AtShelf)
	s.Set(Movement, Standing)

	got := s.Summarize()
	want := "Customer Movement: Standing, Customer Gaze: Shelf, Customer Age: Adult"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	s := NewSelections()
	s.Set(Movement, Walking)
	s.Set(Number, "2")

	first := s.Summarize()
	second := s.Summarize()
	if first != second {
		t.Errorf("expected identical summaries, got %q and %q", first, second)
	}
}

func TestUnknownCategoryIgnored(t *testing.T) {
	s := NewSelections(Movement, Location)
	s.Set(Gaze, AtMirror)
	s.Set(Category("Customer Mood"), "Happy")

	if s.Get(Gaze).Present {
		t.Error("expected gaze to stay absent in a store that does not accept it")
	}
	if s.Accepts(Gaze) {
		t.Error("expected Accepts(gaze) to be false")
	}
	if got := s.Summarize(); got != "" {
		t.Errorf("expected empty summary, got %q", got)
	}
}

func TestEmptyValueClears(t *testing.T) {
	s := NewSelections()
	s.Set(Location, AtCounter)
	s.Set(Location, "")

	if s.Get(Location) != None {
		t.Errorf("expected location cleared, got %v", s.Get(Location))
	}
}

func TestAbsentSelectionsEqual(t *testing.T) {
	s := NewSelections()
	if s.Get(Location) != s.Get(Gaze) {
		t.Error("expected two absent selections to compare equal")
	}
	if Some(AtShelf) == None {
		t.Error("expected present selection to differ from None")
	}
	if Some("") == None {
		t.Error("expected a present empty value to differ from None")
	}
}

func TestCanonicalOrderIgnoresArgumentOrder(t *testing.T) {
	s := NewSelections(Gaze, Movement, Gaze, Location)
	cats := s.Categories()
	if len(cats) != 3 || cats[0] != Movement || cats[1] != Location || cats[2] != Gaze {
		t.Errorf("expected [movement location gaze], got %v", cats)
	}

	s.Set(Gaze, AtMirror)
	s.Set(Movement, Standing)
	s.Set(Location, AtShelf)
	want := "Customer Movement: Standing, Customer Location: Shelf, Customer Gaze: Mirror"
	if got := s.Summarize(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtraCategoriesFollowCanonical(t *testing.T) {
	mood := Category("Customer Mood")
	s := NewSelections(mood, Age, Movement, mood)
	cats := s.Categories()
	if len(cats) != 3 || cats[0] != Movement || cats[1] != Age || cats[2] != mood {
		t.Errorf("expected [movement age mood], got %v", cats)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSelections()
	s.Set(Movement, Standing)
	s.Set(Sex, "Male")

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	if snap["Customer Movement"] != Standing {
		t.Errorf("expected Standing, got %q", snap["Customer Movement"])
	}
	if snap["Customer Sex"] != "Male" {
		t.Errorf("expected Male, got %q", snap["Customer Sex"])
	}
}

func TestDemographicCategories(t *testing.T) {
	for _, c := range Categories() {
		want := c == Number || c == Sex || c == Age
		if c.Demographic() != want {
			t.Errorf("%s: expected Demographic()=%v", c, want)
		}
	}
}
