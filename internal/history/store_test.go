package history

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/labelsel/internal/label"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func decide(t *testing.T, pairs ...string) (label.Decision, map[string]string) {
	t.Helper()
	sel := label.NewSelections()
	for i := 0; i+1 < len(pairs); i += 2 {
		sel.Set(label.Category(pairs[i]), pairs[i+1])
	}
	return label.Derive(sel), sel.Snapshot()
}

func TestRecordAndGet(t *testing.T) {
	s := tempStore(t)
	d, snap := decide(t,
		string(label.Movement), label.Standing,
		string(label.Location), label.AtCounter,
		string(label.Gaze), label.AtCounter,
		string(label.ArmMovement), label.ArmHolding,
	)

	a, err := s.Record(d, snap, "s-1", "sha256:layout")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, label.Purchasing, got.Label)
	assert.Equal(t, "standing.colocated.counter.holding", got.Rule)
	assert.Equal(t, d.Summary, got.Summary)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, "sha256:layout", got.LayoutHash)
	assert.Equal(t, snap, got.Selections)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, 0)
}

func TestGetUnknown(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordEmptySelections(t *testing.T) {
	s := tempStore(t)
	a, err := s.Record(label.Derive(label.NewSelections()), nil, "s-empty", "")
	require.NoError(t, err)

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, label.Idle, got.Label)
	assert.Empty(t, got.Selections)
	assert.Empty(t, got.Summary)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := tempStore(t)
	var ids []string
	for _, m := range []string{label.Walking, label.Standing, "Running"} {
		d, snap := decide(t, string(label.Movement), m)
		a, err := s.Record(d, snap, "s-list", "")
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestCountByLabel(t *testing.T) {
	s := tempStore(t)
	for _, m := range []string{label.Walking, label.Walking, "", label.Walking} {
		d, snap := decide(t, string(label.Movement), m)
		_, err := s.Record(d, snap, "s-count", "")
		require.NoError(t, err)
	}

	counts, err := s.CountByLabel()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, LabelCount{Label: label.Browsing, Count: 3}, counts[0])
	assert.Equal(t, LabelCount{Label: label.Idle, Count: 1}, counts[1])
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s1, err := NewStore(path)
	require.NoError(t, err)
	d, snap := decide(t, string(label.Movement), label.Walking)
	a, err := s1.Record(d, snap, "s-reopen", "")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, label.Browsing, got.Label)
}
