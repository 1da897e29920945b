package rank

import (
	"testing"
	"time"

	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

func testPlace(t *testing.T, id string) place.Place {
	t.Helper()
	now := time.Now().UTC()
	return place.Reconstruct(id, "장소 "+id, "", "", "", "", 126.5, 33.4, nil, "", false, now, now)
}

func TestSort_DescendingScore(t *testing.T) {
	matches := []Match{
		New(testPlace(t, "p1"), 0.2),
		New(testPlace(t, "p2"), 0.9),
		New(testPlace(t, "p3"), 0.5),
	}

	Sort(matches)

	want := []float64{0.9, 0.5, 0.2}
	for i, w := range want {
		if matches[i].Score() != w {
			t.Errorf("matches[%d].Score() = %v, want %v", i, matches[i].Score(), w)
		}
	}
}

func TestSort_TieBreaksByAscendingID(t *testing.T) {
	matches := []Match{
		New(testPlace(t, "p-c"), 0.5),
		New(testPlace(t, "p-a"), 0.5),
		New(testPlace(t, "p-b"), 0.5),
	}

	Sort(matches)

	want := []string{"p-a", "p-b", "p-c"}
	for i, w := range want {
		p := matches[i].Place()
		if p.ID() != w {
			t.Errorf("matches[%d] = %s, want %s", i, p.ID(), w)
		}
	}
}

func TestTrim(t *testing.T) {
	matches := []Match{
		New(testPlace(t, "p1"), 0.9),
		New(testPlace(t, "p2"), 0.5),
	}

	if got := Trim(matches, 1); len(got) != 1 {
		t.Errorf("Trim(2, 1) len = %d, want 1", len(got))
	}
	if got := Trim(matches, 5); len(got) != 2 {
		t.Errorf("Trim(2, 5) len = %d, want 2", len(got))
	}
	if got := Trim(matches, 0); got != nil {
		t.Errorf("Trim(2, 0) = %v, want nil", got)
	}
	if got := Trim(matches, -1); got != nil {
		t.Errorf("Trim(2, -1) = %v, want nil", got)
	}
}
