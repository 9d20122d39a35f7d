package sync

import (
	"strings"
	"time"

	"todosync/internal/model"
)

// Matcher resolves concrete start/end times for date-only personal events
// by scanning the reference feed for a same-day event with an overlapping
// core title.
type Matcher struct {
	Titles TitleExtractor
}

// ResolveTimes finds the first reference event on the same calendar date as
// the personal event whose core title overlaps (substring in either
// direction, both normalized). Reference events without a time-of-day are
// skipped. Ties are broken by reference-feed order: the first hit wins,
// not the longest.
func (m Matcher) ResolveTimes(personal model.Event, reference []model.Event) (start, end time.Time, ok bool) {
	wantY, wantM, wantD := personal.Start.Date()
	personalTitle := m.Titles.CoreTitle(personal.Summary)

	for _, ref := range reference {
		if ref.DateOnly {
			continue
		}
		y, mo, d := ref.Start.Date()
		if y != wantY || mo != wantM || d != wantD {
			continue
		}
		refTitle := m.Titles.CoreTitle(ref.Summary)
		if titlesOverlap(personalTitle, refTitle) {
			return ref.Start, ref.End, true
		}
	}
	return time.Time{}, time.Time{}, false
}

func titlesOverlap(a, b string) bool {
	// Both sides normalized so whitespace/case drift between feeds does not
	// break the comparison.
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
