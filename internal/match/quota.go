package match

import (
	"log/slog"
	"math"

	"github.com/epicast/synthplaces/internal/place"
)

// Quota tracks per-hospital primary-care panel sizes: the total
// population a hospital is designated to serve and the count assigned
// so far. The matcher reads it as an eligibility gate; callers record
// successful picks through Assign.
type Quota struct {
	prepared bool
	total    map[int]int
	current  map[int]int
}

// NewQuota returns an unprepared tracker.
func NewQuota() *Quota {
	return &Quota{
		total:   make(map[int]int),
		current: make(map[int]int),
	}
}

// Prepare computes each hospital's total panel size from its share of
// system daily capacity. Idempotent: the first call wins.
func (q *Quota) Prepare(reg *place.Registry, popSize, overallPanelSize int) {
	if q.prepared {
		return
	}
	if overallPanelSize <= 0 {
		panic("match: overall panel size must be positive")
	}
	for i := 0; i < reg.Hospitals(); i++ {
		h := reg.HospitalAt(i)
		// Raw daily capacity, not the open-window gated value: a
		// hospital closed on day zero still carries a panel share.
		proportion := 0.0
		if h.Subtype != place.SubtypeMobileClinic {
			proportion = float64(h.Hosp.DailyCapacity) / float64(overallPanelSize)
		}
		q.total[h.ID] = int(math.Ceil(proportion * float64(popSize)))
		q.current[h.ID] = 0
	}
	q.prepared = true
	slog.Info("primary care panels prepared",
		"hospitals", reg.Hospitals(), "population", popSize)
}

// Prepared reports whether panel sizes have been computed.
func (q *Quota) Prepared() bool { return q.prepared }

// HasHeadroom reports whether a hospital's panel can take one more
// assignment. Unknown hospitals have no headroom.
func (q *Quota) HasHeadroom(hospitalID int) bool {
	total, ok := q.total[hospitalID]
	return ok && q.current[hospitalID] < total
}

// Assign records one successful primary-care pick. Returns false and
// logs when the panel is already full; the count never exceeds total.
func (q *Quota) Assign(hospitalID int) bool {
	if !q.HasHeadroom(hospitalID) {
		slog.Warn("primary care panel full", "hospital", hospitalID,
			"total", q.total[hospitalID])
		return false
	}
	q.current[hospitalID]++
	return true
}

// Assigned returns the current assigned count for a hospital.
func (q *Quota) Assigned(hospitalID int) int { return q.current[hospitalID] }

// Total returns the total panel size for a hospital.
func (q *Quota) Total(hospitalID int) int { return q.total[hospitalID] }
