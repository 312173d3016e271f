package engine

import (
	"math/rand"
	"sort"
)

// Defaults bounding the placement search.
const (
	DefaultBacktrackBudget  = 4
	DefaultMaxAttempts      = 3
	DefaultTeacherWeeklyCap = 30
)

// Config governs one generation run. The seed makes runs reproducible:
// identical inputs and seed produce identical output.
type Config struct {
	Seed             int64
	BacktrackBudget  int
	MaxAttempts      int
	TeacherWeeklyCap int
}

func (c Config) withDefaults() Config {
	if c.BacktrackBudget <= 0 {
		c.BacktrackBudget = DefaultBacktrackBudget
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.TeacherWeeklyCap <= 0 {
		c.TeacherWeeklyCap = DefaultTeacherWeeklyCap
	}
	return c
}

// Generate runs the full pipeline for one catalog: demand expansion,
// per-class feasibility, bounded random-restart placement and the post-run
// integrity audit. Units of infeasible class/session pairs are excluded from
// placement and reported; everything else proceeds best-effort. The restart
// loop keeps the attempt with the fewest conflicts, re-seeding the PRNG per
// attempt, and resets all availability state between attempts.
func Generate(catalog Catalog, demands []Demand, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	units := BuildLessonUnits(demands)
	shortfalls := CheckFeasibility(catalog, units)

	infeasible := make(map[string]map[Session]bool)
	for _, s := range shortfalls {
		if infeasible[s.ClassID] == nil {
			infeasible[s.ClassID] = make(map[Session]bool)
		}
		infeasible[s.ClassID][s.Session] = true
	}

	var placeable []LessonUnit
	var conflicts []Conflict
	for _, unit := range units {
		if infeasible[unit.ClassID][unit.Session] {
			conflicts = append(conflicts, Conflict{
				ClassID:   unit.ClassID,
				SubjectID: unit.SubjectID,
				TeacherID: unit.TeacherID,
				Session:   unit.Session,
				Reason:    ReasonInfeasibleDemand,
			})
			continue
		}
		placeable = append(placeable, unit)
	}

	var best *placementRun
	attempts := 0
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		attempts = attempt + 1
		rng := rand.New(rand.NewSource(cfg.Seed + int64(attempt)))
		run := newPlacementRun(catalog, rng, cfg.BacktrackBudget)
		run.placeAll(placeable)
		if best == nil || len(run.conflicts) < len(best.conflicts) {
			best = run
		}
		if len(best.conflicts) == 0 {
			break
		}
	}

	assignments := best.export()
	if err := auditIntegrity(assignments); err != nil {
		return nil, err
	}

	allConflicts := append(conflicts, best.conflicts...)
	overloads := DetectOverloads(assignments, cfg.TeacherWeeklyCap)
	return &Result{
		Assignments: assignments,
		Report:      buildReport(assignments, allConflicts, shortfalls, overloads, attempts),
	}, nil
}

// placementRun holds the mutable state of a single placement attempt.
type placementRun struct {
	catalog   Catalog
	usage     *usageTracker
	rng       *rand.Rand
	budget    int
	placed    []Assignment
	conflicts []Conflict
}

func newPlacementRun(catalog Catalog, rng *rand.Rand, budget int) *placementRun {
	return &placementRun{
		catalog: catalog,
		usage:   newUsageTracker(),
		rng:     rng,
		budget:  budget,
	}
}

// placeAll walks classes in deterministic order and places each class's
// units most-constrained first: units with the fewest legal candidate slots
// go first, which sharply reduces late-stage conflicts compared to a pure
// shuffle.
func (r *placementRun) placeAll(units []LessonUnit) {
	byClass := make(map[string][]LessonUnit)
	var classes []string
	for _, unit := range units {
		if _, ok := byClass[unit.ClassID]; !ok {
			classes = append(classes, unit.ClassID)
		}
		byClass[unit.ClassID] = append(byClass[unit.ClassID], unit)
	}
	sort.Strings(classes)

	for _, classID := range classes {
		classUnits := byClass[classID]
		sort.SliceStable(classUnits, func(i, j int) bool {
			return r.legalCandidates(classUnits[i]) < r.legalCandidates(classUnits[j])
		})
		for _, unit := range classUnits {
			if r.placeUnit(unit) {
				continue
			}
			r.conflicts = append(r.conflicts, Conflict{
				ClassID:   unit.ClassID,
				SubjectID: unit.SubjectID,
				TeacherID: unit.TeacherID,
				Session:   unit.Session,
				Reason:    ReasonNoLegalSlot,
			})
		}
	}
}

// legalCandidates counts slots currently legal for the unit.
func (r *placementRun) legalCandidates(unit LessonUnit) int {
	count := 0
	for _, slot := range r.catalog.Eligible(unit.Session) {
		if r.usage.Free(unit.ClassID, unit.TeacherID, slot.Day, slot.Period) {
			count++
		}
	}
	return count
}

// placeUnit scans a shuffled candidate list for a cell that is free for both
// the class and the teacher. When none exists it spends the backtrack budget
// relocating earlier same-class placements to open a legal cell, and reports
// failure once the budget is exhausted.
func (r *placementRun) placeUnit(unit LessonUnit) bool {
	if r.tryPlace(unit) {
		return true
	}
	for step := 0; step < r.budget; step++ {
		if !r.backtrackOnce(unit) {
			return false
		}
		if r.tryPlace(unit) {
			return true
		}
	}
	return false
}

func (r *placementRun) tryPlace(unit LessonUnit) bool {
	for _, slot := range r.shuffledCandidates(unit.Session) {
		if r.usage.Free(unit.ClassID, unit.TeacherID, slot.Day, slot.Period) {
			r.commit(unit, slot)
			return true
		}
	}
	return false
}

func (r *placementRun) shuffledCandidates(session Session) []Slot {
	candidates := r.catalog.Eligible(session)
	r.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates
}

func (r *placementRun) commit(unit LessonUnit, slot Slot) {
	r.usage.Reserve(unit.ClassID, unit.TeacherID, slot.Day, slot.Period)
	r.placed = append(r.placed, Assignment{
		ClassID:   unit.ClassID,
		SubjectID: unit.SubjectID,
		TeacherID: unit.TeacherID,
		SlotID:    slot.ID,
		Day:       slot.Day,
		Period:    slot.Period,
		Session:   unit.Session,
		Shift:     slot.Shift,
	})
}

// backtrackOnce undoes the most recent placement for the same class and
// session that can legally move elsewhere, freeing its cell for the stuck
// unit's retry. Returns false when no placed unit can move.
func (r *placementRun) backtrackOnce(unit LessonUnit) bool {
	for i := len(r.placed) - 1; i >= 0; i-- {
		prev := r.placed[i]
		if prev.ClassID != unit.ClassID || prev.Session != unit.Session {
			continue
		}
		target, ok := r.relocationTarget(prev)
		if !ok {
			continue
		}
		r.usage.Release(prev.ClassID, prev.TeacherID, prev.Day, prev.Period)
		r.usage.Reserve(prev.ClassID, prev.TeacherID, target.Day, target.Period)
		prev.SlotID = target.ID
		prev.Day = target.Day
		prev.Period = target.Period
		prev.Shift = target.Shift
		r.placed[i] = prev
		return true
	}
	return false
}

// relocationTarget finds a different cell the assignment could occupy.
func (r *placementRun) relocationTarget(a Assignment) (Slot, bool) {
	for _, slot := range r.shuffledCandidates(a.Session) {
		if slot.Day == a.Day && slot.Period == a.Period {
			continue
		}
		if r.usage.Free(a.ClassID, a.TeacherID, slot.Day, slot.Period) {
			return slot, true
		}
	}
	return Slot{}, false
}

// export returns the attempt's assignments ordered by class, day, period.
func (r *placementRun) export() []Assignment {
	assignments := make([]Assignment, len(r.placed))
	copy(assignments, r.placed)
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].ClassID != assignments[j].ClassID {
			return assignments[i].ClassID < assignments[j].ClassID
		}
		if assignments[i].Day != assignments[j].Day {
			return assignments[i].Day < assignments[j].Day
		}
		return assignments[i].Period < assignments[j].Period
	})
	return assignments
}
