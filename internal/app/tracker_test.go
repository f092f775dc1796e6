package app

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/adapters/memorybus"
	"github.com/padelwatch/padelwatch/internal/domain"
)

type memStates struct {
	state   domain.PersistedState
	saveErr error
	saves   int
}

func (m *memStates) Load(ctx context.Context) (domain.PersistedState, error) {
	if m.state == nil {
		return domain.PersistedState{}, nil
	}
	return m.state.Clone(), nil
}

func (m *memStates) Save(ctx context.Context, state domain.PersistedState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = state.Clone()
	return nil
}

type memDates struct {
	known domain.DateSet
}

func (m *memDates) Load(ctx context.Context) (domain.DateSet, error) {
	if m.known == nil {
		return domain.DateSet{}, nil
	}
	return m.known, nil
}

func (m *memDates) Register(ctx context.Context, dates []string) ([]string, error) {
	if m.known == nil {
		m.known = domain.DateSet{}
	}
	var added []string
	for _, d := range dates {
		if m.known.Contains(d) {
			continue
		}
		m.known[d] = struct{}{}
		added = append(added, d)
	}
	sort.Strings(added)
	return added, nil
}

func newTestTracker(states *memStates, dates *memDates) *Tracker {
	tr := NewTracker(zerolog.Nop(), states, dates, nil)
	// Horloge figée au matin du 6 janvier pour que l'élagage soit prévisible.
	tr.now = func() time.Time {
		return time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	}
	return tr
}

func snapshotOf(timeLabel, date string, courts domain.CourtStatuses) domain.Snapshot {
	return domain.Snapshot{
		Grid: map[domain.GridKey]domain.CourtStatuses{
			{TimeLabel: timeLabel, Date: date}: courts,
		},
		Dates: []string{date},
	}
}

func TestTracker_FirstFreedSlot(t *testing.T) {
	states := &memStates{}
	tr := newTestTracker(states, &memDates{})
	ctx := context.Background()

	report, err := tr.Process(ctx, snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusOccupied}))
	if err != nil {
		t.Fatalf("Process(cycle 1): %v", err)
	}
	if len(report.FreedSlots) != 0 {
		t.Fatalf("cycle 1 should not free anything, got %v", report.FreedSlots)
	}

	report, err = tr.Process(ctx, snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusFree}))
	if err != nil {
		t.Fatalf("Process(cycle 2): %v", err)
	}
	if len(report.FreedSlots) != 1 {
		t.Fatalf("expected exactly one freed slot, got %v", report.FreedSlots)
	}
	got := report.FreedSlots[0]
	if got.TimeLabel != "11H00" || got.CourtID != "Padel 1" || got.Date != "2025-01-06" {
		t.Fatalf("unexpected freed slot: %+v", got)
	}
}

func TestTracker_NoEventsFromEmptyBaseline(t *testing.T) {
	tr := newTestTracker(&memStates{}, &memDates{})

	report, err := tr.Process(context.Background(), snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{
		"Padel 1": domain.StatusFree,
		"Padel 2": domain.StatusFree,
		"Padel 3": domain.StatusFree,
		"Padel 4": domain.StatusFree,
	}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(report.FreedSlots) != 0 {
		t.Fatalf("a slot with no prior status must not be reported as freed: %v", report.FreedSlots)
	}
}

func TestTracker_ReoccupationIsSilent(t *testing.T) {
	states := &memStates{}
	tr := newTestTracker(states, &memDates{})
	ctx := context.Background()

	if _, err := tr.Process(ctx, snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 2": domain.StatusFree})); err != nil {
		t.Fatalf("Process(cycle 1): %v", err)
	}

	report, err := tr.Process(ctx, snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 2": domain.StatusOccupied}))
	if err != nil {
		t.Fatalf("Process(cycle 2): %v", err)
	}
	if !report.Empty() {
		t.Fatalf("libre→occupé should be silent, got %+v", report)
	}

	key := domain.GridKey{TimeLabel: "11H00", Date: "2025-01-06"}
	if states.state[key]["Padel 2"] != domain.StatusOccupied {
		t.Fatalf("baseline should have been updated to occupé, got %v", states.state[key])
	}
}

func TestTracker_NewDateDiscovery(t *testing.T) {
	tr := newTestTracker(&memStates{}, &memDates{})
	ctx := context.Background()

	snap := snapshotOf("11H00", "2025-02-10", domain.CourtStatuses{"Padel 1": domain.StatusOccupied})
	report, err := tr.Process(ctx, snap)
	if err != nil {
		t.Fatalf("Process(cycle 1): %v", err)
	}
	if len(report.NewDates) != 1 || report.NewDates[0] != "2025-02-10" {
		t.Fatalf("expected NewDateDiscovered(2025-02-10), got %v", report.NewDates)
	}

	report, err = tr.Process(ctx, snap)
	if err != nil {
		t.Fatalf("Process(cycle 2): %v", err)
	}
	if len(report.NewDates) != 0 {
		t.Fatalf("second sighting of a known date must not be reported: %v", report.NewDates)
	}
}

func TestTracker_RejectsMalformedSnapshot(t *testing.T) {
	states := &memStates{}
	dates := &memDates{}
	tr := newTestTracker(states, dates)

	snap := snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": "peut-être"})
	report, err := tr.Process(context.Background(), snap)
	if err == nil {
		t.Fatalf("expected rejection of malformed snapshot")
	}
	if !report.Empty() {
		t.Fatalf("rejected cycle must produce an empty report, got %+v", report)
	}
	if states.saves != 0 || len(dates.known) != 0 {
		t.Fatalf("rejected cycle must not touch the stores")
	}
}

func TestTracker_SaveFailureStillReports(t *testing.T) {
	key := domain.GridKey{TimeLabel: "11H00", Date: "2025-01-06"}
	states := &memStates{state: domain.PersistedState{key: {"Padel 1": domain.StatusOccupied}}}
	states.saveErr = errors.New("disque plein")
	tr := newTestTracker(states, &memDates{known: domain.DateSet{"2025-01-06": {}}})

	report, err := tr.Process(context.Background(), snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusFree}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// La persistance a échoué mais le rapport du cycle est quand même rendu.
	if len(report.FreedSlots) != 1 {
		t.Fatalf("expected the computed freed slot despite the save failure, got %v", report.FreedSlots)
	}
	if states.state[key]["Padel 1"] != domain.StatusOccupied {
		t.Fatalf("failed save must leave the previous state intact")
	}
}

func TestTracker_PruneOldEntries(t *testing.T) {
	old := domain.GridKey{TimeLabel: "11H00", Date: "2025-01-02"}
	states := &memStates{state: domain.PersistedState{old: {"Padel 1": domain.StatusOccupied}}}
	tr := newTestTracker(states, &memDates{})

	if _, err := tr.Process(context.Background(), snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusFree})); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, kept := states.state[old]; kept {
		t.Fatalf("entry older than the horizon should have been pruned")
	}

	// Avec une rétention de 7 jours la même entrée survit.
	states = &memStates{state: domain.PersistedState{old: {"Padel 1": domain.StatusOccupied}}}
	tr = newTestTracker(states, &memDates{})
	tr.RetentionDays = 7
	if _, err := tr.Process(context.Background(), snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusFree})); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, kept := states.state[old]; !kept {
		t.Fatalf("entry inside the retention window should have been kept")
	}
}

func TestTracker_PublishesNonEmptyReports(t *testing.T) {
	bus := memorybus.New()
	defer bus.Close()
	ch, cancel := bus.Subscribe()
	defer cancel()

	tr := NewTracker(zerolog.Nop(), &memStates{}, &memDates{}, bus)
	tr.now = func() time.Time {
		return time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	}

	if _, err := tr.Process(context.Background(), snapshotOf("11H00", "2025-01-06", domain.CourtStatuses{"Padel 1": domain.StatusFree})); err != nil {
		t.Fatalf("Process: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Topic != ReportTopic {
			t.Fatalf("unexpected topic %q", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a report on the bus")
	}

	if _, err := tr.LastReport(); err != nil {
		t.Fatalf("LastReport should be set after a non-empty report: %v", err)
	}
}
