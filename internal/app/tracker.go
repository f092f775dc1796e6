package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/domain"
	"github.com/padelwatch/padelwatch/internal/ports"
)

// ReportTopic est le sujet sous lequel chaque rapport non vide est publié
// sur le bus.
const ReportTopic = "report.changes"

// Tracker compare chaque snapshot au dernier état persisté et en déduit les
// événements notifiables: créneaux libérés (occupé→libre) et nouvelles dates
// de planning. C'est l'unique écrivain des deux stores; un mutex sérialise
// les cycles.
type Tracker struct {
	logger zerolog.Logger
	states ports.StateStore
	dates  ports.DateRegistry
	bus    ports.EventBus

	// RetentionDays: une entrée d'état est conservée tant que sa date n'est
	// pas antérieure à aujourd'hui moins ce nombre de jours. 0 = ne garder
	// que les dates d'aujourd'hui et au-delà. Les dates connues, elles, ne
	// sont jamais élaguées.
	RetentionDays int

	// now est remplaçable en test.
	now func() time.Time

	mu         sync.Mutex
	lastReport *domain.ChangeReport
}

func NewTracker(logger zerolog.Logger, states ports.StateStore, dates ports.DateRegistry, bus ports.EventBus) *Tracker {
	return &Tracker{
		logger: logger,
		states: states,
		dates:  dates,
		bus:    bus,
		now:    time.Now,
	}
}

// Process traite un snapshot complet. Par ligne du planning:
//
//   - occupé→libre émet un FreedSlot; un terrain sans état antérieur ne fait
//     qu'établir la base (pas de rafale de notifications au premier passage
//     sur une date inconnue);
//   - libre→occupé met à jour la base en silence, une re-réservation n'est
//     pas notifiable;
//   - la ligne stockée est remplacée par l'observation complète, pas par un
//     delta: le store reflète toujours le dernier état observé.
//
// Les événements ne sont renvoyés qu'après la mise à jour durable des deux
// stores. Un échec d'écriture est loggé et le rapport calculé est quand même
// renvoyé: au pire la même transition sera re-détectée au prochain cycle
// (at-least-once, jamais d'historique perdu en silence une fois sauvegardé).
func (t *Tracker) Process(ctx context.Context, snap domain.Snapshot) (domain.ChangeReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := domain.ChangeReport{
		ID:          xid.New().String(),
		GeneratedAt: t.now().UTC(),
		FreedSlots:  []domain.FreedSlot{},
		NewDates:    []string{},
	}

	if err := snap.Validate(); err != nil {
		// Violation de contrat: cycle rejeté, stores intacts.
		return report, fmt.Errorf("reject snapshot: %w", err)
	}

	prev, err := t.states.Load(ctx)
	if err != nil {
		// Les stores dégradent déjà la corruption en état vide; une erreur
		// ici est inattendue mais ne tue pas le cycle pour autant.
		t.logger.Warn().Err(err).Msg("state load failed, using empty baseline")
		prev = domain.PersistedState{}
	}

	next := prev.Clone()
	for key, courts := range snap.Grid {
		before := prev[key]
		for court, status := range courts {
			if status == domain.StatusFree && before[court] == domain.StatusOccupied {
				report.FreedSlots = append(report.FreedSlots, domain.FreedSlot{
					TimeLabel: key.TimeLabel,
					CourtID:   court,
					Date:      key.Date,
				})
			}
		}
		next[key] = courts.Clone()
	}
	sortFreed(report.FreedSlots)

	next.Prune(t.horizon())

	if err := t.states.Save(ctx, next); err != nil {
		t.logger.Warn().Err(err).Msg("state save failed, previous state kept on disk")
	}

	added, err := t.dates.Register(ctx, snap.Dates)
	if err != nil {
		t.logger.Warn().Err(err).Msg("date registry update failed")
	}
	report.NewDates = append(report.NewDates, added...)

	if !report.Empty() {
		t.logger.Info().
			Str("report_id", report.ID).
			Int("freed", len(report.FreedSlots)).
			Int("new_dates", len(report.NewDates)).
			Msg("changes detected")
		copied := report
		t.lastReport = &copied
		t.publish(report)
	}
	return report, nil
}

// LastReport renvoie le dernier rapport non vide du process courant, ou
// ports.ErrNotFound si aucun changement n'a encore été observé.
func (t *Tracker) LastReport() (domain.ChangeReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastReport == nil {
		return domain.ChangeReport{}, ports.ErrNotFound
	}
	return *t.lastReport, nil
}

func (t *Tracker) horizon() string {
	days := t.RetentionDays
	if days < 0 {
		days = 0
	}
	return t.now().AddDate(0, 0, -days).Format(domain.DateLayout)
}

func (t *Tracker) publish(report domain.ChangeReport) {
	if t.bus == nil {
		return
	}
	b, err := json.Marshal(report)
	if err != nil {
		return
	}
	t.bus.Publish(ReportTopic, b)
}

func sortFreed(slots []domain.FreedSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		if slots[i].TimeLabel != slots[j].TimeLabel {
			return slots[i].TimeLabel < slots[j].TimeLabel
		}
		return slots[i].CourtID < slots[j].CourtID
	})
}
