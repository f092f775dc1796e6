package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SlotStatus est l'état d'un créneau tel qu'affiché sur le planning.
// Deux valeurs seulement: une case que le Site Adapter ne sait pas classer
// doit arriver ici en "occupé" — jamais de notification sur une case douteuse.
type SlotStatus string

const (
	StatusFree     SlotStatus = "libre"
	StatusOccupied SlotStatus = "occupé"
)

func (s SlotStatus) Valid() bool {
	return s == StatusFree || s == StatusOccupied
}

// DateLayout: toutes les dates du domaine sont en ISO-8601.
const DateLayout = "2006-01-02"

// GridKey identifie une ligne du planning: un horaire sur une date.
// La forme "11H00|2025-01-06" n'existe qu'aux frontières de sérialisation
// (fichiers d'état, API HTTP); en mémoire on manipule la forme structurée.
type GridKey struct {
	TimeLabel string // ex: "11H00"
	Date      string // ISO-8601, ex: "2025-01-06"
}

func (k GridKey) StateKey() string {
	return k.TimeLabel + "|" + k.Date
}

func ParseStateKey(s string) (GridKey, error) {
	var timeLabel, date string
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			timeLabel, date = s[:i], s[i+1:]
			break
		}
	}
	if timeLabel == "" || date == "" {
		return GridKey{}, fmt.Errorf("malformed state key %q", s)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return GridKey{}, fmt.Errorf("malformed state key %q: %w", s, err)
	}
	return GridKey{TimeLabel: timeLabel, Date: date}, nil
}

// CourtStatuses: état de chaque terrain pour une ligne du planning.
// Les terrains sont identifiés par position ("Padel 1".."Padel 4"), stables
// d'un scrape à l'autre pour une même ligne (contrat du Site Adapter).
type CourtStatuses map[string]SlotStatus

func (c CourtStatuses) Clone() CourtStatuses {
	out := make(CourtStatuses, len(c))
	for court, status := range c {
		out[court] = status
	}
	return out
}

// Snapshot est la vue complète d'un scrape: la grille des états observés,
// plus toutes les dates que le site liste actuellement comme réservables.
type Snapshot struct {
	Grid  map[GridKey]CourtStatuses
	Dates []string
}

// Validate rejette les snapshots qui violent le contrat du Site Adapter.
// Un snapshot refusé ne touche jamais aux stores.
func (s Snapshot) Validate() error {
	if s.Grid == nil {
		return fmt.Errorf("snapshot: nil grid")
	}
	for key, courts := range s.Grid {
		if key.TimeLabel == "" {
			return fmt.Errorf("snapshot: empty time label for date %q", key.Date)
		}
		if _, err := time.Parse(DateLayout, key.Date); err != nil {
			return fmt.Errorf("snapshot: bad date in key %q: %w", key.StateKey(), err)
		}
		if len(courts) == 0 {
			return fmt.Errorf("snapshot: no courts for %q", key.StateKey())
		}
		for court, status := range courts {
			if court == "" {
				return fmt.Errorf("snapshot: empty court id for %q", key.StateKey())
			}
			if !status.Valid() {
				return fmt.Errorf("snapshot: unknown status %q for %q / %q", status, key.StateKey(), court)
			}
		}
	}
	for _, d := range s.Dates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("snapshot: bad bookable date %q: %w", d, err)
		}
	}
	return nil
}

// PersistedState: dernier état complet connu de chaque ligne jamais observée.
// Le format fichier est un objet plat {"11H00|2025-01-06": {"Padel 1": "libre"}}
// et doit rester lisible par toutes les versions déployées.
type PersistedState map[GridKey]CourtStatuses

func (p PersistedState) Clone() PersistedState {
	out := make(PersistedState, len(p))
	for key, courts := range p {
		out[key] = courts.Clone()
	}
	return out
}

// Prune supprime les entrées dont la date est antérieure à l'horizon donné
// (ISO-8601; la comparaison lexicographique suffit).
func (p PersistedState) Prune(horizon string) {
	for key := range p {
		if key.Date < horizon {
			delete(p, key)
		}
	}
}

func (p PersistedState) MarshalJSON() ([]byte, error) {
	flat := make(map[string]CourtStatuses, len(p))
	for key, courts := range p {
		flat[key.StateKey()] = courts
	}
	return json.Marshal(flat)
}

func (p *PersistedState) UnmarshalJSON(data []byte) error {
	var flat map[string]CourtStatuses
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(PersistedState, len(flat))
	for raw, courts := range flat {
		key, err := ParseStateKey(raw)
		if err != nil {
			return err
		}
		for court, status := range courts {
			if !status.Valid() {
				return fmt.Errorf("state entry %q: unknown status %q for %q", raw, status, court)
			}
		}
		out[key] = courts
	}
	*p = out
	return nil
}

// DateSet est l'ensemble des dates de planning déjà rencontrées. Le format
// fichier groupe par mois ("2025-01": [dates triées]) pour la localité de
// stockage; l'entité logique reste un ensemble plat sans doublon.
type DateSet map[string]struct{}

func (d DateSet) Contains(date string) bool {
	_, ok := d[date]
	return ok
}

func (d DateSet) Sorted() []string {
	out := make([]string, 0, len(d))
	for date := range d {
		out = append(out, date)
	}
	sort.Strings(out)
	return out
}

func (d DateSet) MarshalJSON() ([]byte, error) {
	byMonth := make(map[string][]string)
	for date := range d {
		month := date[:len("2006-01")]
		byMonth[month] = append(byMonth[month], date)
	}
	for _, days := range byMonth {
		sort.Strings(days)
	}
	return json.Marshal(byMonth)
}

func (d *DateSet) UnmarshalJSON(data []byte) error {
	var byMonth map[string][]string
	if err := json.Unmarshal(data, &byMonth); err != nil {
		return err
	}
	out := make(DateSet)
	for _, days := range byMonth {
		for _, date := range days {
			if _, err := time.Parse(DateLayout, date); err != nil {
				return fmt.Errorf("known dates: bad date %q: %w", date, err)
			}
			out[date] = struct{}{}
		}
	}
	*d = out
	return nil
}
