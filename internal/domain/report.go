package domain

import "time"

// FreedSlot: transition occupé→libre détectée pour un créneau, relative à la
// dernière observation persistée.
type FreedSlot struct {
	TimeLabel string `json:"time"`
	CourtID   string `json:"court"`
	Date      string `json:"date"`
}

// ChangeReport est le résultat d'un cycle de traitement. Un rapport vide est
// un résultat normal et fréquent: l'absence de changement n'est pas une
// erreur.
type ChangeReport struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generatedAt"`
	FreedSlots  []FreedSlot `json:"freedSlots"`
	NewDates    []string    `json:"newDates"`
}

func (r ChangeReport) Empty() bool {
	return len(r.FreedSlots) == 0 && len(r.NewDates) == 0
}
