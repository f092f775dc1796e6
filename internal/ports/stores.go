package ports

import (
	"context"

	"github.com/padelwatch/padelwatch/internal/domain"
)

// StateStore conserve le dernier état connu de chaque ligne du planning.
//
// Load ne doit jamais échouer pour cause d'historique absent ou corrompu:
// un démarrage à froid renvoie simplement un état vide. Save doit laisser le
// store sur son dernier état valide en cas d'échec (jamais à moitié écrit).
type StateStore interface {
	Load(ctx context.Context) (domain.PersistedState, error)
	Save(ctx context.Context, state domain.PersistedState) error
}

// DateRegistry trace les dates de planning déjà rencontrées, pour distinguer
// "nouvelle date apparue" de "re-vérification d'une date connue".
type DateRegistry interface {
	Load(ctx context.Context) (domain.DateSet, error)
	// Register fusionne les dates données dans l'ensemble connu et renvoie
	// celles qui n'étaient pas encore présentes, triées. Idempotent: la même
	// date enregistrée deux fois ne ressort qu'une seule fois. Les dates
	// renvoyées restent valables même si la persistance a échoué (l'appelant
	// décide quoi faire de l'erreur).
	Register(ctx context.Context, dates []string) ([]string, error)
}
