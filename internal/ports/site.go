package ports

import (
	"context"

	"github.com/padelwatch/padelwatch/internal/domain"
)

// SiteAdapter fournit le snapshot d'un cycle de scrape. L'implémentation vit
// hors de ce dépôt (login, parsing HTML, retries réseau). Contrat: chaque
// statut est l'une des deux valeurs de l'énumération, les dates sont en
// ISO-8601, les terrains sont identifiés de façon stable entre les appels.
// Une erreur signifie "pas de snapshot ce cycle", rien de plus: le tracker
// saute le cycle et ne touche à rien.
type SiteAdapter interface {
	Fetch(ctx context.Context) (domain.Snapshot, error)
}
