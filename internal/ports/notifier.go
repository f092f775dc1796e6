package ports

import (
	"context"

	"github.com/padelwatch/padelwatch/internal/domain"
)

// Notifier reçoit un ChangeReport et se charge seul de la mise en forme et
// de la livraison (mail, messagerie). Le tracker ne connaît ni le canal, ni
// les destinataires, ni le format du message.
type Notifier interface {
	Notify(ctx context.Context, report domain.ChangeReport) error
}
