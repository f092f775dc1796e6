package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/domain"
	"github.com/padelwatch/padelwatch/internal/ports"
)

// ReportLogger consomme les rapports publiés sur le bus et les journalise.
// La livraison réelle (mail, messagerie) appartient aux notifiers externes
// qui suivent /api/v1/events; ce consommateur garantit qu'une trace locale
// de chaque rapport existe même sans notifier branché.
type ReportLogger struct {
	logger zerolog.Logger
	bus    ports.EventBus
}

var _ ports.Notifier = (*ReportLogger)(nil)

func NewReportLogger(logger zerolog.Logger, bus ports.EventBus) *ReportLogger {
	return &ReportLogger{logger: logger, bus: bus}
}

func (rl *ReportLogger) Run(ctx context.Context) {
	ch, cancel := rl.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			rl.logger.Info().Msg("report logger stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Topic != ReportTopic {
				continue
			}
			var report domain.ChangeReport
			if err := json.Unmarshal(evt.Payload, &report); err != nil {
				rl.logger.Warn().Err(err).Msg("undecodable report on bus")
				continue
			}
			_ = rl.Notify(ctx, report)
		}
	}
}

func (rl *ReportLogger) Notify(ctx context.Context, report domain.ChangeReport) error {
	freed := make([]string, 0, len(report.FreedSlots))
	for _, slot := range report.FreedSlots {
		freed = append(freed, slot.CourtID+" "+slot.TimeLabel+" "+slot.Date)
	}
	rl.logger.Info().
		Str("report_id", report.ID).
		Time("generated_at", report.GeneratedAt).
		Strs("freed_slots", freed).
		Strs("new_dates", report.NewDates).
		Msg("change report")
	return nil
}
