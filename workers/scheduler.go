package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartScheduler roda o worker e o cron dentro do processo, para ambientes sem
// agendador externo (LOCAL_SCHEDULER=1). Para quando ctx é cancelado.
func StartScheduler(ctx context.Context, worker *PendingWorker, orchestrator *Orchestrator, workerEvery, cronEvery time.Duration) {
	go func() {
		ticker := time.NewTicker(workerEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processPending(ctx, worker)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cronEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := orchestrator.Run(ctx, Options{}); err != nil {
					log.Error().Err(err).Msg("scheduler: cron falhou")
				}
			}
		}
	}()
}

func processPending(ctx context.Context, worker *PendingWorker) {
	report, err := worker.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: process-pending falhou")
		return
	}
	if len(report.Results) > 0 {
		log.Info().
			Int("processed", report.Processed).
			Int("alerted", report.Alerted).
			Int("errors", report.Errors).
			Msg("scheduler: process-pending")
	}
}
