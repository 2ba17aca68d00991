package main

import (
	"github.com/plastinin/jobwatch/internal/adapter/queue"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/usecase"
)

// monitorOptions собирает настройки монитора. Очередь итогов подключается,
// только при OUTCOMES_ENABLED; closeFn закрывает её после Monitor.Wait.
func monitorOptions(cfg *config.Config) (opts []usecase.MonitorOption, closeFn func() error) {
	closeFn = func() error { return nil }

	if cfg.JobAPI.MaxPollErrors > 0 {
		opts = append(opts, usecase.WithMaxPollErrors(cfg.JobAPI.MaxPollErrors))
	}
	if cfg.Outcomes.Enabled {
		producer := queue.NewOutcomeProducer(cfg.Redis)
		opts = append(opts, usecase.WithOutcomePublisher(producer))
		closeFn = producer.Close
	}
	return opts, closeFn
}
