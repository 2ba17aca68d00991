package main

import (
	"testing"

	"github.com/plastinin/jobwatch/internal/config"
)

func TestMonitorOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantOpts int
	}{
		{
			name:     "outcomes disabled",
			cfg:      config.Config{},
			wantOpts: 0,
		},
		{
			name:     "error cap only",
			cfg:      config.Config{JobAPI: config.JobAPIConfig{MaxPollErrors: 3}},
			wantOpts: 1,
		},
		{
			name: "outcomes enabled",
			cfg: config.Config{
				Outcomes: config.OutcomesConfig{Enabled: true},
				Redis:    config.RedisConfig{Host: "localhost", Port: 6379},
			},
			wantOpts: 1,
		},
		{
			name: "everything",
			cfg: config.Config{
				JobAPI:   config.JobAPIConfig{MaxPollErrors: 3},
				Outcomes: config.OutcomesConfig{Enabled: true},
				Redis:    config.RedisConfig{Host: "localhost", Port: 6379},
			},
			wantOpts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, closeFn := monitorOptions(&tt.cfg)
			defer closeFn()

			if len(opts) != tt.wantOpts {
				t.Fatalf("got %d options, want %d", len(opts), tt.wantOpts)
			}
		})
	}
}
