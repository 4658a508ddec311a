package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// SweepstakesActivateJobParams configure the activation sweep.
type SweepstakesActivateJobParams struct {
	Logger      *logger.Logger
	Sweepstakes dueSweepstakesActivator
}

type dueSweepstakesActivator interface {
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}

// NewSweepstakesActivateJob builds the job that flips upcoming
// sweepstakes to active once their start date passes.
func NewSweepstakesActivateJob(params SweepstakesActivateJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweepstakes == nil {
		return nil, fmt.Errorf("sweepstakes repository required")
	}
	return &sweepstakesActivateJob{
		logg:        params.Logger,
		sweepstakes: params.Sweepstakes,
		now:         time.Now,
	}, nil
}

type sweepstakesActivateJob struct {
	logg        *logger.Logger
	sweepstakes dueSweepstakesActivator
	now         func() time.Time
}

func (j *sweepstakesActivateJob) Name() string { return "sweepstakes-activate" }

func (j *sweepstakesActivateJob) Run(ctx context.Context) error {
	activated, err := j.sweepstakes.ActivateDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("activate due sweepstakes: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"activated": activated})
	j.logg.Info(logCtx, "sweepstakes activation loop complete")
	return nil
}
