package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
)

// SweepstakesCloseJobParams configure the expiration sweep.
type SweepstakesCloseJobParams struct {
	Logger      *logger.Logger
	Sweepstakes expiredSweepstakesReader
	Winners     winnerSelector
}

type expiredSweepstakesReader interface {
	ListExpired(ctx context.Context, now time.Time) ([]models.Sweepstakes, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.SweepstakesStatus) (bool, error)
}

type winnerSelector interface {
	SelectWinners(ctx context.Context, sweepstakesID uuid.UUID) ([]models.SweepstakesWinner, error)
}

// NewSweepstakesCloseJob builds the job that ends expired sweepstakes
// and auto-draws their winners.
func NewSweepstakesCloseJob(params SweepstakesCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweepstakes == nil {
		return nil, fmt.Errorf("sweepstakes repository required")
	}
	if params.Winners == nil {
		return nil, fmt.Errorf("winner selector required")
	}
	return &sweepstakesCloseJob{
		logg:        params.Logger,
		sweepstakes: params.Sweepstakes,
		winners:     params.Winners,
		now:         time.Now,
	}, nil
}

type sweepstakesCloseJob struct {
	logg        *logger.Logger
	sweepstakes expiredSweepstakesReader
	winners     winnerSelector
	now         func() time.Time
}

func (j *sweepstakesCloseJob) Name() string { return "sweepstakes-close" }

func (j *sweepstakesCloseJob) Run(ctx context.Context) error {
	expired, err := j.sweepstakes.ListExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("query expired sweepstakes: %w", err)
	}

	closed := 0
	drawn := 0
	var errs []error
	for _, sweepstakes := range expired {
		ended, err := j.sweepstakes.TransitionStatus(ctx, sweepstakes.ID,
			enums.SweepstakesStatusActive, enums.SweepstakesStatusEnded)
		if err != nil {
			errs = append(errs, fmt.Errorf("end sweepstakes %s: %w", sweepstakes.ID, err))
			continue
		}
		if !ended {
			// Another worker beat us to it.
			continue
		}
		closed++

		if !sweepstakes.IsAutomatic {
			continue
		}
		if _, err := j.winners.SelectWinners(ctx, sweepstakes.ID); err != nil {
			if isAlreadyAnnounced(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("draw winners for %s: %w", sweepstakes.ID, err))
			continue
		}
		drawn++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"closed": closed, "drawn": drawn})
	j.logg.Info(logCtx, "sweepstakes close loop complete")
	return multierr.Combine(errs...)
}

func isAlreadyAnnounced(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeAlreadyAnnounced
}
