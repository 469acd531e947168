package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/openportal/subscribe-notifier/pkg/logger/types"
	"github.com/robfig/cron/v3"
)

type dispatcher interface {
	RunImmediate(ctx context.Context, now time.Time) error
	RunDaily(ctx context.Context, now time.Time) error
	RunWeekly(ctx context.Context, now time.Time) error
}

type lockStorage interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// Scheduler triggers the notification tiers on their cadence. The
// immediate tier is polled on a short interval; the daily and weekly
// tiers are checked once a minute and decide inside dispatch whether
// they are due. A redis lock per tier keeps two processes from running
// the same tier concurrently; ticks of different tiers may overlap.
type Scheduler struct {
	cron         *cron.Cron
	dispatch     dispatcher
	locks        lockStorage
	pollInterval time.Duration
	lockTTL      time.Duration

	logger *types.Logger
}

func New(
	dispatch dispatcher,
	locks lockStorage,
	location *time.Location,
	pollInterval time.Duration,
	logger *types.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		dispatch:     dispatch,
		locks:        locks,
		pollInterval: pollInterval,
		// a tick that outlives its lock would allow an overlapping run;
		// size the TTL generously above any realistic tick duration
		lockTTL: 15 * time.Minute,
		logger:  logger,
	}
}

// Start registers the tier entries and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.pollInterval), func() {
		s.tick("immediate", s.dispatch.RunImmediate)
	})
	if err != nil {
		return err
	}
	_, err = s.cron.AddFunc("@every 1m", func() {
		s.tick("daily", s.dispatch.RunDaily)
	})
	if err != nil {
		return err
	}
	_, err = s.cron.AddFunc("@every 1m", func() {
		s.tick("weekly", s.dispatch.RunWeekly)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Starting notification scheduler")
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running ticks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick(tier string, run func(ctx context.Context, now time.Time) error) {
	ctx := context.Background()

	acquired, err := s.locks.Acquire(ctx, tier, s.lockTTL)
	if err != nil {
		s.logger.Errorf("failed to acquire %s run lock: %v", tier, err)
		return
	}
	if !acquired {
		s.logger.Debugf("skipping %s tick: another run holds the lock", tier)
		return
	}
	defer func() {
		if errRelease := s.locks.Release(ctx, tier); errRelease != nil {
			s.logger.Errorf("failed to release %s run lock: %v", tier, errRelease)
		}
	}()

	if err = run(ctx, time.Now().In(s.cron.Location())); err != nil {
		s.logger.Errorf("%s notification run failed: %v", tier, err)
	}
}
