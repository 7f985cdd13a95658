package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Cycler interface {
	Cycle(ctx context.Context) (Outcome, error)
}

// Runs cycles on a cron schedule. The first cycle runs right away
type Scheduler struct {
	cron   *cron.Cron
	cycler Cycler
	spec   string
}

// Cron spec for the options: the schedule if there is one, else every interval
func ScheduleSpec(interval time.Duration, schedule string) string {
	if schedule != "" {
		return schedule
	}
	return fmt.Sprintf("@every %s", interval)
}

// Check a spec the way the scheduler will parse it
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return errors.Wrapf(err, "invalid schedule %q", spec)
	}
	return nil
}

func NewScheduler(cycler Cycler, spec string, location *time.Location) (*Scheduler, error) {

	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	if location == nil {
		location = time.UTC
	}
	logger := cronLogger{log.Logger}
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{cron: c, cycler: cycler, spec: spec}, nil
}

// Run cycles until the context is cancelled, then wait
// for the running cycle to finish
func (scheduler *Scheduler) Run(ctx context.Context) error {

	if _, err := scheduler.cron.AddFunc(scheduler.spec, func() { scheduler.cycle(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid schedule %q", scheduler.spec)
	}

	scheduler.cycle(ctx)
	if ctx.Err() != nil {
		return nil
	}

	log.Info().Msg(fmt.Sprintf("Scheduling cycles with '%s'", scheduler.spec))
	scheduler.cron.Start()
	<-ctx.Done()

	log.Info().Msg("Stopping scheduler")
	<-scheduler.cron.Stop().Done()
	return nil
}

// Next time a cycle will run, zero when not running
func (scheduler *Scheduler) Next() time.Time {
	entries := scheduler.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (scheduler *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	outcome, err := scheduler.cycler.Cycle(ctx)
	log.WithLevel(logLevel(outcome)).Err(err).Msg(fmt.Sprintf("Cycle finished: %s", outcome))
}

// cron.Logger writing to zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
