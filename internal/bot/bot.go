package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gw2webhooks/internal/common"
	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// A cycle was requested while another one was still running
var ErrCycleRunning = errors.New("a cycle is already running")

// What a cycle ended up doing
type Outcome int

const (
	OUTCOME_NOTIFIED Outcome = iota
	OUTCOME_UNCHANGED
	OUTCOME_BUSY
	OUTCOME_ERROR
)

func (outcome Outcome) String() string {
	switch outcome {
	case OUTCOME_NOTIFIED:
		return "notified"
	case OUTCOME_UNCHANGED:
		return "unchanged"
	case OUTCOME_BUSY:
		return "busy"
	default:
		return "error"
	}
}

// Fetches one result and turns it into a notification
type Job[T any] interface {
	Fetch(ctx context.Context, now time.Time) (T, error)
	Format(current T, previous *T, now time.Time) Notification
}

type BotOptions struct {
	World      gw2api.WorldId
	ChangeOnly bool
	// Maximum duration of the network part of a cycle, 0 for none
	Timeout time.Duration
	// Periodic task run at the start of a cycle, every HousekeepingTimeout
	Housekeeping        func()
	HousekeepingTimeout time.Duration
}

// Bot runs the fetch, compare, format and notify cycle, and keeps
// the last result notified to compare against
type Bot[T any] struct {
	job                  Job[T]
	notifier             Notifier
	journal              *Journal
	world                gw2api.WorldId
	changeOnly           bool
	timeout              time.Duration
	housekeepingExecutor *common.TimedExecutor
	clock                common.Clock
	running              atomic.Bool
	last                 *T
}

func NewBot[T any](job Job[T], notifier Notifier, journal *Journal, options BotOptions) *Bot[T] {

	bot := &Bot[T]{
		job:        job,
		notifier:   notifier,
		journal:    journal,
		world:      options.World,
		changeOnly: options.ChangeOnly,
		timeout:    options.Timeout,
		clock:      common.RealClock{},
	}
	if options.Housekeeping != nil {
		bot.housekeepingExecutor = common.NewTimedExecutor(options.HousekeepingTimeout, options.Housekeeping)
	}
	return bot
}

func (bot *Bot[T]) SetClock(clock common.Clock) {
	bot.clock = clock
	bot.housekeepingExecutor.SetClock(clock)
}

// Last result notified, nil until the first successful delivery
func (bot *Bot[T]) Last() *T {
	return bot.last
}

// Run one cycle. A cycle is refused while another one is running.
// The result is only remembered once it has been delivered, so
// a failed delivery is attempted again on the next cycle
func (bot *Bot[T]) Cycle(ctx context.Context) (Outcome, error) {

	if !bot.running.CompareAndSwap(false, true) {
		log.Warn().Msg("Refusing to start a cycle while another one is running")
		return OUTCOME_BUSY, ErrCycleRunning
	}
	defer bot.running.Store(false)

	logger := log.With().Str("cycle", uuid.NewString()).Int("world", int(bot.world)).Logger()
	logger.Debug().Msg("Starting cycle")
	start := bot.clock.Now()

	bot.housekeepingExecutor.Execute()

	if bot.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bot.timeout)
		defer cancel()
	}

	current, err := bot.job.Fetch(ctx, start)
	if err != nil {
		err = errors.Wrapf(err, "could not fetch data for world %d", bot.world)
		logger.Error().Err(err).Msg("Skipping cycle")
		bot.journal.RecordError(start, bot.world, RECORD_FETCH_FAILED, err)
		return OUTCOME_ERROR, err
	}

	if !Changed(bot.last, current, bot.changeOnly) {
		logger.Info().Msg("No changes since the last notification")
		return OUTCOME_UNCHANGED, nil
	}

	notification := bot.job.Format(current, bot.last, start)
	if err := bot.notifier.Notify(ctx, notification); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Could not notify '%s'", notification.Title))
		bot.journal.RecordError(start, bot.world, RECORD_FAILED, err)
		return OUTCOME_ERROR, err
	}
	bot.journal.Record(start, bot.world, outcomeOf(bot.notifier), notification.Markdown())

	bot.last = &current
	logger.Info().Dur("elapsed", bot.clock.Now().Sub(start)).Msg("Cycle completed")
	return OUTCOME_NOTIFIED, nil
}

func outcomeOf(notifier Notifier) string {
	if _, ok := notifier.(*PrintNotifier); ok {
		return RECORD_PRINTED
	}
	return RECORD_SENT
}

// Level used for the cycle logs of the scheduler
func logLevel(outcome Outcome) zerolog.Level {
	switch outcome {
	case OUTCOME_ERROR:
		return zerolog.ErrorLevel
	case OUTCOME_BUSY:
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}
