package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gw2webhooks/internal/bot"
	"gw2webhooks/internal/common"
	"gw2webhooks/internal/config"
	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Exit codes of the commands
const (
	EXIT_OK     = 0
	EXIT_FAILED = 1
	EXIT_CONFIG = 2
)

// How often the cache of world names is emptied
const HOUSEKEEPING_TIMEOUT = 24 * time.Hour

// Entry point shared by both commands
func Main(command config.Command, args []string, environ []string) int {

	options, err := config.Resolve(command, args, environ)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stdout, "Usage of post_gw2_%s:\n%s", command, config.Usage(command))
		return EXIT_OK
	}
	var configErr *config.ConfigError
	if errors.As(err, &configErr) {
		common.SetupLogging(false)
		log.Error().Err(err).Msg("Could not start")
		return EXIT_CONFIG
	}
	common.SetupLogging(options.Verbose)
	if err != nil {
		log.Error().Err(err).Msg("Could not start")
		return EXIT_FAILED
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, options, colorable.NewColorableStdout(), common.IsTerminal(os.Stdout)); err != nil {
		log.Error().Err(err).Msg("Stopped")
		return EXIT_FAILED
	}
	return EXIT_OK
}

// Build the pieces for the options and run the command until the
// context is cancelled, or a single cycle in print-only and once modes
func Run(ctx context.Context, options config.Options, stdout io.Writer, styled bool) error {

	log.Info().Msg(fmt.Sprintf("Starting post_gw2_%s for world %d", options.Command, options.World))
	if options.ConfigFile != "" {
		log.Debug().Msg(fmt.Sprintf("Using config file %s", options.ConfigFile))
	}

	client := gw2api.NewClient(options.APIURL, options.Timeout)

	journal, err := bot.OpenJournal(options.LogFile)
	if err != nil {
		return err
	}
	defer journal.Close()

	var notifier bot.Notifier
	if options.PrintOnly {
		notifier = bot.NewPrintNotifier(stdout, options.Markdown, styled && !options.Markdown)
	} else {
		notifier, err = bot.NewWebhookNotifier(options.WebhookURL, options.Username, options.WebhookAvatar, options.WebhookThumbnail, options.Timeout)
		if err != nil {
			return err
		}
	}

	botOptions := bot.BotOptions{
		World:               options.World,
		ChangeOnly:          options.ChangeOnly,
		Timeout:             options.Timeout,
		Housekeeping:        client.Housekeeping,
		HousekeepingTimeout: HOUSEKEEPING_TIMEOUT,
	}

	var cycler bot.Cycler
	switch options.Command {
	case config.MATCHES:
		formatOptions := bot.FormatOptions{Timezones: options.Timezones, AMPM: options.AMPM}
		cycler = bot.NewBot(bot.NewMatchesJob(client, options.World, formatOptions), notifier, journal, botOptions)
	case config.POPULATION:
		job := bot.NewPopulationJob(client, options.World, options.RelinkAnchor, options.RelinkWeeks)
		cycler = bot.NewBot(job, notifier, journal, botOptions)
	default:
		return errors.Newf("unknown command %q", options.Command)
	}

	if options.SingleShot() {
		outcome, err := cycler.Cycle(ctx)
		log.Info().Msg(fmt.Sprintf("Cycle finished: %s", outcome))
		return err
	}

	scheduler, err := bot.NewScheduler(cycler, bot.ScheduleSpec(options.Interval, options.Schedule), time.Local)
	if err != nil {
		return err
	}
	return scheduler.Run(ctx)
}
