package config

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

type Command string

const (
	MATCHES    Command = "matches"
	POPULATION Command = "population"
)

// Prefix of the environment variables
const ENV_PREFIX = "GW2_"

// Date of a reset with a relink, and weeks between relinks
const DEFAULT_RELINK_ANCHOR = "2024-01-26"
const DEFAULT_RELINK_WEEKS = 8

// Everything a command needs, resolved once at startup
type Options struct {
	Command          Command          `koanf:"command"`
	ConfigFile       string           `koanf:"config"`
	World            gw2api.WorldId   `koanf:"world" validate:"gt=0"`
	WebhookURL       string           `koanf:"webhook-url" validate:"omitempty,url"`
	WebhookThumbnail string           `koanf:"webhook-thumbnail" validate:"omitempty,url"`
	WebhookAvatar    string           `koanf:"webhook-avatar" validate:"omitempty,url"`
	Username         string           `koanf:"username" validate:"max=80"`
	LogFile          string           `koanf:"log"`
	ChangeOnly       bool             `koanf:"change-only"`
	Timezones        []*time.Location `koanf:"timezones"`
	AMPM             bool             `koanf:"ampm"`
	PrintOnly        bool             `koanf:"print-only"`
	Markdown         bool             `koanf:"markdown"`
	Once             bool             `koanf:"once"`
	Interval         time.Duration    `koanf:"interval" validate:"min=1s"`
	Schedule         string           `koanf:"schedule"`
	APIURL           string           `koanf:"api-url" validate:"required,url"`
	Timeout          time.Duration    `koanf:"timeout" validate:"min=1s"`
	RelinkAnchor     time.Time        `koanf:"relink-anchor"`
	RelinkWeeks      int              `koanf:"relink-weeks" validate:"min=1,max=52"`
	Verbose          bool             `koanf:"verbose"`
}

// Single cycle, no scheduler
func (options Options) SingleShot() bool {
	return options.Once || options.PrintOnly
}

// Flags of the command. Username and log flags are named after it
func flagSet(command Command) *pflag.FlagSet {

	fs := pflag.NewFlagSet(fmt.Sprintf("post_gw2_%s", command), pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("config", "c", "", "config file path")
	fs.StringP("world", "w", "", "home world id")
	fs.StringP("webhook-url", "u", "", "webhook url")
	fs.StringP("webhook-thumbnail", "b", "", "webhook thumbnail url")
	fs.String("webhook-avatar", "", "webhook avatar url")
	fs.BoolP("change-only", "x", false, "only execute the webhook on a change")
	fs.StringP(fmt.Sprintf("%s-username", command), "n", "", "webhook username for this command")
	fs.StringP(fmt.Sprintf("%s-log", command), "l", "", "log notification attempts to a file")
	switch command {
	case MATCHES:
		fs.StringP("timezones", "t", "", "comma separated list of timezones to render")
		fs.BoolP("ampm", "a", false, "use 12h clock instead of 24h clock")
	case POPULATION:
		fs.String("relink-anchor", DEFAULT_RELINK_ANCHOR, "date of a reset with a relink (YYYY-MM-DD)")
		fs.Int("relink-weeks", DEFAULT_RELINK_WEEKS, "weeks between relinks")
	}
	fs.BoolP("print-only", "p", false, "print to console, do not send")
	fs.BoolP("markdown", "m", false, "when printing to console, output as markdown")
	fs.BoolP("once", "o", false, "run a single cycle and exit")
	fs.StringP("interval", "i", "15m", "time between cycles")
	fs.StringP("schedule", "s", "", "cron expression for the cycles, overrides the interval")
	fs.String("api-url", gw2api.API_URL, "Guild Wars 2 API url")
	fs.String("timeout", "30s", "maximum duration of the requests of a cycle")
	fs.BoolP("verbose", "v", false, "log debug messages")
	return fs
}

func Usage(command Command) string {
	return flagSet(command).FlagUsages()
}

// Resolve the options of the command. Every value is looked up in the
// command line first, then in the environment, then in the config file,
// and finally falls back to its default
func Resolve(command Command, args []string, environ []string) (Options, error) {

	fs := flagSet(command)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Options{}, err
		}
		return Options{}, &ConfigError{Problems: []string{err.Error()}}
	}
	env := environment(environ)

	// Config file
	given, _ := fs.GetString("config")
	if given == "" {
		given, _ = env["config-file"].(string)
	}
	delete(env, "config-file")
	filename, err := findConfigFile(given)
	if err != nil {
		return Options{}, &ConfigError{Problems: []string{err.Error()}}
	}

	k := koanf.New(".")
	if filename != "" {
		values, err := readConfigFile(filename)
		if err != nil {
			return Options{}, &ConfigError{Problems: []string{err.Error()}}
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return Options{}, &ConfigError{Problems: []string{err.Error()}}
		}
	}
	if err := k.Load(confmap.Provider(env, "."), nil); err != nil {
		return Options{}, &ConfigError{Problems: []string{err.Error()}}
	}
	// Flags given on the command line, and the defaults of the rest
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Options{}, &ConfigError{Problems: []string{err.Error()}}
	}

	options, problems := parse(command, k)
	options.ConfigFile = filename
	validate(options, problems)
	return options, problems.orNil()
}

// Environment variables with the prefix, as config keys:
// GW2_WEBHOOK_URL is webhook-url
func environment(environ []string) map[string]interface{} {
	values := map[string]interface{}{}
	for _, entry := range environ {
		name, value, found := strings.Cut(entry, "=")
		if !found || !strings.HasPrefix(name, ENV_PREFIX) {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, ENV_PREFIX)), "_", "-")
		if key == "home-world-id" {
			key = "world"
		}
		values[key] = value
	}
	return values
}

func parse(command Command, k *koanf.Koanf) (Options, *ConfigError) {

	problems := &ConfigError{}
	options := Options{
		Command:          command,
		WebhookURL:       k.String("webhook-url"),
		WebhookThumbnail: k.String("webhook-thumbnail"),
		WebhookAvatar:    k.String("webhook-avatar"),
		Username:         k.String(fmt.Sprintf("%s-username", command)),
		LogFile:          expandHome(k.String(fmt.Sprintf("%s-log", command))),
		Schedule:         strings.TrimSpace(k.String("schedule")),
		APIURL:           k.String("api-url"),
	}

	world := k.String("world")
	if world == "" {
		problems.add("world is required")
	} else if id, err := strconv.Atoi(world); err != nil {
		problems.add("world %q is not a number", world)
	} else {
		options.World = gw2api.WorldId(id)
	}

	options.ChangeOnly = parseBool(k, "change-only", problems)
	options.PrintOnly = parseBool(k, "print-only", problems)
	options.Markdown = parseBool(k, "markdown", problems)
	options.Once = parseBool(k, "once", problems)
	options.Verbose = parseBool(k, "verbose", problems)
	options.Interval = parseDuration(k, "interval", problems)
	options.Timeout = parseDuration(k, "timeout", problems)

	if command == MATCHES {
		options.AMPM = parseBool(k, "ampm", problems)
		for _, name := range strings.Split(k.String("timezones"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			location, err := time.LoadLocation(name)
			if err != nil {
				problems.add("unknown timezone %q", name)
				continue
			}
			options.Timezones = append(options.Timezones, location)
		}
	}

	if command == POPULATION {
		anchor, err := time.Parse(time.DateOnly, k.String("relink-anchor"))
		if err != nil {
			problems.add("relink-anchor %q is not a date of the form YYYY-MM-DD", k.String("relink-anchor"))
		}
		options.RelinkAnchor = anchor
		weeks, err := strconv.Atoi(k.String("relink-weeks"))
		if err != nil {
			problems.add("relink-weeks %q is not a number", k.String("relink-weeks"))
		}
		options.RelinkWeeks = weeks
	} else {
		options.RelinkWeeks = DEFAULT_RELINK_WEEKS
	}

	if options.Schedule != "" {
		if _, err := cron.ParseStandard(options.Schedule); err != nil {
			problems.add("schedule %q is not valid: %v", options.Schedule, err)
		}
	}
	if !options.PrintOnly && options.WebhookURL == "" {
		problems.add("webhook-url is required unless printing to console")
	}
	return options, problems
}

var validate = func() func(Options, *ConfigError) {
	v := validator.New()
	// Report the config keys, not the field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("koanf")
	})
	return func(options Options, problems *ConfigError) {
		err := v.Struct(options)
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return
		}
		for _, fieldErr := range validationErrors {
			// Problems already reported while parsing
			if fieldErr.Field() == "world" && options.World == 0 {
				continue
			}
			problems.add("%s fails the '%s' check", fieldErr.Field(), describe(fieldErr))
		}
	}
}()

func describe(fieldErr validator.FieldError) string {
	if fieldErr.Param() == "" {
		return fieldErr.Tag()
	}
	return fieldErr.Tag() + "=" + fieldErr.Param()
}

func parseBool(k *koanf.Koanf, key string, problems *ConfigError) bool {
	value := strings.ToLower(strings.TrimSpace(k.String(key)))
	switch value {
	case "", "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	problems.add("%s %q is not a boolean", key, value)
	return false
}

func parseDuration(k *koanf.Koanf, key string, problems *ConfigError) time.Duration {
	value := strings.TrimSpace(k.String(key))
	d, err := time.ParseDuration(value)
	if err != nil {
		// Plain numbers are seconds
		if seconds, convErr := strconv.Atoi(value); convErr == nil {
			return time.Duration(seconds) * time.Second
		}
		problems.add("%s %q is not a duration", key, value)
	}
	return d
}
