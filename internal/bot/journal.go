package bot

import (
	"fmt"
	"io"
	"os"
	"time"

	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Outcome of a notification attempt, as written to the journal
const (
	RECORD_SENT         = "sent"
	RECORD_PRINTED      = "printed"
	RECORD_FAILED       = "failed"
	RECORD_FETCH_FAILED = "fetch failed"
)

// Append-only log of notification attempts, one plain line each:
// timestamp, level, outcome, then the message or the error
type Journal struct {
	logger zerolog.Logger
	closer io.Closer
}

func OpenJournal(filename string) (*Journal, error) {

	if filename == "" {
		return nil, nil
	}
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open log file %s", filename)
	}
	journal := NewJournal(file)
	journal.closer = file
	return journal, nil
}

func NewJournal(out io.Writer) *Journal {
	writer := zerolog.ConsoleWriter{
		Out:     out,
		NoColor: true,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprint(i)
		},
	}
	return &Journal{logger: zerolog.New(writer)}
}

// A nil journal records nothing
func (journal *Journal) Record(at time.Time, world gw2api.WorldId, outcome string, text string) {
	if journal == nil {
		return
	}
	journal.logger.Info().Time(zerolog.TimestampFieldName, at.UTC()).Int("world", int(world)).Str("text", text).Msg(outcome)
}

func (journal *Journal) RecordError(at time.Time, world gw2api.WorldId, outcome string, err error) {
	if journal == nil {
		return
	}
	journal.logger.Error().Time(zerolog.TimestampFieldName, at.UTC()).Int("world", int(world)).Err(err).Msg(outcome)
}

func (journal *Journal) Close() error {
	if journal == nil || journal.closer == nil {
		return nil
	}
	return journal.closer.Close()
}
