package wvw

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Region int

const (
	NA Region = 1
	EU Region = 2
)

// Weekly reset of every region, in UTC
var resets = map[Region]struct {
	day  time.Weekday
	hour int
}{
	NA: {time.Saturday, 2},
	EU: {time.Friday, 18},
}

// Length of a skirmish inside a match
const SkirmishDuration = 2 * time.Hour

func (region Region) String() string {
	switch region {
	case NA:
		return "NA"
	case EU:
		return "EU"
	default:
		return "Region " + strconv.Itoa(int(region))
	}
}

// Split a match id such as "2-3" into region and tier
func ParseMatchId(id string) (Region, int, error) {

	regionStr, tierStr, found := strings.Cut(id, "-")
	if !found {
		return 0, 0, errors.Newf("match id %q is not of the form <region>-<tier>", id)
	}
	region, err := strconv.Atoi(regionStr)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "match id %q has an invalid region", id)
	}
	tier, err := strconv.Atoi(tierStr)
	if err != nil || tier < 1 {
		return 0, 0, errors.Newf("match id %q has an invalid tier", id)
	}
	return Region(region), tier, nil
}

// Next weekly reset of the region at or after the provided time
func NextReset(region Region, now time.Time) time.Time {

	reset, ok := resets[region]
	if !ok {
		reset = resets[EU]
	}

	now = now.UTC()
	days := (int(reset.day) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day()+days, reset.hour, 0, 0, 0, time.UTC)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Next relink of the region at or after the provided time. Relinks happen
// on a reset every few weeks, counted from the reset of the anchor date
func NextRelink(region Region, now time.Time, anchor time.Time, weeks int) time.Time {

	first := NextReset(region, time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC))
	if weeks <= 0 || !now.After(first) {
		return first
	}

	period := time.Duration(weeks) * 7 * 24 * time.Hour
	elapsed := now.Sub(first)
	periods := elapsed / period
	if elapsed%period != 0 {
		periods++
	}
	return first.Add(periods * period)
}
