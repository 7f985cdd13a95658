package bot

import (
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
)

// Hash of the canonical JSON encoding of the value. Map keys are
// sorted, so equal values always give the same fingerprint
func Fingerprint(value any) (uint64, error) {
	data, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// Whether the current result has to be notified. Without change-only
// everything is notified, and so is the first result of the run
func Changed[T any](previous *T, current T, changeOnly bool) bool {

	if !changeOnly || previous == nil {
		return true
	}
	before, err := Fingerprint(*previous)
	if err != nil {
		return true
	}
	after, err := Fingerprint(current)
	if err != nil {
		return true
	}
	return before != after
}
