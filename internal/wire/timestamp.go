package wire

import (
	"fmt"
	"strings"
	"time"
)

// eosioTimeLayout matches the original implementation's chrono format
// string "%Y-%m-%dT%H:%M:%S" (see shipper_types.rs's eosio_datetime_format
// serde module): no fractional component, no timezone suffix, UTC implied.
const eosioTimeLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an EOSIO block/transaction timestamp string. Per
// shipper_types.rs, when the string contains a '.', the trailing 4
// characters (the fractional-seconds suffix, e.g. ".500") are stripped
// before parsing — EOSIO timestamps carry millisecond precision that the
// original implementation discards on the way in.
func ParseTimestamp(s string) (time.Time, error) {
	trimmed := s
	if strings.Contains(s, ".") {
		if len(s) < 4 {
			return time.Time{}, fmt.Errorf("wire: timestamp %q too short to strip fractional suffix", s)
		}
		trimmed = s[:len(s)-4]
	}
	t, err := time.Parse(eosioTimeLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatTimestamp renders t in the same layout ParseTimestamp accepts
// (without a fractional suffix), for use when synthesizing wire data.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(eosioTimeLayout)
}
