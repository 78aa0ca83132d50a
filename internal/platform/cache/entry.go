// Package cache provides the TTL-based store for quote and history payloads.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMiss is returned by Get when no usable record exists for a key. Missing,
// corrupt and unreadable records are all reported this way.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached payload. The JSON form is what FileStore writes to disk.
type Entry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
	TTL       Duration        `json:"ttl"`
}

// FreshAt reports whether the entry is still within its TTL at now.
func (e Entry) FreshAt(now time.Time) bool {
	return now.Sub(e.FetchedAt) < time.Duration(e.TTL)
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Duration is a time.Duration that encodes as a human readable string ("4h0m0s").
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler. Plain nanosecond integers are accepted too.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse ttl %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("parse ttl %s: %w", b, err)
	}
	*d = Duration(n)
	return nil
}

// decodeEntry parses a stored record and checks it is usable.
func decodeEntry(b []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, err
	}
	if e.Key == "" || len(e.Payload) == 0 || e.FetchedAt.IsZero() {
		return Entry{}, errors.New("incomplete record")
	}
	return e, nil
}

// safe escapes characters that are problematic in file names and Redis keys.
func safe(s string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")
	return r.Replace(s)
}
