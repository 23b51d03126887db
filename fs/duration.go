package fs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Duration is a time.Duration which can be read from flags, the
// environment and config maps.  A bare number is taken as seconds.
type Duration time.Duration

// day based suffixes on top of the ones time.ParseDuration knows
var durationSuffixes = []struct {
	Suffix     string
	Multiplier time.Duration
}{
	{Suffix: "d", Multiplier: time.Hour * 24},
	{Suffix: "w", Multiplier: time.Hour * 24 * 7},
	{Suffix: "", Multiplier: time.Second},
}

// ParseDuration parses a duration string. Accepts the time.Duration
// syntax plus d|w suffixes. Defaults to seconds if no suffix is given.
func ParseDuration(in string) (time.Duration, error) {
	d, err := time.ParseDuration(in)
	if err == nil {
		return d, nil
	}
	for _, suffix := range durationSuffixes {
		if !strings.HasSuffix(in, suffix.Suffix) {
			continue
		}
		number := in[:len(in)-len(suffix.Suffix)]
		period, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, errors.Errorf("invalid duration %q", in)
		}
		return time.Duration(period * float64(suffix.Multiplier)), nil
	}
	return 0, errors.Errorf("invalid duration %q", in)
}

// String turns a Duration into a string
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Set a Duration
func (d *Duration) Set(s string) error {
	duration, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Type of the value
func (d Duration) Type() string {
	return "Duration"
}

// Scan implements the fmt.Scanner interface
func (d *Duration) Scan(s fmt.ScanState, ch rune) error {
	token, err := s.Token(true, nil)
	if err != nil {
		return err
	}
	return d.Set(string(token))
}
