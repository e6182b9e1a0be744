package interval

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidInterval = errors.New("interval: end must be after start")

// Interval represents a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return ErrInvalidInterval
	}
	if !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Touching
// intervals (one ending exactly when the other starts) do not overlap,
// which allows back-to-back reservations.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(iv.Start) && t.Before(iv.End)
}

func (iv Interval) Adjacent(other Interval) bool {
	return iv.End.Equal(other.Start) || iv.Start.Equal(other.End)
}

// Hours returns the duration rounded up to whole hours. Always >= 1 for a
// valid interval.
func (iv Interval) Hours() int {
	return int(math.Ceil(iv.End.Sub(iv.Start).Hours()))
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
