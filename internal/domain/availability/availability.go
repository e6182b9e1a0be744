package availability

import (
	"context"
	"errors"

	"reservd/internal/domain/reservation"
	"reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
)

// ErrResourceUnavailable is the authoritative conflict verdict: an active
// reservation already claims part of the candidate interval.
var ErrResourceUnavailable = errors.New("availability: interval conflicts with an active reservation")

// Conflicts reports whether the candidate interval overlaps any active
// reservation in the set, optionally ignoring one id (used when re-checking
// an existing reservation against a new interval).
func Conflicts(existing []*reservation.Reservation, iv interval.Interval, exclude reservation.ID) bool {
	for _, r := range existing {
		if exclude != "" && r.ID == exclude {
			continue
		}
		if !r.Active() {
			continue
		}
		if r.Interval.Overlaps(iv) {
			return true
		}
	}
	return false
}

// Index answers "can resource R be reserved over interval I". It is a read
// path only; the race-free enforcement lives in the repository's
// CreateExclusive, which runs the same check atomically with the insert.
type Index struct {
	Reservations reservation.Repository
}

func (ix Index) IsAvailable(ctx context.Context, resourceID resource.ID, iv interval.Interval, exclude reservation.ID) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	existing, err := ix.Reservations.ActiveByResource(ctx, resourceID)
	if err != nil {
		return false, err
	}
	return !Conflicts(existing, iv, exclude), nil
}
