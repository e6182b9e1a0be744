package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domainreservation "reservd/internal/domain/reservation"
	"reservd/internal/domain/shared/interval"
)

func TestOverlapFilterHalfOpenBounds(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	iv, err := interval.New(start, end)
	require.NoError(t, err)
	rsv := &domainreservation.Reservation{ResourceID: "res-1", Interval: iv}

	filter := overlapFilter(rsv)
	assert.Equal(t, "res-1", filter["resource_id"])

	// Strict bounds keep touching intervals out of the conflict set: an
	// existing reservation ending exactly at our start, or starting exactly
	// at our end, must not match.
	assert.Equal(t, bson.M{"$lt": end.UnixMilli()}, filter["start_at"])
	assert.Equal(t, bson.M{"$gt": start.UnixMilli()}, filter["end_at"])

	// Only pending and confirmed rows block the slot.
	assert.Equal(t, bson.M{"$in": activeStatuses}, filter["status"])
	assert.ElementsMatch(t, []string{"pending", "confirmed"}, activeStatuses)
}

func TestSlotDocumentSharedPerResource(t *testing.T) {
	// Every create for a resource must address the same document so that
	// concurrent transactions write-conflict instead of committing two
	// overlapping reservations under snapshot isolation.
	assert.Equal(t, slotFilter("res-1"), slotFilter("res-1"))
	assert.NotEqual(t, slotFilter("res-1"), slotFilter("res-2"))
	assert.Equal(t, bson.M{"_id": "res-1"}, slotFilter("res-1"))

	// The update must be a write, not a read, on that document.
	assert.Equal(t, bson.M{"$inc": bson.M{"seq": 1}}, slotUpdate())
}
