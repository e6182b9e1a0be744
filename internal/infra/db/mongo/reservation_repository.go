package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reservd/internal/domain/availability"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

var activeStatuses = []string{
	string(domainreservation.StatusPending),
	string(domainreservation.StatusConfirmed),
}

type ReservationRepository struct {
	col   *mongo.Collection
	slots *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("agg_reservation")
	idx := mongo.IndexModel{Keys: bson.D{
		{Key: "resource_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "start_at", Value: 1},
	}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReservationRepository{col: col, slots: db.Collection("agg_resource_slots")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// CreateExclusive runs the overlap check and the insert against the session
// bound to ctx. Snapshot isolation alone would not stop two concurrent
// creates that insert distinct documents, so the slot document for the
// resource is bumped first: both writers then touch the same document, the
// transaction layer flags a write conflict, and the loser's commit aborts
// with a transient error that the unit of work maps to the retryable busy
// error.
func (r *ReservationRepository) CreateExclusive(ctx context.Context, rsv *domainreservation.Reservation) error {
	opts := options.Update().SetUpsert(true)
	if _, err := r.slots.UpdateOne(ctx, slotFilter(rsv.ResourceID), slotUpdate(), opts); err != nil {
		return err
	}
	count, err := r.col.CountDocuments(ctx, overlapFilter(rsv))
	if err != nil {
		return err
	}
	if count > 0 {
		return availability.ErrResourceUnavailable
	}
	_, err = r.col.InsertOne(ctx, newReservationDocument(rsv))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	return err
}

// slotFilter addresses the one lock document every create for a resource
// must write through.
func slotFilter(id domainresource.ID) bson.M {
	return bson.M{"_id": string(id)}
}

func slotUpdate() bson.M {
	return bson.M{"$inc": bson.M{"seq": 1}}
}

// overlapFilter matches active reservations intersecting the candidate's
// half-open interval.
func overlapFilter(rsv *domainreservation.Reservation) bson.M {
	return bson.M{
		"resource_id": string(rsv.ResourceID),
		"status":      bson.M{"$in": activeStatuses},
		"start_at":    bson.M{"$lt": rsv.Interval.End.UnixMilli()},
		"end_at":      bson.M{"$gt": rsv.Interval.Start.UnixMilli()},
	}
}

func (r *ReservationRepository) Save(ctx context.Context, rsv *domainreservation.Reservation) error {
	doc := newReservationDocument(rsv)
	filter := bson.M{"_id": doc.ID, "version": rsv.Version}
	doc.Version = rsv.Version + 1
	update := bson.M{"$set": doc}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update())
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	rsv.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ActiveByResource(ctx context.Context, resourceID domainresource.ID) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{
		"resource_id": string(resourceID),
		"status":      bson.M{"$in": activeStatuses},
	}, 0)
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{"requester_id": requesterID}, 0)
}

func (r *ReservationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, 0)
}

func (r *ReservationRepository) DueForCompletion(ctx context.Context, before time.Time, limit int) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{
		"status": string(domainreservation.StatusConfirmed),
		"end_at": bson.M{"$lte": before.UnixMilli()},
	}, int64(limit))
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M, limit int64) ([]*domainreservation.Reservation, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []reservationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreservation.Reservation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type reservationDocument struct {
	ID            string      `bson:"_id"`
	ResourceID    string      `bson:"resource_id"`
	RequesterID   string      `bson:"requester_id"`
	OwnerID       string      `bson:"owner_id"`
	StartAt       int64       `bson:"start_at"`
	EndAt         int64       `bson:"end_at"`
	DurationHours int         `bson:"duration_hours"`
	Price         rates.Quote `bson:"price"`
	Status        string      `bson:"status"`
	PaymentRef    string      `bson:"external_payment_ref,omitempty"`
	CancelledBy   string      `bson:"cancelled_by,omitempty"`
	CancelReason  string      `bson:"cancellation_reason,omitempty"`
	CancelledAt   int64       `bson:"cancelled_at,omitempty"`
	CreatedAt     int64       `bson:"created_at"`
	UpdatedAt     int64       `bson:"updated_at"`
	Version       int64       `bson:"version"`
}

func newReservationDocument(rsv *domainreservation.Reservation) reservationDocument {
	doc := reservationDocument{
		ID:            string(rsv.ID),
		ResourceID:    string(rsv.ResourceID),
		RequesterID:   rsv.RequesterID,
		OwnerID:       rsv.OwnerID,
		StartAt:       rsv.Interval.Start.UnixMilli(),
		EndAt:         rsv.Interval.End.UnixMilli(),
		DurationHours: rsv.DurationHours,
		Price:         rsv.Price,
		Status:        string(rsv.Status),
		PaymentRef:    rsv.PaymentRef,
		CancelledBy:   rsv.CancelledBy,
		CancelReason:  rsv.CancellationReason,
		CreatedAt:     rsv.CreatedAt.UnixMilli(),
		UpdatedAt:     rsv.UpdatedAt.UnixMilli(),
		Version:       rsv.Version,
	}
	if !rsv.CancelledAt.IsZero() {
		doc.CancelledAt = rsv.CancelledAt.UnixMilli()
	}
	return doc
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	rsv := &domainreservation.Reservation{
		ID:                 domainreservation.ID(d.ID),
		ResourceID:         domainresource.ID(d.ResourceID),
		RequesterID:        d.RequesterID,
		OwnerID:            d.OwnerID,
		Interval:           interval.Interval{Start: timestampToTime(d.StartAt), End: timestampToTime(d.EndAt)},
		DurationHours:      d.DurationHours,
		Price:              d.Price,
		Status:             domainreservation.Status(d.Status),
		PaymentRef:         d.PaymentRef,
		CancelledBy:        d.CancelledBy,
		CancellationReason: d.CancelReason,
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
	if d.CancelledAt != 0 {
		rsv.CancelledAt = timestampToTime(d.CancelledAt)
	}
	return rsv
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
