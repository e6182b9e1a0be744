package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"reservd/internal/domain/rates"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/money"
)

// ResourceRepository reads the catalog collection owned by the catalog
// subsystem. The engine never writes here.
type ResourceRepository struct {
	col *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{col: db.Collection("catalog_resources")}
}

func (r *ResourceRepository) ByID(ctx context.Context, id domainresource.ID) (*domainresource.Resource, error) {
	var doc resourceDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainresource.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

type resourceDocument struct {
	ID              string       `bson:"_id"`
	OwnerID         string       `bson:"owner_id"`
	Title           string       `bson:"title"`
	PricePerHour    money.Money  `bson:"price_per_hour"`
	PricePerDay     *money.Money `bson:"price_per_day,omitempty"`
	MinBookingHours int          `bson:"min_booking_hours,omitempty"`
}

func (d resourceDocument) toDomain() *domainresource.Resource {
	return &domainresource.Resource{
		ID:      domainresource.ID(d.ID),
		OwnerID: d.OwnerID,
		Title:   d.Title,
		Rates: rates.Schedule{
			PricePerHour:    d.PricePerHour,
			PricePerDay:     d.PricePerDay,
			MinBookingHours: d.MinBookingHours,
		},
	}
}

var _ domainresource.Repository = (*ResourceRepository)(nil)
