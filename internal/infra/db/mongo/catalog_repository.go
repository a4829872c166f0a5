package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

// CatalogRepository reads bookable items. The catalog is owned by the
// (out of scope) catalog service; this adapter only maps documents.
type CatalogRepository struct {
	col *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection("catalog_items")}
}

func (r *CatalogRepository) ByRef(ctx context.Context, ref domaincatalog.ItemRef) (*domaincatalog.Item, error) {
	var doc itemDocument
	filter := bson.M{"_id": string(ref.ID), "variant": string(ref.Variant)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincatalog.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toItem()
}

// Upsert seeds or refreshes an item document. Used by the fixtures
// loader; the live catalog feed writes through the same shape.
func (r *CatalogRepository) Upsert(ctx context.Context, item *domaincatalog.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	doc := fromItem(item)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, update, opts)
	return err
}

type itemDocument struct {
	ID        string `bson:"_id"`
	Variant   string `bson:"variant"`
	Title     string `bson:"title"`
	Location  string `bson:"location"`
	BasePrice int64  `bson:"base_price"`
	Currency  string `bson:"currency"`

	CleaningFee   int64   `bson:"cleaning_fee,omitempty"`
	ServiceFeeBps int64   `bson:"service_fee_bps,omitempty"`
	BlockedDates  []int64 `bson:"blocked_dates,omitempty"`

	TicketCapacity int   `bson:"ticket_capacity,omitempty"`
	DateStart      int64 `bson:"date_start,omitempty"`
	DateEnd        int64 `bson:"date_end,omitempty"`

	AvailableWeekdays []int `bson:"available_weekdays,omitempty"`
}

func fromItem(item *domaincatalog.Item) itemDocument {
	doc := itemDocument{
		ID:        string(item.Ref.ID),
		Variant:   string(item.Ref.Variant),
		Title:     item.Title,
		Location:  item.Location,
		BasePrice: item.BasePrice.Amount,
		Currency:  item.BasePrice.Currency,
	}
	switch {
	case item.Stay != nil:
		doc.CleaningFee = item.Stay.CleaningFee.Amount
		doc.ServiceFeeBps = item.Stay.ServiceFeeBps
		for _, d := range item.Stay.BlockedDates {
			doc.BlockedDates = append(doc.BlockedDates, timeToMillis(d))
		}
	case item.Event != nil:
		doc.TicketCapacity = item.Event.TicketCapacity
		doc.DateStart = timeToMillis(item.Event.DateStart)
		doc.DateEnd = timeToMillis(item.Event.DateEnd)
	case item.Experience != nil:
		for _, w := range item.Experience.AvailableWeekdays {
			doc.AvailableWeekdays = append(doc.AvailableWeekdays, int(w))
		}
	}
	return doc
}

func (d itemDocument) toItem() (*domaincatalog.Item, error) {
	variant, err := domaincatalog.ParseVariant(d.Variant)
	if err != nil {
		return nil, err
	}
	item := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: domaincatalog.ItemID(d.ID), Variant: variant},
		Title:     d.Title,
		Location:  d.Location,
		BasePrice: money.Money{Amount: d.BasePrice, Currency: d.Currency},
	}
	switch variant {
	case domaincatalog.VariantStay:
		blocked := make([]time.Time, 0, len(d.BlockedDates))
		for _, ms := range d.BlockedDates {
			blocked = append(blocked, millisToTime(ms))
		}
		item.Stay = &domaincatalog.StayDetails{
			CleaningFee:   money.Money{Amount: d.CleaningFee, Currency: d.Currency},
			ServiceFeeBps: d.ServiceFeeBps,
			BlockedDates:  blocked,
		}
	case domaincatalog.VariantEvent:
		item.Event = &domaincatalog.EventDetails{
			TicketCapacity: d.TicketCapacity,
			DateStart:      millisToTime(d.DateStart),
			DateEnd:        millisToTime(d.DateEnd),
		}
	case domaincatalog.VariantExperience:
		weekdays := make([]time.Weekday, 0, len(d.AvailableWeekdays))
		for _, w := range d.AvailableWeekdays {
			weekdays = append(weekdays, time.Weekday(w))
		}
		item.Experience = &domaincatalog.ExperienceDetails{AvailableWeekdays: weekdays}
	}
	return item, nil
}
