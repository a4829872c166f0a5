package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "roamly/internal/domain/booking"
	domaincatalog "roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

// ReservationRepository persists reservations plus a per-item revision
// document. Every commit does a compare-and-bump on the revision inside
// the surrounding transaction, so two commits racing for the same item
// cannot both apply: the loser's filter matches nothing and it gets
// ErrRevisionConflict.
type ReservationRepository struct {
	col  *mongo.Collection
	revs *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("reservations")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "status", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return &ReservationRepository{col: col, revs: db.Collection("reservation_revisions")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ActiveByItem(ctx context.Context, itemID domaincatalog.ItemID) ([]*domainbooking.Reservation, int64, error) {
	filter := bson.M{
		"item_id": string(itemID),
		"status":  bson.M{"$in": []string{string(domainbooking.StatusPendingPayment), string(domainbooking.StatusConfirmed)}},
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	rev, err := r.revision(ctx, itemID)
	if err != nil {
		return nil, 0, err
	}
	return out, rev, nil
}

func (r *ReservationRepository) revision(ctx context.Context, itemID domaincatalog.ItemID) (int64, error) {
	var doc struct {
		Revision int64 `bson:"revision"`
	}
	err := r.revs.FindOne(ctx, bson.M{"_id": string(itemID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Revision, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainbooking.Reservation, expectedRevision int64) error {
	if err := r.bumpRevision(ctx, res.Ref.ID, expectedRevision); err != nil {
		return err
	}
	doc := newReservationDocument(res)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrRevisionConflict
		}
		return err
	}
	return nil
}

func (r *ReservationRepository) bumpRevision(ctx context.Context, itemID domaincatalog.ItemID, expected int64) error {
	if expected == 0 {
		// First write for this item: create the revision doc. A racing
		// first writer hits the duplicate key on _id and loses.
		_, err := r.revs.InsertOne(ctx, bson.M{"_id": string(itemID), "revision": int64(1)})
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrRevisionConflict
		}
		return err
	}
	resUpd, err := r.revs.UpdateOne(ctx,
		bson.M{"_id": string(itemID), "revision": expected},
		bson.M{"$set": bson.M{"revision": expected + 1}})
	if err != nil {
		return err
	}
	if resUpd.MatchedCount == 0 {
		return domainbooking.ErrRevisionConflict
	}
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainbooking.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	upd, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return err
	}
	if upd.MatchedCount == 0 {
		return domainbooking.ErrRevisionConflict
	}
	res.Version = doc.Version
	// A status transition changes capacity, so it also invalidates any
	// commit racing on the stale reservation set.
	_, err = r.revs.UpdateOne(ctx,
		bson.M{"_id": string(res.Ref.ID)},
		bson.M{"$inc": bson.M{"revision": int64(1)}},
		options.Update().SetUpsert(true))
	return err
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Reservation, error) {
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type reservationDocument struct {
	ID          string `bson:"_id"`
	UserID      string `bson:"user_id"`
	ItemID      string `bson:"item_id"`
	ItemVariant string `bson:"item_variant"`
	CheckIn     int64  `bson:"check_in,omitempty"`
	CheckOut    int64  `bson:"check_out,omitempty"`
	Date        int64  `bson:"date,omitempty"`
	Quantity    int    `bson:"quantity,omitempty"`
	Subtotal    int64  `bson:"subtotal"`
	CleaningFee int64  `bson:"cleaning_fee"`
	ServiceFee  int64  `bson:"service_fee"`
	Total       int64  `bson:"total"`
	Currency    string `bson:"currency"`
	Status      string `bson:"status"`
	Note        string `bson:"note,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newReservationDocument(res *domainbooking.Reservation) reservationDocument {
	return reservationDocument{
		ID:          string(res.ID),
		UserID:      res.UserID,
		ItemID:      string(res.Ref.ID),
		ItemVariant: string(res.Ref.Variant),
		CheckIn:     timeToMillis(res.Selection.CheckIn),
		CheckOut:    timeToMillis(res.Selection.CheckOut),
		Date:        timeToMillis(res.Selection.Date),
		Quantity:    res.Selection.Quantity,
		Subtotal:    res.Cost.Subtotal.Amount,
		CleaningFee: res.Cost.CleaningFee.Amount,
		ServiceFee:  res.Cost.ServiceFee.Amount,
		Total:       res.Cost.Total.Amount,
		Currency:    res.Cost.Total.Currency,
		Status:      string(res.Status),
		Note:        res.Note,
		CreatedAt:   res.CreatedAt.UnixMilli(),
		UpdatedAt:   res.UpdatedAt.UnixMilli(),
		Version:     res.Version,
	}
}

func (d reservationDocument) toAggregate() *domainbooking.Reservation {
	cur := d.Currency
	return &domainbooking.Reservation{
		ID:     domainbooking.ReservationID(d.ID),
		UserID: d.UserID,
		Ref: domaincatalog.ItemRef{
			ID:      domaincatalog.ItemID(d.ItemID),
			Variant: domaincatalog.Variant(d.ItemVariant),
		},
		Selection: domainbooking.Selection{
			CheckIn:  millisToTime(d.CheckIn),
			CheckOut: millisToTime(d.CheckOut),
			Date:     millisToTime(d.Date),
			Quantity: d.Quantity,
		},
		Cost: domainbooking.Cost{
			Subtotal:    money.Money{Amount: d.Subtotal, Currency: cur},
			CleaningFee: money.Money{Amount: d.CleaningFee, Currency: cur},
			ServiceFee:  money.Money{Amount: d.ServiceFee, Currency: cur},
			Total:       money.Money{Amount: d.Total, Currency: cur},
		},
		Status:    domainbooking.Status(d.Status),
		Note:      d.Note,
		CreatedAt: millisToTime(d.CreatedAt),
		UpdatedAt: millisToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
