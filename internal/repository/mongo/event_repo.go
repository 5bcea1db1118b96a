package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/njoroofficial/dev-events/internal/domain"
)

const eventCollection = "events"

// EnsureEventIndexes creates the unique index on slug plus the secondary
// indexes the list query leans on. It is registered as a connect hook, so a
// database where the indexes cannot be built never serves event traffic.
func EnsureEventIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(eventCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

type eventRepository struct {
	conn *Connector
}

// NewEventRepository returns an event repository backed by the events
// collection. Every call resolves the database through the connector, so the
// first request after startup (or after an outage) is the one that dials.
func NewEventRepository(conn *Connector) domain.EventRepository {
	return &eventRepository{conn: conn}
}

func (r *eventRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(eventCollection), nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	e := &domain.Event{}
	if err := col.FindOne(ctx, bson.M{"slug": slug}).Decode(e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	e := &domain.Event{}
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := listFilter(filter)
	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if params.PageSize > 0 {
		opts = opts.SetSkip(int64(params.Offset())).SetLimit(int64(params.Limit()))
	}
	cur, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	events := make([]*domain.Event, 0)
	for cur.Next(ctx) {
		e := &domain.Event{}
		if err := cur.Decode(e); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return events, int(total), nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": e.ID}, updateDoc(e))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// listFilter translates an EventFilter into a find query.
func listFilter(f domain.EventFilter) bson.M {
	query := bson.M{}
	if f.Tag != "" {
		query["tags"] = f.Tag
	}
	return query
}

// updateDoc builds the $set document for an update. Slug, owner, and creation
// time never change after insert.
func updateDoc(e *domain.Event) bson.M {
	return bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"overview":    e.Overview,
		"date":        e.Date,
		"location":    e.Location,
		"mode":        e.Mode,
		"organizer":   e.Organizer,
		"image_url":   e.ImageURL,
		"tags":        e.Tags,
		"agenda":      e.Agenda,
		"updated_at":  e.UpdatedAt,
	}}
}
