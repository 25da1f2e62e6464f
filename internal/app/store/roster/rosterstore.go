// Package rosterstore provides access to the roster collection in the
// remote document store.
package rosterstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// ErrNotFound is returned when an ID matches no document.
var ErrNotFound = errors.New("document not found")

// Store provides id-based access to one roster collection. Documents are
// schemaless field maps; the collection name is operator configuration.
type Store struct {
	c *mongo.Collection
}

// New creates a roster store over the named collection.
func New(db *mongo.Database, collection string) *Store {
	return &Store{c: db.Collection(collection)}
}

// List streams the full collection into an id→document mapping.
func (s *Store) List(ctx context.Context) (map[string]models.Document, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]models.Document)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode roster document: %w", err)
		}
		id, doc := SplitID(raw)
		if id == "" {
			continue
		}
		out[id] = doc
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("stream roster: %w", err)
	}
	return out, nil
}

// Get returns one document by ID.
func (s *Store) Get(ctx context.Context, id string) (models.Document, error) {
	var raw bson.M
	err := s.c.FindOne(ctx, IDFilter(id)).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get roster document %s: %w", id, err)
	}
	_, doc := SplitID(raw)
	return doc, nil
}

// Update applies a partial update: only the given fields are set, and
// the server assigns the update timestamp. It is not an upsert — an
// unknown ID is ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range fields {
		if k == models.FieldUpdatedAt {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.c.UpdateOne(ctx, IDFilter(id), bson.M{
		"$set":         set,
		"$currentDate": bson.M{models.FieldUpdatedAt: true},
	})
	if err != nil {
		return fmt.Errorf("update roster document %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes one document. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.c.DeleteOne(ctx, IDFilter(id)); err != nil {
		return fmt.Errorf("delete roster document %s: %w", id, err)
	}
	return nil
}

// Probe is the bounded connectivity check: fetch at most one document.
func (s *Store) Probe(ctx context.Context) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetLimit(1))
	if err != nil {
		return fmt.Errorf("probe roster collection: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("probe roster collection: %w", err)
	}
	return nil
}

// IDFilter builds the _id filter for an opaque string ID. IDs minted by
// external intake are plain strings, but documents inserted by other
// tooling may carry ObjectIDs; a hex-shaped ID matches either form.
func IDFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// SplitID separates the collection-assigned ID from the field mapping
// and normalizes driver types to engine types.
func SplitID(raw bson.M) (string, models.Document) {
	doc := make(models.Document, len(raw))
	id := ""
	for k, v := range raw {
		if k == "_id" {
			switch t := v.(type) {
			case string:
				id = t
			case primitive.ObjectID:
				id = t.Hex()
			default:
				id = fmt.Sprint(t)
			}
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			doc[k] = dt.Time()
			continue
		}
		doc[k] = v
	}
	return id, doc
}
