// Package attendancestore provides access to the attendance collection.
package attendancestore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	rosterstore "github.com/eliomatters/matterhub/internal/app/store/roster"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// CollectionName is fixed: attendance records always live beside the
// configurable roster collection under this name.
const CollectionName = "attendance"

// Store provides id-based access to attendance records. Records share
// their ID space with the roster documents they describe.
type Store struct {
	c *mongo.Collection
}

// New creates an attendance store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// List streams all attendance records keyed by roster document ID.
func (s *Store) List(ctx context.Context) (map[string]models.Attendance, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]models.Attendance)
	for cur.Next(ctx) {
		var row struct {
			ID                any `bson:"_id"`
			models.Attendance `bson:",inline"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode attendance record: %w", err)
		}
		out[fmt.Sprint(row.ID)] = row.Attendance
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("stream attendance: %w", err)
	}
	return out, nil
}

// Set merges a record into the collection, creating it if absent. The
// server assigns the update timestamp.
func (s *Store) Set(ctx context.Context, id string, rec models.Attendance) error {
	update := bson.M{
		"$set": bson.M{
			"day1":       rec.Day1,
			"day2":       rec.Day2,
			"day3":       rec.Day3,
			"recordedBy": rec.RecordedBy,
		},
		"$currentDate": bson.M{models.FieldUpdatedAt: true},
	}
	// Exact _id filter: an upsert must be able to mint the document
	// under the roster ID, which $in-style filters cannot do.
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set attendance %s: %w", id, err)
	}
	return nil
}

// Delete removes one record. Unknown IDs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.c.DeleteOne(ctx, rosterstore.IDFilter(id)); err != nil {
		return fmt.Errorf("delete attendance %s: %w", id, err)
	}
	return nil
}

// Probe is the bounded connectivity check: fetch at most one record.
func (s *Store) Probe(ctx context.Context) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetLimit(1))
	if err != nil {
		return fmt.Errorf("probe attendance collection: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("probe attendance collection: %w", err)
	}
	return nil
}
