package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sequence hands out increasing integer ids per collection, starting at 1.
type sequence struct {
	col  *mongo.Collection
	name string
}

func newSequence(db *mongo.Database, name string) *sequence {
	return &sequence{col: db.Collection(collectionCounters), name: name}
}

// next increments the counter. Two first calls racing on a missing counter
// can both try the upsert insert; the loser sees a duplicate key error and
// succeeds on retry because the document now exists.
func (s *sequence) next(ctx context.Context) (int64, error) {
	id, err := retryOnDuplicate(func() (int64, error) { return s.increment(ctx) })
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", s.name, err)
	}
	return id, nil
}

func (s *sequence) increment(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func retryOnDuplicate(fn func() (int64, error)) (int64, error) {
	id, err := fn()
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fn()
	}
	return id, err
}
