package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/mahudhurio/core"
)

const (
	studentCollection    = "students"
	attendanceCollection = "attendance"
)

// Open connects to the record store, waits for it to be reachable and
// bootstraps the indexes the application relies on.
func Open(conf *core.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to record store")
	}
	if err := ping(ctx, client); err != nil {
		return nil, err
	}
	if err := ensureIndexes(ctx, client.Database(conf.Database.Name)); err != nil {
		return nil, err
	}
	return client, nil
}

// ping waits for the store to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, nil)
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "record store ping timeout")
	}
	return nil
}

// ensureIndexes declares the uniqueness constraints that back the
// application invariants:
//   - students.roll_no is globally unique;
//   - attendance (student_id, day) is unique, `day` being the record's date
//     normalized to the start of its calendar day. This compound index is
//     the authority on the one-record-per-student-per-day invariant; the
//     service-level existence check is advisory only.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(studentCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roll_no", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating students.roll_no index")
	}

	_, err = db.Collection(attendanceCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "date", Value: -1}},
		},
	})
	return errors.Wrap(err, "creating attendance indexes")
}

// wrapErr classifies store failures: transient connectivity problems map to
// core.ErrStoreUnavailable, everything else is wrapped as-is.
func wrapErr(err error, msg string) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}
	return errors.Wrap(err, msg)
}
