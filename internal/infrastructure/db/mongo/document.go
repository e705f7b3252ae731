package mongo

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newID returns a fresh document id. Ids are stored as hex strings so they
// can travel through URLs and JSON unchanged.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// insertStamped inserts doc under id with createdAt set by the server clock.
// doc must not carry _id or createdAt itself.
func insertStamped(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	_, err := col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$setOnInsert": doc,
			"$currentDate": bson.M{"createdAt": true},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// rawTime reads a stored timestamp. Values that are neither BSON date-times
// nor BSON timestamps read as nil.
func rawTime(v bson.RawValue) *time.Time {
	switch v.Type {
	case bsontype.DateTime:
		ms, ok := v.DateTimeOK()
		if !ok {
			return nil
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	case bsontype.Timestamp:
		sec, _, ok := v.TimestampOK()
		if !ok {
			return nil
		}
		t := time.Unix(int64(sec), 0).UTC()
		return &t
	default:
		return nil
	}
}

// rawNumber reads a stored amount. Numeric strings are accepted since older
// clients wrote form values through unchanged; anything else reads as 0.
func rawNumber(v bson.RawValue) float64 {
	var f float64
	switch v.Type {
	case bsontype.Double:
		f, _ = v.DoubleOK()
	case bsontype.Int32:
		i, _ := v.Int32OK()
		f = float64(i)
	case bsontype.Int64:
		i, _ := v.Int64OK()
		f = float64(i)
	case bsontype.String:
		s, _ := v.StringValueOK()
		f, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
