package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/query"
)

// FindAndDecode runs a find and decodes every document into T.
func FindAndDecode[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AggregateAndDecode runs a pipeline and decodes every result into T.
func AggregateAndDecode[T any](ctx context.Context, coll *mongo.Collection, pipeline any) ([]T, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List applies the query features to coll and returns the page plus the filtered total.
func List[T any](ctx context.Context, coll *mongo.Collection, f *query.Features) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, f.Filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := FindAndDecode[T](ctx, coll, f.Filter, f.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListJoined is List for collections whose items expand references. The join stages run after
// the page window so only the returned page is joined; the projection is applied last.
func ListJoined(ctx context.Context, coll *mongo.Collection, f *query.Features, join ...bson.D) ([]bson.M, int64, error) {
	total, err := coll.CountDocuments(ctx, f.Filter)
	if err != nil {
		return nil, 0, err
	}
	pipeline := append(f.Pipeline(), join...)
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: f.Projection}})

	items, err := AggregateAndDecode[bson.M](ctx, coll, pipeline)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Lookup expands the reference in localField into the first matching document of from,
// keeping only the listed fields. A dangling reference leaves the field absent.
func Lookup(from, localField, as string, fields ...string) []bson.D {
	project := bson.D{}
	for _, f := range fields {
		project = append(project, bson.E{Key: f, Value: 1})
	}
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{{Key: "ref", Value: "$" + localField}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$ref"}}}}}}},
				bson.D{{Key: "$project", Value: project}},
			}},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// IsDuplicateKeyError reports a unique index violation.
func IsDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
