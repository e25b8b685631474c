// Package query turns list-endpoint query strings into Mongo find plans:
// filter, sort, projection and page window.
//
// Reserved keys are page, sort, limit and fields. Every other key filters.
// Comparison operators use bracket suffixes (price[gte]=100) and are rewritten
// to the driver's $-operators. page and limit fall back to their defaults on
// malformed or non-positive input instead of failing the request; clients rely
// on that leniency.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	// VersionField is the internal revision field hidden unless fields= asks for it.
	VersionField = "__v"
)

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

// Kind tells the builder how to cast a filter value for a field.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	ObjectID
	Date
)

// Schema maps filterable field names to their stored kind. Unlisted fields compare as strings.
type Schema map[string]Kind

// Features is the parsed plan for one list request.
type Features struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D
	Page       int
	Limit      int
}

// Parse builds Features from the query string. It only fails when a filter value cannot be
// cast to its field's kind.
func Parse(values url.Values, schema Schema) (*Features, error) {
	f := &Features{
		Filter:     bson.M{},
		Sort:       parseSort(values.Get("sort")),
		Projection: parseFields(values.Get("fields")),
		Page:       positiveOr(values.Get("page"), DefaultPage),
		Limit:      positiveOr(values.Get("limit"), DefaultLimit),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] || strings.HasPrefix(key, "$") || len(values[key]) == 0 {
			continue
		}
		raw := values[key][0]

		field, op, ok := splitOperator(key)
		if !ok {
			v, err := cast(schema, key, raw)
			if err != nil {
				return nil, err
			}
			if cond, ok := f.Filter[key].(bson.M); ok {
				cond["$eq"] = v
			} else {
				f.Filter[key] = v
			}
			continue
		}

		var v any
		var err error
		if op == "$in" {
			v, err = castList(schema, field, raw)
		} else {
			v, err = cast(schema, field, raw)
		}
		if err != nil {
			return nil, err
		}
		// An exact match on the same field is kept alongside the operators as $eq.
		cond, isCond := f.Filter[field].(bson.M)
		if !isCond {
			cond = bson.M{}
			if prev, exists := f.Filter[field]; exists {
				cond["$eq"] = prev
			}
		}
		cond[op] = v
		f.Filter[field] = cond
	}

	return f, nil
}

// Skip is the number of documents before the current page.
func (f *Features) Skip() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}

// FindOptions applies sort, projection and the page window.
func (f *Features) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(f.Sort).
		SetProjection(f.Projection).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit))
}

// Pipeline returns the equivalent aggregation stages, for lists that join other collections.
// The projection is applied by the caller after any $lookup stages.
func (f *Features) Pipeline() []bson.D {
	return []bson.D{
		{{Key: "$match", Value: f.Filter}},
		{{Key: "$sort", Value: f.Sort}},
		{{Key: "$skip", Value: f.Skip()}},
		{{Key: "$limit", Value: int64(f.Limit)}},
	}
}

// Pagination reports the page window against the full filtered total.
func (f *Features) Pagination(total int64) utils.Pagination {
	return utils.Pagination{
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: TotalPages(total, f.Limit),
	}
}

func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// splitOperator recognises field[op] for the supported operators only.
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	op, ok = operators[key[open+1:len(key)-1]]
	if !ok {
		return "", "", false
	}
	return key[:open], op, true
}

func parseSort(raw string) bson.D {
	if strings.TrimSpace(raw) == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	var out bson.D
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, bson.E{Key: part[1:], Value: -1})
		} else {
			out = append(out, bson.E{Key: part, Value: 1})
		}
	}
	if len(out) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return out
}

func parseFields(raw string) bson.D {
	var out bson.D
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, bson.E{Key: part[1:], Value: 0})
		} else {
			out = append(out, bson.E{Key: part, Value: 1})
		}
	}
	if len(out) == 0 {
		return bson.D{{Key: VersionField, Value: 0}}
	}
	return out
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func castList(schema Schema, field, raw string) ([]any, error) {
	parts := strings.Split(raw, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := cast(schema, field, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func cast(schema Schema, field, raw string) (any, error) {
	switch schema[field] {
	case Number:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return n, nil
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return b, nil
	case ObjectID:
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return id, nil
	case Date:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, invalid(field, raw)
	default:
		return raw, nil
	}
}

func invalid(field, raw string) error {
	return utils.BadRequest(fmt.Sprintf("Invalid value %q for %s", raw, field))
}
