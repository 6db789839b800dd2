// Package query turns list and search parameters into MongoDB filters, sort
// documents and a pagination window.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-api/validation"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "createdAt"
)

// Range is an inclusive numeric filter driven by two optional parameters.
type Range struct {
	Field    string
	MinParam string
	MaxParam string
}

// Resource declares which fields of a collection can be searched and sorted.
type Resource struct {
	// TextFields are matched by the free-text q parameter.
	TextFields []string
	// Contains lists parameters matched as case-insensitive substrings.
	Contains []string
	// Equals lists parameters matched exactly.
	Equals []string
	Range  *Range
	// FullText enables the text parameter against the collection's text index.
	FullText   bool
	SortFields []string
}

var Products = Resource{
	TextFields: []string{"name", "description", "brand", "category"},
	Contains:   []string{"name", "brand"},
	Equals:     []string{"category"},
	Range:      &Range{Field: "price", MinParam: "minPrice", MaxParam: "maxPrice"},
	FullText:   true,
	SortFields: []string{"createdAt", "updatedAt", "name", "price", "stock", "brand", "category", "releaseDate", "weight"},
}

var Users = Resource{
	TextFields: []string{"firstName", "lastName", "email"},
	Contains:   []string{"firstName", "lastName", "email"},
	SortFields: []string{"createdAt", "updatedAt", "firstName", "lastName", "email", "dateOfBirth"},
}

// Match is a single field filter.
type Match struct {
	Field string
	Value string
}

type Query struct {
	TextFields []string
	Term       string
	FullText   string
	Contains   []Match
	Equals     []Match
	RangeField string
	Min, Max   *float64
	SortBy     string
	Descending bool
	Limit      int64
	Offset     int64

	echo map[string]string
}

// Pagination is the summary returned with every list response.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// ParseList reads only the pagination and sort parameters.
func (r Resource) ParseList(values url.Values) (Query, error) {
	q := Query{
		TextFields: r.TextFields,
		Limit:      parseInt(values.Get("limit"), DefaultLimit),
		Offset:     parseInt(values.Get("offset"), 0),
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var fs validation.Failures
	q.SortBy = strings.TrimSpace(values.Get("sortBy"))
	if q.SortBy == "" {
		q.SortBy = DefaultSort
	}
	if !contains(r.SortFields, q.SortBy) {
		fs = append(fs, validation.Failure{
			Field:   "sortBy",
			Message: fmt.Sprintf("sortBy must be one of: %s", strings.Join(r.SortFields, ", ")),
		})
	}
	order := values.Get("order")
	q.Descending = order == "" || strings.EqualFold(order, "desc")

	if len(fs) > 0 {
		return q, fs
	}
	return q, nil
}

// Parse reads the search parameters on top of ParseList.
func (r Resource) Parse(values url.Values) (Query, error) {
	q, err := r.ParseList(values)
	var fs validation.Failures
	errors.As(err, &fs)
	q.echo = map[string]string{}
	remember := func(key string) string {
		v := strings.TrimSpace(values.Get(key))
		if v != "" {
			q.echo[key] = v
		}
		return v
	}

	q.Term = remember("q")
	if r.FullText {
		q.FullText = remember("text")
	}
	for _, field := range r.Contains {
		if v := remember(field); v != "" {
			q.Contains = append(q.Contains, Match{Field: field, Value: v})
		}
	}
	for _, field := range r.Equals {
		if v := remember(field); v != "" {
			q.Equals = append(q.Equals, Match{Field: field, Value: v})
		}
	}
	if r.Range != nil {
		q.RangeField = r.Range.Field
		for _, bound := range []struct {
			param string
			dst   **float64
		}{
			{r.Range.MinParam, &q.Min},
			{r.Range.MaxParam, &q.Max},
		} {
			v := remember(bound.param)
			if v == "" {
				continue
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				fs = append(fs, validation.Failure{Field: bound.param, Message: bound.param + " must be a number"})
				continue
			}
			*bound.dst = &n
		}
	}

	if len(fs) > 0 {
		return q, fs
	}
	return q, nil
}

// WithEquals adds an exact-match filter, used for path-bound filters.
func (q Query) WithEquals(field, value string) Query {
	q.Equals = append(append([]Match(nil), q.Equals...), Match{Field: field, Value: value})
	return q
}

// Echo returns the search parameters that were supplied.
func (q Query) Echo() map[string]string {
	return q.echo
}

// Filter builds the MongoDB filter. All parts are combined with AND.
func (q Query) Filter() bson.D {
	filter := bson.D{}
	if q.Term != "" {
		or := bson.A{}
		for _, field := range q.TextFields {
			or = append(or, bson.D{{Key: field, Value: substring(q.Term)}})
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}
	if q.FullText != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: q.FullText}}})
	}
	for _, m := range q.Contains {
		filter = append(filter, bson.E{Key: m.Field, Value: substring(m.Value)})
	}
	for _, m := range q.Equals {
		filter = append(filter, bson.E{Key: m.Field, Value: m.Value})
	}
	if q.Min != nil || q.Max != nil {
		bounds := bson.D{}
		if q.Min != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *q.Min})
		}
		if q.Max != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *q.Max})
		}
		filter = append(filter, bson.E{Key: q.RangeField, Value: bounds})
	}
	return filter
}

// Sort orders by SortBy with _id as tie-breaker so pages are stable.
func (q Query) Sort() bson.D {
	dir := 1
	if q.Descending {
		dir = -1
	}
	return bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}
}

// Pagination reports the page window; HasMore is computed without adding
// Offset and Limit so a huge offset cannot overflow.
func (q Query) Pagination(total int64) Pagination {
	return Pagination{
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: q.Offset < total && q.Limit < total-q.Offset,
	}
}

func substring(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func parseInt(s string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
