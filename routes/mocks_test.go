package routes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-api/database"
	"catalog-api/models"
	"catalog-api/query"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func notFound() error {
	return &database.StoreError{Sentinel: database.ErrNotFound}
}

func duplicate() error {
	return &database.StoreError{Sentinel: database.ErrDuplicateKey}
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return id, &database.StoreError{Sentinel: database.ErrInvalidID, Cause: err}
	}
	return id, nil
}

// mockUserRepository keeps users in memory and enforces the unique email index.
type mockUserRepository struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	order []primitive.ObjectID
	calls int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *mockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return duplicate()
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = epoch.Add(time.Duration(len(r.order)) * time.Second)
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	r.order = append(r.order, user.ID)
	return nil
}

func (r *mockUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return nil, notFound()
	}
	out := *u
	return &out, nil
}

func (r *mockUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, notFound()
}

func (r *mockUserRepository) List(_ context.Context, q query.Query) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.User
	for _, id := range r.order {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		fields := map[string]string{"firstName": u.FirstName, "lastName": u.LastName, "email": u.Email}
		if matches(q, fields, 0) {
			out := *u
			out.Password = ""
			matched = append(matched, out)
		}
	}
	sortBy(q, matched, func(u models.User) (time.Time, float64, string) {
		return u.CreatedAt, 0, u.LastName
	})
	return window(q, matched), int64(len(matched)), nil
}

func (r *mockUserRepository) Update(_ context.Context, id string, patch models.UserPatch) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return nil, notFound()
	}
	if patch.Email != nil {
		for other, existing := range r.users {
			if other != oid && strings.EqualFold(existing.Email, *patch.Email) {
				return nil, duplicate()
			}
		}
	}
	patch.Apply(u)
	u.UpdatedAt = u.UpdatedAt.Add(time.Minute)
	out := *u
	return &out, nil
}

func (r *mockUserRepository) Delete(_ context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[oid]; !ok {
		return notFound()
	}
	delete(r.users, oid)
	return nil
}

// mockProductRepository keeps products in memory, enforces the unique SKU
// index and joins owners from users.
type mockProductRepository struct {
	mu       sync.Mutex
	users    *mockUserRepository
	products map[primitive.ObjectID]*models.Product
	order    []primitive.ObjectID
	calls    int
}

func newMockProductRepository(users *mockUserRepository) *mockProductRepository {
	return &mockProductRepository{users: users, products: make(map[primitive.ObjectID]*models.Product)}
}

func (r *mockProductRepository) populate(p models.Product) *models.Product {
	if u, err := r.users.FindByID(context.Background(), p.CreatedBy.Hex()); err == nil {
		p.Owner = &models.Owner{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
	}
	return &p
}

func (r *mockProductRepository) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return nil, duplicate()
		}
	}
	product.ID = primitive.NewObjectID()
	product.CreatedAt = epoch.Add(time.Duration(len(r.order)) * time.Second)
	product.UpdatedAt = product.CreatedAt
	stored := *product
	r.products[product.ID] = &stored
	r.order = append(r.order, product.ID)
	return r.populate(stored), nil
}

func (r *mockProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[oid]
	if !ok {
		return nil, notFound()
	}
	return r.populate(*p), nil
}

func (r *mockProductRepository) List(_ context.Context, q query.Query) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.Product
	for _, id := range r.order {
		p, ok := r.products[id]
		if !ok {
			continue
		}
		fields := map[string]string{
			"name":        p.Name,
			"description": p.Description,
			"brand":       p.Brand,
			"category":    p.Category,
		}
		if matches(q, fields, p.Price) {
			matched = append(matched, *r.populate(*p))
		}
	}
	sortBy(q, matched, func(p models.Product) (time.Time, float64, string) {
		return p.CreatedAt, p.Price, p.Name
	})
	return window(q, matched), int64(len(matched)), nil
}

func (r *mockProductRepository) Update(_ context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[oid]
	if !ok {
		return nil, notFound()
	}
	if patch.SKU != nil {
		for other, existing := range r.products {
			if other != oid && existing.SKU == *patch.SKU {
				return nil, duplicate()
			}
		}
	}
	patch.Apply(p)
	return r.populate(*p), nil
}

func (r *mockProductRepository) Delete(_ context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[oid]; !ok {
		return notFound()
	}
	delete(r.products, oid)
	return nil
}

// matches evaluates q the way the mongo filter would: a case-insensitive
// substring for q and per-field filters, exact equality, inclusive range.
// Full-text search is approximated with a substring over the text fields.
func matches(q query.Query, fields map[string]string, rangeValue float64) bool {
	containsFold := func(s, sub string) bool {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	anyField := func(term string) bool {
		for _, name := range q.TextFields {
			if containsFold(fields[name], term) {
				return true
			}
		}
		return false
	}
	if q.Term != "" && !anyField(q.Term) {
		return false
	}
	if q.FullText != "" && !anyField(q.FullText) {
		return false
	}
	for _, m := range q.Contains {
		if !containsFold(fields[m.Field], m.Value) {
			return false
		}
	}
	for _, m := range q.Equals {
		if fields[m.Field] != m.Value {
			return false
		}
	}
	if q.Min != nil && rangeValue < *q.Min {
		return false
	}
	if q.Max != nil && rangeValue > *q.Max {
		return false
	}
	return true
}

func sortBy[T any](q query.Query, items []T, key func(T) (time.Time, float64, string)) {
	less := func(a, b T) bool {
		ta, na, sa := key(a)
		tb, nb, sb := key(b)
		switch q.SortBy {
		case "price":
			return na < nb
		case "name", "lastName":
			return sa < sb
		default:
			return ta.Before(tb)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if q.Descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func window[T any](q query.Query, items []T) []T {
	out := []T{}
	for i := q.Offset; i < int64(len(items)) && i < q.Offset+q.Limit; i++ {
		out = append(out, items[i])
	}
	return out
}
