package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-process Repository used by unit tests and by local
// runs without MongoDB. It keeps the same documents the Mongo repository
// stores; iteration order is insertion order.
type MemoryRepo struct {
	mu          sync.RWMutex
	restaurants []schema.RestaurantDocument
	ratings     []schema.RatingDocument
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// indexOf returns the position of the restaurant with the given id, or -1.
// Caller holds the lock.
func (m *MemoryRepo) indexOf(oid primitive.ObjectID) int {
	for i, d := range m.restaurants {
		if d.ID == oid {
			return i
		}
	}
	return -1
}

func (m *MemoryRepo) Insert(ctx context.Context, r *restaurant.Restaurant) (string, error) {
	doc, err := schema.FromRestaurant(r)
	if err != nil {
		return "", err
	}
	doc.ID = primitive.NewObjectID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants = append(m.restaurants, doc)
	return doc.ID.Hex(), nil
}

func (m *MemoryRepo) FindAll(ctx context.Context) ([]*restaurant.Restaurant, error) {
	return m.filter(ctx, func(schema.RestaurantDocument) bool { return true })
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	oid, err := schema.ParseID(id)
	if err != nil {
		return nil, nil
	}
	m.mu.RLock()
	i := m.indexOf(oid)
	if i < 0 {
		m.mu.RUnlock()
		return nil, nil
	}
	doc := m.restaurants[i]
	m.mu.RUnlock()
	return schema.ToRestaurant(doc)
}

func (m *MemoryRepo) ReplaceAll(ctx context.Context, r *restaurant.Restaurant) (bool, error) {
	if r.IsNew() {
		return false, restaurant.ErrInvalidID
	}
	doc, err := schema.FromRestaurant(r)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(doc.ID)
	if i < 0 || m.restaurants[i] == doc {
		return false, nil
	}
	m.restaurants[i] = doc
	return true, nil
}

func (m *MemoryRepo) UpdateCuisineOnly(ctx context.Context, id string, c restaurant.Cuisine) (bool, error) {
	oid, err := schema.ParseID(id)
	if err != nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(oid)
	if i < 0 || m.restaurants[i].Cuisine == c.Code() {
		return false, nil
	}
	m.restaurants[i].Cuisine = c.Code()
	return true, nil
}

func (m *MemoryRepo) FindByNameContains(ctx context.Context, fragment string) ([]*restaurant.Restaurant, error) {
	needle := strings.ToLower(fragment)
	return m.filter(ctx, func(d schema.RestaurantDocument) bool {
		return strings.Contains(strings.ToLower(d.Name), needle)
	})
}

// FindByFreeText matches whole words of the name, ignoring case. Relevance
// is the number of distinct query terms found; ties keep insertion order.
func (m *MemoryRepo) FindByFreeText(ctx context.Context, text string) ([]*restaurant.Restaurant, error) {
	terms := words(text)
	type hit struct {
		doc   schema.RestaurantDocument
		score int
	}
	var hits []hit
	m.mu.RLock()
	for _, d := range m.restaurants {
		name := words(d.Name)
		score := 0
		for t := range terms {
			if name[t] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{doc: d, score: score})
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	docs := make([]schema.RestaurantDocument, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return decodeRestaurants(ctx, docs)
}

func words(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = true
	}
	return out
}

func (m *MemoryRepo) filter(ctx context.Context, keep func(schema.RestaurantDocument) bool) ([]*restaurant.Restaurant, error) {
	m.mu.RLock()
	docs := []schema.RestaurantDocument{}
	for _, d := range m.restaurants {
		if keep(d) {
			docs = append(docs, d)
		}
	}
	m.mu.RUnlock()
	return decodeRestaurants(ctx, docs)
}

func (m *MemoryRepo) Rate(ctx context.Context, restaurantID string, rt restaurant.Rating) error {
	oid, err := schema.ParseID(restaurantID)
	if err != nil {
		return err
	}
	doc := schema.FromRating(oid, rt)
	doc.ID = primitive.NewObjectID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = append(m.ratings, doc)
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) (int64, int64, error) {
	oid, err := schema.ParseID(id)
	if err != nil {
		return 0, 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var restaurants, ratings int64
	if i := m.indexOf(oid); i >= 0 {
		m.restaurants = append(m.restaurants[:i], m.restaurants[i+1:]...)
		restaurants = 1
	}
	kept := m.ratings[:0]
	for _, rd := range m.ratings {
		if rd.RestaurantID == oid {
			ratings++
			continue
		}
		kept = append(kept, rd)
	}
	m.ratings = kept
	return restaurants, ratings, nil
}

// rank groups the ratings by restaurant, averages the stars and keeps the
// best TopN, ordering equal averages by restaurant id.
func (m *MemoryRepo) rank() []schema.RankingDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type acc struct {
		sum, n int
	}
	groups := map[primitive.ObjectID]*acc{}
	var order []primitive.ObjectID
	for _, rd := range m.ratings {
		a, ok := groups[rd.RestaurantID]
		if !ok {
			a = &acc{}
			groups[rd.RestaurantID] = a
			order = append(order, rd.RestaurantID)
		}
		a.sum += rd.Stars
		a.n++
	}
	rows := make([]schema.RankingDocument, 0, len(order))
	for _, id := range order {
		a := groups[id]
		rows = append(rows, schema.RankingDocument{ID: id, AverageStars: float64(a.sum) / float64(a.n)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AverageStars != rows[j].AverageStars {
			return rows[i].AverageStars > rows[j].AverageStars
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) < 0
	})
	if len(rows) > TopN {
		rows = rows[:TopN]
	}
	return rows
}

func (m *MemoryRepo) ratingsOf(oid primitive.ObjectID) []schema.RatingDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schema.RatingDocument
	for _, rd := range m.ratings {
		if rd.RestaurantID == oid {
			out = append(out, rd)
		}
	}
	return out
}

func (m *MemoryRepo) Top3(ctx context.Context) ([]restaurant.RankedRestaurant, error) {
	rows := m.rank()
	out := make([]restaurant.RankedRestaurant, 0, len(rows))
	for _, row := range rows {
		r, err := m.FindByID(ctx, row.ID.Hex())
		if err != nil {
			skipUndecodable(ctx, "restaurants", row.ID.Hex(), err)
			continue
		}
		if r == nil {
			continue
		}
		for _, rd := range m.ratingsOf(row.ID) {
			r.AppendRating(schema.ToRating(rd))
		}
		out = append(out, restaurant.RankedRestaurant{Restaurant: r, AverageStars: row.AverageStars})
	}
	return out, nil
}

// Top3WithJoin embeds restaurant and ratings into the ranking rows under a
// single read lock, the way the $lookup pipeline does on the server.
func (m *MemoryRepo) Top3WithJoin(ctx context.Context) ([]restaurant.RankedRestaurant, error) {
	rows := m.rank()
	m.mu.RLock()
	for i := range rows {
		if j := m.indexOf(rows[i].ID); j >= 0 {
			rows[i].Restaurant = []schema.RestaurantDocument{m.restaurants[j]}
		}
		for _, rd := range m.ratings {
			if rd.RestaurantID == rows[i].ID {
				rows[i].Ratings = append(rows[i].Ratings, rd)
			}
		}
	}
	m.mu.RUnlock()
	return rankedFromRows(ctx, rows), nil
}
