// Package restaurant holds the catalog's domain model: the Restaurant entity,
// its Address and Rating value objects, the Cuisine enumeration and the
// validation rules that gate every write.
package restaurant

import "errors"

// ErrInvalidID is returned when an id is not a well formed store id.
var ErrInvalidID = errors.New("invalid restaurant id")

// Restaurant is either new (no id yet) or persisted (store-assigned id).
type Restaurant struct {
	id      string
	name    string
	cuisine Cuisine
	address *Address
	ratings []Rating
}

// New returns a restaurant that has not been stored yet.
func New(name string, cuisine Cuisine) *Restaurant {
	return &Restaurant{name: name, cuisine: cuisine}
}

// Rehydrate returns a restaurant that already carries its store id.
func Rehydrate(id, name string, cuisine Cuisine) *Restaurant {
	return &Restaurant{id: id, name: name, cuisine: cuisine}
}

func (r *Restaurant) ID() string       { return r.id }
func (r *Restaurant) Name() string     { return r.name }
func (r *Restaurant) Cuisine() Cuisine { return r.cuisine }
func (r *Restaurant) IsNew() bool      { return r.id == "" }
func (r *Restaurant) HasAddress() bool { return r.address != nil }

// Address returns the owned address, or the zero Address when none is set.
func (r *Restaurant) Address() Address {
	if r.address == nil {
		return Address{}
	}
	return *r.address
}

// Ratings returns a copy of the in-memory ratings.
func (r *Restaurant) Ratings() []Rating {
	out := make([]Rating, len(r.ratings))
	copy(out, r.ratings)
	return out
}

// AssignAddress replaces the owned address.
func (r *Restaurant) AssignAddress(a Address) {
	r.address = &a
}

// AppendRating adds a rating to the in-memory collection. Only used when a
// restaurant is rebuilt for ranking output; ratings are never saved through
// the restaurant document.
func (r *Restaurant) AppendRating(rt Rating) {
	r.ratings = append(r.ratings, rt)
}

// WithCuisine returns a copy of r with another cuisine.
func (r *Restaurant) WithCuisine(c Cuisine) *Restaurant {
	cp := *r
	cp.ratings = r.Ratings()
	cp.cuisine = c
	return &cp
}

// Validate runs the restaurant rules followed by the address rules. The
// restaurant is valid only when both sets pass.
func (r *Restaurant) Validate() (Violations, bool) {
	var v rules
	v.notEmpty("name", r.name, "name must not be empty")
	v.check(r.cuisine.Valid(), "cuisine", "cuisine must be a known cuisine")
	v.check(r.address != nil, "address", "address must be provided")
	out := v.out
	if r.address != nil {
		out = append(out, ValidateAddress(*r.address)...)
	}
	return out, out.Valid()
}

// RankedRestaurant pairs a restaurant with its average star score.
type RankedRestaurant struct {
	Restaurant   *Restaurant
	AverageStars float64
}
