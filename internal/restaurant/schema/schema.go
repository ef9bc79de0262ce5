// Package schema defines the MongoDB document shapes of the catalog and the
// pure mapping between them and the domain model.
package schema

import (
	"github.com/restocatalog/go-services/internal/restaurant"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressDocument is the address embedded in a restaurant document.
type AddressDocument struct {
	Street     string `bson:"street" json:"street"`
	Number     string `bson:"number" json:"number"`
	City       string `bson:"city" json:"city"`
	RegionCode string `bson:"regionCode" json:"regionCode"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
}

// RestaurantDocument is stored in the restaurants collection. Cuisine is
// the integer code of restaurant.Cuisine.
type RestaurantDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Cuisine int                `bson:"cuisine" json:"cuisine"`
	Address AddressDocument    `bson:"address" json:"address"`
}

// RatingDocument is stored in the ratings collection and points back at its
// restaurant through RestaurantID.
type RatingDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	Stars        int                `bson:"stars" json:"stars"`
	Comment      string             `bson:"comment" json:"comment"`
}

// RankingDocument is one row of the top-3 aggregation. ID is the restaurant
// id the ratings were grouped by. Restaurant and Ratings are filled by the
// $lookup stages of the joined pipeline.
type RankingDocument struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	AverageStars float64              `bson:"averageStars" json:"averageStars"`
	Restaurant   []RestaurantDocument `bson:"restaurant,omitempty" json:"restaurant,omitempty"`
	Ratings      []RatingDocument     `bson:"ratings,omitempty" json:"ratings,omitempty"`
}

// ParseID converts a hex id into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, restaurant.ErrInvalidID
	}
	return oid, nil
}

// FormatID is the inverse of ParseID. The nil ObjectID formats as "".
func FormatID(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

// FromAddress flattens an address into its embedded document.
func FromAddress(a restaurant.Address) AddressDocument {
	return AddressDocument{
		Street:     a.Street(),
		Number:     a.Number(),
		City:       a.City(),
		RegionCode: a.RegionCode(),
		PostalCode: a.PostalCode(),
	}
}

// ToAddress rebuilds an address from its embedded document.
func ToAddress(d AddressDocument) restaurant.Address {
	return restaurant.NewAddress(d.Street, d.Number, d.City, d.RegionCode, d.PostalCode)
}

// FromRestaurant maps a restaurant to its document. The id is left empty for
// a new restaurant so the store assigns one.
func FromRestaurant(r *restaurant.Restaurant) (RestaurantDocument, error) {
	doc := RestaurantDocument{
		Name:    r.Name(),
		Cuisine: r.Cuisine().Code(),
		Address: FromAddress(r.Address()),
	}
	if !r.IsNew() {
		oid, err := ParseID(r.ID())
		if err != nil {
			return RestaurantDocument{}, err
		}
		doc.ID = oid
	}
	return doc, nil
}

// ToRestaurant maps a stored document back to a restaurant. An unknown
// cuisine code fails with restaurant.ErrInvalidCuisineCode.
func ToRestaurant(doc RestaurantDocument) (*restaurant.Restaurant, error) {
	c, err := restaurant.CuisineFromCode(doc.Cuisine)
	if err != nil {
		return nil, err
	}
	r := restaurant.Rehydrate(FormatID(doc.ID), doc.Name, c)
	r.AssignAddress(ToAddress(doc.Address))
	return r, nil
}

// FromRating maps a rating of the given restaurant to its document.
func FromRating(restaurantID primitive.ObjectID, rt restaurant.Rating) RatingDocument {
	return RatingDocument{
		RestaurantID: restaurantID,
		Stars:        rt.Stars(),
		Comment:      rt.Comment(),
	}
}

func ToRating(doc RatingDocument) restaurant.Rating {
	return restaurant.NewRating(doc.Stars, doc.Comment)
}

// ToRanked rebuilds a ranking row whose restaurant and ratings were joined
// in. ok is false when the restaurant no longer exists.
func ToRanked(doc RankingDocument) (ranked restaurant.RankedRestaurant, ok bool, err error) {
	if len(doc.Restaurant) == 0 {
		return restaurant.RankedRestaurant{}, false, nil
	}
	r, err := ToRestaurant(doc.Restaurant[0])
	if err != nil {
		return restaurant.RankedRestaurant{}, false, err
	}
	for _, rd := range doc.Ratings {
		r.AppendRating(ToRating(rd))
	}
	return restaurant.RankedRestaurant{Restaurant: r, AverageStars: doc.AverageStars}, true, nil
}

// FromRanked is the inverse of ToRanked, used to cache ranking results.
func FromRanked(rr restaurant.RankedRestaurant) (RankingDocument, error) {
	rd, err := FromRestaurant(rr.Restaurant)
	if err != nil {
		return RankingDocument{}, err
	}
	out := RankingDocument{
		ID:           rd.ID,
		AverageStars: rr.AverageStars,
		Restaurant:   []RestaurantDocument{rd},
	}
	for _, rt := range rr.Restaurant.Ratings() {
		out.Ratings = append(out.Ratings, FromRating(rd.ID, rt))
	}
	return out, nil
}
