package schema

import (
	"errors"
	"testing"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sample() *restaurant.Restaurant {
	r := restaurant.New("Tasty", restaurant.Italian)
	r.AssignAddress(restaurant.NewAddress("Rua das Flores", "120", "Curitiba", "PR", "80010000"))
	return r
}

func TestFromRestaurant_NewOmitsID(t *testing.T) {
	doc, err := FromRestaurant(sample())
	require.NoError(t, err)
	require.True(t, doc.ID.IsZero())
	require.Equal(t, 2, doc.Cuisine)
	require.Equal(t, "Curitiba", doc.Address.City)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	_, hasID := m["_id"]
	require.False(t, hasID, "new restaurant must not carry _id")
	require.EqualValues(t, 2, m["cuisine"])
}

func TestFromRestaurant_PersistedCarriesID(t *testing.T) {
	oid := primitive.NewObjectID()
	r := restaurant.Rehydrate(oid.Hex(), "Tasty", restaurant.Japanese)
	r.AssignAddress(restaurant.NewAddress("Rua A", "1", "Recife", "PE", "50010000"))
	doc, err := FromRestaurant(r)
	require.NoError(t, err)
	require.Equal(t, oid, doc.ID)

	_, err = FromRestaurant(restaurant.Rehydrate("not-hex", "x", restaurant.Arab))
	require.ErrorIs(t, err, restaurant.ErrInvalidID)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range restaurant.Cuisines() {
		e := restaurant.New("Place "+c.String(), c)
		e.AssignAddress(restaurant.NewAddress("Rua A", "10B", "São Paulo", "SP", "01001000"))
		_, ok := e.Validate()
		require.True(t, ok)

		doc, err := FromRestaurant(e)
		require.NoError(t, err)
		got, err := ToRestaurant(doc)
		require.NoError(t, err)

		require.Equal(t, e.Name(), got.Name())
		require.Equal(t, e.Cuisine(), got.Cuisine())
		require.Equal(t, e.Address(), got.Address())
		require.Empty(t, got.ID())
	}
}

func TestRoundTrip_ThroughBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	e := restaurant.Rehydrate(oid.Hex(), "Gourmet House", restaurant.FastFood)
	e.AssignAddress(restaurant.NewAddress("Av. Brasil", "5", "Rio de Janeiro", "RJ", "20040002"))
	doc, err := FromRestaurant(e)
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var back RestaurantDocument
	require.NoError(t, bson.Unmarshal(raw, &back))

	got, err := ToRestaurant(back)
	require.NoError(t, err)
	require.Equal(t, oid.Hex(), got.ID())
	require.Equal(t, e.Address(), got.Address())
	require.Equal(t, restaurant.FastFood, got.Cuisine())
}

func TestToRestaurant_InvalidCuisine(t *testing.T) {
	doc, _ := FromRestaurant(sample())
	doc.Cuisine = 999
	_, err := ToRestaurant(doc)
	require.True(t, errors.Is(err, restaurant.ErrInvalidCuisineCode))
}

func TestRatingMapping(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := FromRating(oid, restaurant.NewRating(4, "good"))
	require.Equal(t, oid, doc.RestaurantID)
	require.True(t, doc.ID.IsZero())
	rt := ToRating(doc)
	require.Equal(t, 4, rt.Stars())
	require.Equal(t, "good", rt.Comment())
}

func TestRankedMapping(t *testing.T) {
	oid := primitive.NewObjectID()
	r := restaurant.Rehydrate(oid.Hex(), "Tasty", restaurant.Italian)
	r.AssignAddress(restaurant.NewAddress("Rua A", "1", "Curitiba", "PR", "80010000"))
	r.AppendRating(restaurant.NewRating(5, "a"))
	r.AppendRating(restaurant.NewRating(4, "b"))

	doc, err := FromRanked(restaurant.RankedRestaurant{Restaurant: r, AverageStars: 4.5})
	require.NoError(t, err)
	require.Equal(t, oid, doc.ID)
	require.Len(t, doc.Ratings, 2)

	back, ok, err := ToRanked(doc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4.5, back.AverageStars)
	require.Equal(t, r.Ratings(), back.Restaurant.Ratings())

	_, ok, err = ToRanked(RankingDocument{ID: oid, AverageStars: 3})
	require.NoError(t, err)
	require.False(t, ok)
}
