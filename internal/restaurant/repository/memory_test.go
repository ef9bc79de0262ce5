package repository

import (
	"context"
	"math/rand"
	"testing"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/schema"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRestaurant(name string, c restaurant.Cuisine) *restaurant.Restaurant {
	r := restaurant.New(name, c)
	r.AssignAddress(restaurant.NewAddress("Rua das Flores", "120", "Curitiba", "PR", "80010000"))
	return r
}

func TestMemoryRepo_InsertFindUpdateCuisine(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	a := newRestaurant("Tasty", restaurant.Italian)
	id, err := repo.Insert(ctx, a)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, got.ID())
	require.Equal(t, a.Name(), got.Name())
	require.Equal(t, a.Cuisine(), got.Cuisine())
	require.Equal(t, a.Address(), got.Address())

	modified, err := repo.UpdateCuisineOnly(ctx, id, restaurant.Japanese)
	require.NoError(t, err)
	require.True(t, modified)

	got, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, restaurant.Japanese, got.Cuisine())

	// same value again is a no-op
	modified, err = repo.UpdateCuisineOnly(ctx, id, restaurant.Japanese)
	require.NoError(t, err)
	require.False(t, modified)
}

func TestMemoryRepo_FindByIDNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	got, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = repo.FindByID(ctx, "not-an-id")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryRepo_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	id, err := repo.Insert(ctx, newRestaurant("Tasty", restaurant.Italian))
	require.NoError(t, err)

	same := restaurant.Rehydrate(id, "Tasty", restaurant.Italian)
	same.AssignAddress(restaurant.NewAddress("Rua das Flores", "120", "Curitiba", "PR", "80010000"))
	modified, err := repo.ReplaceAll(ctx, same)
	require.NoError(t, err)
	require.False(t, modified, "identical content reports no modification")

	changed := restaurant.Rehydrate(id, "Tasty Place", restaurant.Arab)
	changed.AssignAddress(restaurant.NewAddress("Rua B", "2", "Recife", "PE", "50010000"))
	modified, err = repo.ReplaceAll(ctx, changed)
	require.NoError(t, err)
	require.True(t, modified)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Tasty Place", got.Name())
	require.Equal(t, "Recife", got.Address().City())

	missing := restaurant.Rehydrate(primitive.NewObjectID().Hex(), "x", restaurant.Arab)
	modified, err = repo.ReplaceAll(ctx, missing)
	require.NoError(t, err)
	require.False(t, modified)

	_, err = repo.ReplaceAll(ctx, newRestaurant("new", restaurant.Arab))
	require.ErrorIs(t, err, restaurant.ErrInvalidID)
}

func TestMemoryRepo_FindByNameContains(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_, _ = repo.Insert(ctx, newRestaurant("Tasty Place", restaurant.Italian))
	_, _ = repo.Insert(ctx, newRestaurant("Gourmet House", restaurant.Brazilian))
	_, _ = repo.Insert(ctx, newRestaurant("MOST TASTY", restaurant.FastFood))

	got, err := repo.FindByNameContains(ctx, "tas")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Tasty Place", got[0].Name())
	require.Equal(t, "MOST TASTY", got[1].Name())

	got, err = repo.FindByNameContains(ctx, "a.c")
	require.NoError(t, err)
	require.Empty(t, got, "fragment is matched literally")
}

func TestMemoryRepo_FindByFreeText(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_, _ = repo.Insert(ctx, newRestaurant("Pizza Place", restaurant.Italian))
	_, _ = repo.Insert(ctx, newRestaurant("Sushi House", restaurant.Japanese))
	_, _ = repo.Insert(ctx, newRestaurant("Pizza House", restaurant.Italian))

	got, err := repo.FindByFreeText(ctx, "pizza house")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "Pizza House", got[0].Name())

	got, err = repo.FindByFreeText(ctx, "ramen")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryRepo_FindByFreeTextMatchesWholeWords(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_, _ = repo.Insert(ctx, newRestaurant("Pizzaria Napoli", restaurant.Italian))
	_, _ = repo.Insert(ctx, newRestaurant("Casa da Pizza", restaurant.Italian))
	_, _ = repo.Insert(ctx, newRestaurant("Sushi-Bar & Pizza Grill", restaurant.Japanese))

	got, err := repo.FindByFreeText(ctx, "PIZZA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Casa da Pizza", got[0].Name())
	require.Equal(t, "Sushi-Bar & Pizza Grill", got[1].Name())

	got, err = repo.FindByFreeText(ctx, "grill bar pizza")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Sushi-Bar & Pizza Grill", got[0].Name())
}

func TestMemoryRepo_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	id, _ := repo.Insert(ctx, newRestaurant("Tasty", restaurant.Italian))
	other, _ := repo.Insert(ctx, newRestaurant("Other", restaurant.Italian))
	require.NoError(t, repo.Rate(ctx, id, restaurant.NewRating(5, "great")))
	require.NoError(t, repo.Rate(ctx, id, restaurant.NewRating(3, "ok")))
	require.NoError(t, repo.Rate(ctx, other, restaurant.NewRating(4, "fine")))

	rs, rt, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), rs)
	require.Equal(t, int64(2), rt)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Len(t, repo.ratingsOf(mustOID(t, other)), 1)

	rs, rt, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	require.Zero(t, rs)
	require.Zero(t, rt)
}

func TestMemoryRepo_RateAllowsOrphans(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.Rate(ctx, primitive.NewObjectID().Hex(), restaurant.NewRating(4, "ghost")))
	require.ErrorIs(t, repo.Rate(ctx, "bad", restaurant.NewRating(4, "x")), restaurant.ErrInvalidID)

	// orphaned ratings never surface in the ranking
	top, err := repo.Top3(ctx)
	require.NoError(t, err)
	require.Empty(t, top)
	top, err = repo.Top3WithJoin(ctx)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestMemoryRepo_UndecodableDocumentSkipped(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	good, _ := repo.Insert(ctx, newRestaurant("Good", restaurant.Italian))
	bad := schema.RestaurantDocument{ID: primitive.NewObjectID(), Name: "Bad", Cuisine: 999}
	repo.restaurants = append(repo.restaurants, bad)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, good, all[0].ID())

	_, err = repo.FindByID(ctx, bad.ID.Hex())
	require.ErrorIs(t, err, restaurant.ErrInvalidCuisineCode)
}

func TestMemoryRepo_Top3(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	ids := map[string]string{}
	for _, n := range []string{"A", "B", "C", "D"} {
		id, err := repo.Insert(ctx, newRestaurant(n, restaurant.Italian))
		require.NoError(t, err)
		ids[n] = id
	}
	rate := func(n string, stars ...int) {
		for _, s := range stars {
			require.NoError(t, repo.Rate(ctx, ids[n], restaurant.NewRating(s, "c")))
		}
	}
	rate("A", 2, 3)    // 2.5
	rate("B", 5, 4)    // 4.5
	rate("C", 1)       // 1
	rate("D", 4, 4, 4) // 4

	top, err := repo.Top3(ctx)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, "B", top[0].Restaurant.Name())
	require.Equal(t, 4.5, top[0].AverageStars)
	require.Equal(t, "D", top[1].Restaurant.Name())
	require.Equal(t, "A", top[2].Restaurant.Name())
	require.Len(t, top[1].Restaurant.Ratings(), 3)

	joined, err := repo.Top3WithJoin(ctx)
	require.NoError(t, err)
	requireSameRanking(t, top, joined)
}

func TestTop3AndTop3WithJoinAgree(t *testing.T) {
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		repo := NewMemoryRepo()
		n := 3 + rnd.Intn(6)
		var ids []string
		for i := 0; i < n; i++ {
			id, err := repo.Insert(ctx, newRestaurant("R", restaurant.Cuisines()[rnd.Intn(5)]))
			require.NoError(t, err)
			ids = append(ids, id)
		}
		for i := 0; i < n*3; i++ {
			// small star range forces ties
			stars := 3 + rnd.Intn(3)
			require.NoError(t, repo.Rate(ctx, ids[rnd.Intn(n)], restaurant.NewRating(stars, "c")))
		}
		if rnd.Intn(2) == 0 {
			_, _, err := repo.Delete(ctx, ids[0])
			require.NoError(t, err)
		}

		top, err := repo.Top3(ctx)
		require.NoError(t, err)
		joined, err := repo.Top3WithJoin(ctx)
		require.NoError(t, err)
		requireSameRanking(t, top, joined)
		require.LessOrEqual(t, len(top), TopN)
		for i := 1; i < len(top); i++ {
			require.GreaterOrEqual(t, top[i-1].AverageStars, top[i].AverageStars)
		}
	}
}

func requireSameRanking(t *testing.T, a, b []restaurant.RankedRestaurant) {
	t.Helper()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Restaurant.ID(), b[i].Restaurant.ID())
		require.Equal(t, a[i].AverageStars, b[i].AverageStars)
		require.Equal(t, a[i].Restaurant.Ratings(), b[i].Restaurant.Ratings())
	}
}

func mustOID(t *testing.T, id string) primitive.ObjectID {
	t.Helper()
	oid, err := schema.ParseID(id)
	require.NoError(t, err)
	return oid
}
