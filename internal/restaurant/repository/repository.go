package repository

import (
	"context"
	"errors"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/schema"
	"github.com/restocatalog/go-services/pkg/logger"
	"github.com/restocatalog/go-services/pkg/metrics"
	"go.uber.org/zap"
)

// TopN is the fixed size of the ranking queries.
const TopN = 3

// Repository persists restaurants and their ratings.
//
// FindByID returns (nil, nil) when nothing matches. ReplaceAll and
// UpdateCuisineOnly report whether the store modified a document; a write
// with identical content reports false even though the target exists.
// Multi-document operations are not transactional.
type Repository interface {
	Insert(ctx context.Context, r *restaurant.Restaurant) (string, error)
	FindAll(ctx context.Context) ([]*restaurant.Restaurant, error)
	FindByID(ctx context.Context, id string) (*restaurant.Restaurant, error)
	ReplaceAll(ctx context.Context, r *restaurant.Restaurant) (bool, error)
	UpdateCuisineOnly(ctx context.Context, id string, c restaurant.Cuisine) (bool, error)
	FindByNameContains(ctx context.Context, fragment string) ([]*restaurant.Restaurant, error)
	FindByFreeText(ctx context.Context, text string) ([]*restaurant.Restaurant, error)
	// Rate does not check that the restaurant exists.
	Rate(ctx context.Context, restaurantID string, rt restaurant.Rating) error
	// Delete removes the restaurant and then every rating pointing at it.
	Delete(ctx context.Context, id string) (restaurants int64, ratings int64, err error)
	// Top3 ranks by average stars and fetches each restaurant and its
	// ratings separately.
	Top3(ctx context.Context) ([]restaurant.RankedRestaurant, error)
	// Top3WithJoin returns the same result as Top3 in one round-trip.
	Top3WithJoin(ctx context.Context) ([]restaurant.RankedRestaurant, error)
}

// decodeRestaurants maps a batch of documents. A document with an unknown
// cuisine is skipped and counted; it does not fail the batch.
func decodeRestaurants(ctx context.Context, docs []schema.RestaurantDocument) ([]*restaurant.Restaurant, error) {
	out := make([]*restaurant.Restaurant, 0, len(docs))
	for _, d := range docs {
		r, err := schema.ToRestaurant(d)
		if err != nil {
			if errors.Is(err, restaurant.ErrInvalidCuisineCode) {
				skipUndecodable(ctx, "restaurants", schema.FormatID(d.ID), err)
				continue
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func skipUndecodable(ctx context.Context, collection, id string, err error) {
	metrics.DecodeFailures.WithLabelValues(collection).Inc()
	logger.FromContext(ctx).Warn("skipping undecodable document",
		zap.String("collection", collection), zap.String("id", id), zap.Error(err))
}
