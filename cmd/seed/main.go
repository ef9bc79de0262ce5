// Command seed loads a small sample catalog with ratings into the configured
// MongoDB database, going through the same validation as the API.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/restocatalog/go-services/internal/config"
	"github.com/restocatalog/go-services/internal/database"
	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/cache"
	"github.com/restocatalog/go-services/internal/restaurant/repository"
	"github.com/restocatalog/go-services/internal/restaurant/service"
	"github.com/restocatalog/go-services/pkg/logger"
)

type sample struct {
	in      service.CreateInput
	ratings []service.RateInput
}

func samples() []sample {
	addr := func(street, city, region, postal string) service.AddressInput {
		return service.AddressInput{Street: street, Number: "100", City: city, RegionCode: region, PostalCode: postal}
	}
	return []sample{
		{
			in:      service.CreateInput{Name: "Churrascaria Gaucha", Cuisine: restaurant.Brazilian.Code(), Address: addr("Av. Ipiranga", "Porto Alegre", "RS", "90160093")},
			ratings: []service.RateInput{{Stars: 5, Comment: "Excellent picanha"}, {Stars: 4, Comment: "Busy on weekends"}},
		},
		{
			in:      service.CreateInput{Name: "Trattoria Bella", Cuisine: restaurant.Italian.Code(), Address: addr("Rua Augusta", "Sao Paulo", "SP", "01305000")},
			ratings: []service.RateInput{{Stars: 4, Comment: "Fresh pasta"}, {Stars: 3, Comment: "Slow service"}},
		},
		{
			in:      service.CreateInput{Name: "Sushi Kaze", Cuisine: restaurant.Japanese.Code(), Address: addr("Rua Galvao Bueno", "Sao Paulo", "SP", "01506000")},
			ratings: []service.RateInput{{Stars: 5, Comment: "Best omakase in town"}},
		},
		{
			in:      service.CreateInput{Name: "Casa Libanesa", Cuisine: restaurant.Arab.Code(), Address: addr("Rua 25 de Marco", "Sao Paulo", "SP", "01021000")},
			ratings: []service.RateInput{{Stars: 2, Comment: "Cold food"}, {Stars: 3, Comment: "Good hummus"}},
		},
		{
			in: service.CreateInput{Name: "Burger Express", Cuisine: restaurant.FastFood.Code(), Address: addr("Av. Boa Viagem", "Recife", "PE", "51011000")},
		},
	}
}

func seed(ctx context.Context, svc *service.Service, items []sample) (restaurants, ratings int, err error) {
	for _, s := range items {
		id, err := svc.Create(ctx, s.in)
		if err != nil {
			return restaurants, ratings, err
		}
		restaurants++
		for _, r := range s.ratings {
			if err := svc.Rate(ctx, id, r); err != nil {
				return restaurants, ratings, err
			}
			ratings++
		}
	}
	return restaurants, ratings, nil
}

func main() {
	dryRun := flag.Bool("dry-run", false, "validate samples against an in-memory store only")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	ctx := context.Background()

	var (
		repo     repository.Repository
		rankings *cache.RankingCache
	)
	if *dryRun {
		repo = repository.NewMemoryRepo()
	} else {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("seed aborted: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		db := client.Database(cfg.MongoDB.Database)
		restaurantsColl := db.Collection(cfg.MongoDB.RestaurantsCollection)
		ratingsColl := db.Collection(cfg.MongoDB.RatingsCollection)
		if err := database.EnsureIndexes(ctx, restaurantsColl, ratingsColl); err != nil {
			logger.Fatalf("failed to create indexes: %v", err)
		}
		repo = repository.NewMongoRepo(restaurantsColl, ratingsColl)

		// drop cached rankings a running API might still serve
		if addr := cfg.Redis.Addr(); addr != "" {
			rc := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer func() { _ = rc.Close() }()
			rankings = cache.NewRankingCache(rc, cfg.Cache.Prefix, cfg.Cache.TTL)
		}
	}

	n, m, err := seed(ctx, service.NewService(repo, rankings), samples())
	if err != nil {
		logger.Fatalf("seed failed after %d restaurants: %v", n, err)
	}
	logger.Infof("seeded %d restaurants with %d ratings", n, m)
}
