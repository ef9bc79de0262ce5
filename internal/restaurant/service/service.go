package service

import (
	"context"
	"errors"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/cache"
	"github.com/restocatalog/go-services/internal/restaurant/repository"
	"github.com/restocatalog/go-services/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNotModified is returned when a write reached the store for an
	// existing restaurant but changed nothing.
	ErrNotModified = errors.New("no document was modified")
)

// AddressInput carries raw address fields from the transport layer.
type AddressInput struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	City       string `json:"city"`
	RegionCode string `json:"regionCode"`
	PostalCode string `json:"postalCode"`
}

type CreateInput struct {
	Name    string       `json:"name"`
	Cuisine int          `json:"cuisine"`
	Address AddressInput `json:"address"`
}

type ReplaceInput struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Cuisine int          `json:"cuisine"`
	Address AddressInput `json:"address"`
}

type RateInput struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// DeleteResult counts what a cascade delete removed.
type DeleteResult struct {
	Restaurants int64 `json:"restaurants"`
	Ratings     int64 `json:"ratings"`
}

// Service implements the catalog use cases on top of a Repository and an
// optional ranking cache.
type Service struct {
	repo  repository.Repository
	cache *cache.RankingCache
}

func NewService(repo repository.Repository, c *cache.RankingCache) *Service {
	return &Service{repo: repo, cache: c}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return NewService(repository.NewMemoryRepo(), nil)
}

func (a AddressInput) toAddress() restaurant.Address {
	return restaurant.NewAddress(a.Street, a.Number, a.City, a.RegionCode, a.PostalCode)
}

// build assembles an entity from raw input. An unknown cuisine code is
// reported as a violation next to the other field rules.
func build(id, name string, code int, addr AddressInput) (*restaurant.Restaurant, error) {
	c := restaurant.Cuisine(code)
	var r *restaurant.Restaurant
	if id == "" {
		r = restaurant.New(name, c)
	} else {
		r = restaurant.Rehydrate(id, name, c)
	}
	r.AssignAddress(addr.toAddress())
	if v, ok := r.Validate(); !ok {
		return nil, &restaurant.ValidationError{Violations: v}
	}
	return r, nil
}

// Create validates and inserts a new restaurant and returns its id.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	r, err := build("", in.Name, in.Cuisine, in.Address)
	if err != nil {
		return "", err
	}
	id, err := s.repo.Insert(ctx, r)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx)
	logger.FromContext(ctx).Info("restaurant created", zap.String("id", id), zap.String("name", r.Name()))
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]*restaurant.Restaurant, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// Replace overwrites every field of an existing restaurant.
func (s *Service) Replace(ctx context.Context, in ReplaceInput) error {
	if _, err := s.Get(ctx, in.ID); err != nil {
		return err
	}
	r, err := build(in.ID, in.Name, in.Cuisine, in.Address)
	if err != nil {
		return err
	}
	modified, err := s.repo.ReplaceAll(ctx, r)
	if err != nil {
		return err
	}
	if !modified {
		return ErrNotModified
	}
	s.invalidate(ctx)
	return nil
}

// PatchCuisine changes only the cuisine of an existing restaurant.
func (s *Service) PatchCuisine(ctx context.Context, id string, code int) (*restaurant.Restaurant, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := restaurant.CuisineFromCode(code)
	if err != nil {
		return nil, &restaurant.ValidationError{Violations: restaurant.Violations{
			{Field: "cuisine", Message: "cuisine must be a known cuisine"},
		}}
	}
	modified, err := s.repo.UpdateCuisineOnly(ctx, id, c)
	if err != nil {
		return nil, err
	}
	if !modified {
		return nil, ErrNotModified
	}
	s.invalidate(ctx)
	return current.WithCuisine(c), nil
}

func (s *Service) SearchByName(ctx context.Context, fragment string) ([]*restaurant.Restaurant, error) {
	return s.repo.FindByNameContains(ctx, fragment)
}

func (s *Service) SearchText(ctx context.Context, text string) ([]*restaurant.Restaurant, error) {
	return s.repo.FindByFreeText(ctx, text)
}

// Rate adds a rating to an existing restaurant.
func (s *Service) Rate(ctx context.Context, id string, in RateInput) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	rt := restaurant.NewRating(in.Stars, in.Comment)
	if v, ok := rt.Validate(); !ok {
		return &restaurant.ValidationError{Violations: v}
	}
	if err := s.repo.Rate(ctx, id, rt); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a restaurant and its ratings. A partial cascade returns the
// counts reached together with the error.
func (s *Service) Delete(ctx context.Context, id string) (DeleteResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	restaurants, ratings, err := s.repo.Delete(ctx, id)
	s.invalidate(ctx)
	res := DeleteResult{Restaurants: restaurants, Ratings: ratings}
	if err != nil {
		return res, err
	}
	logger.FromContext(ctx).Info("restaurant deleted",
		zap.String("id", id), zap.Int64("restaurants", restaurants), zap.Int64("ratings", ratings))
	return res, nil
}

func (s *Service) Top3(ctx context.Context) ([]restaurant.RankedRestaurant, error) {
	return s.ranking(ctx, cache.Top3, s.repo.Top3)
}

func (s *Service) Top3WithJoin(ctx context.Context) ([]restaurant.RankedRestaurant, error) {
	return s.ranking(ctx, cache.Top3Lookup, s.repo.Top3WithJoin)
}

func (s *Service) ranking(ctx context.Context, v cache.Variant, load func(context.Context) ([]restaurant.RankedRestaurant, error)) ([]restaurant.RankedRestaurant, error) {
	if cached, ok, err := s.cache.Get(ctx, v); err != nil {
		logger.FromContext(ctx).Warn("ranking cache read failed", zap.String("variant", string(v)), zap.Error(err))
	} else if ok {
		return cached, nil
	}
	// a write landing during the load bumps the generation and the result is not cached
	gen, genErr := s.cache.Generation(ctx)
	ranked, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		logger.FromContext(ctx).Warn("ranking cache read failed", zap.String("variant", string(v)), zap.Error(genErr))
		return ranked, nil
	}
	if _, err := s.cache.Set(ctx, v, ranked, gen); err != nil {
		logger.FromContext(ctx).Warn("ranking cache write failed", zap.String("variant", string(v)), zap.Error(err))
	}
	return ranked, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("ranking cache invalidation failed", zap.Error(err))
	}
}
