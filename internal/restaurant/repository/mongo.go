package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/schema"
	"github.com/restocatalog/go-services/pkg/logger"
	"github.com/restocatalog/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoRepo implements Repository on two collections: restaurants, and
// ratings that reference a restaurant through "restaurantId".
// Indexes (including the text index FindByFreeText needs) are created by
// database.EnsureIndexes.
type MongoRepo struct {
	restaurants *mongo.Collection
	ratings     *mongo.Collection
}

func NewMongoRepo(restaurants, ratings *mongo.Collection) *MongoRepo {
	return &MongoRepo{restaurants: restaurants, ratings: ratings}
}

func (m *MongoRepo) Insert(ctx context.Context, r *restaurant.Restaurant) (id string, err error) {
	defer metrics.ObserveStore("insert", time.Now(), &err)
	doc, err := schema.FromRestaurant(r)
	if err != nil {
		return "", err
	}
	doc.ID = primitive.NilObjectID
	res, err := m.restaurants.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert restaurant: %w", err)
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return schema.FormatID(oid), nil
}

func (m *MongoRepo) FindAll(ctx context.Context) (out []*restaurant.Restaurant, err error) {
	defer metrics.ObserveStore("find_all", time.Now(), &err)
	return m.findRestaurants(ctx, bson.M{})
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (r *restaurant.Restaurant, err error) {
	defer metrics.ObserveStore("find_by_id", time.Now(), &err)
	oid, perr := schema.ParseID(id)
	if perr != nil {
		return nil, nil
	}
	var doc schema.RestaurantDocument
	if err := m.restaurants.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find restaurant %s: %w", id, err)
	}
	return schema.ToRestaurant(doc)
}

func (m *MongoRepo) ReplaceAll(ctx context.Context, r *restaurant.Restaurant) (modified bool, err error) {
	defer metrics.ObserveStore("replace", time.Now(), &err)
	if r.IsNew() {
		return false, restaurant.ErrInvalidID
	}
	doc, err := schema.FromRestaurant(r)
	if err != nil {
		return false, err
	}
	res, err := m.restaurants.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return false, fmt.Errorf("replace restaurant %s: %w", r.ID(), err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *MongoRepo) UpdateCuisineOnly(ctx context.Context, id string, c restaurant.Cuisine) (modified bool, err error) {
	defer metrics.ObserveStore("update_cuisine", time.Now(), &err)
	oid, perr := schema.ParseID(id)
	if perr != nil {
		return false, nil
	}
	res, err := m.restaurants.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"cuisine": c.Code()}})
	if err != nil {
		return false, fmt.Errorf("update cuisine %s: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *MongoRepo) FindByNameContains(ctx context.Context, fragment string) (out []*restaurant.Restaurant, err error) {
	defer metrics.ObserveStore("find_by_name", time.Now(), &err)
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(fragment), Options: "i"}}
	return m.findRestaurants(ctx, filter)
}

func (m *MongoRepo) FindByFreeText(ctx context.Context, text string) (out []*restaurant.Restaurant, err error) {
	defer metrics.ObserveStore("find_by_text", time.Now(), &err)
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}})
	return m.findRestaurants(ctx, bson.M{"$text": bson.M{"$search": text}}, opts)
}

func (m *MongoRepo) findRestaurants(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*restaurant.Restaurant, error) {
	cur, err := m.restaurants.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find restaurants: %w", err)
	}
	defer cur.Close(ctx)
	docs := []schema.RestaurantDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode restaurants: %w", err)
	}
	return decodeRestaurants(ctx, docs)
}

func (m *MongoRepo) Rate(ctx context.Context, restaurantID string, rt restaurant.Rating) (err error) {
	defer metrics.ObserveStore("rate", time.Now(), &err)
	oid, err := schema.ParseID(restaurantID)
	if err != nil {
		return err
	}
	if _, err := m.ratings.InsertOne(ctx, schema.FromRating(oid, rt)); err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) (restaurants, ratings int64, err error) {
	defer metrics.ObserveStore("delete", time.Now(), &err)
	oid, perr := schema.ParseID(id)
	if perr != nil {
		return 0, 0, nil
	}
	res, err := m.restaurants.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, 0, fmt.Errorf("delete restaurant %s: %w", id, err)
	}
	restaurants = res.DeletedCount
	metrics.CascadeDeletes.WithLabelValues("restaurants").Add(float64(restaurants))

	rres, err := m.ratings.DeleteMany(ctx, bson.M{"restaurantId": oid})
	if err != nil {
		logger.FromContext(ctx).Error("cascade delete of ratings failed",
			zap.String("restaurant_id", id), zap.Int64("restaurants_deleted", restaurants), zap.Error(err))
		return restaurants, 0, fmt.Errorf("delete ratings of %s: %w", id, err)
	}
	ratings = rres.DeletedCount
	metrics.CascadeDeletes.WithLabelValues("ratings").Add(float64(ratings))
	return restaurants, ratings, nil
}

// Top3Pipeline groups ratings by restaurant, averages the stars and keeps
// the best three. Equal averages are ordered by restaurant id.
func Top3Pipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$restaurantId"},
			{Key: "averageStars", Value: bson.D{{Key: "$avg", Value: "$stars"}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "averageStars", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: TopN}},
	}
}

// Top3LookupPipeline is Top3Pipeline followed by the joins that embed the
// restaurant document and its ratings into each ranking row.
func Top3LookupPipeline(restaurantsCollection, ratingsCollection string) mongo.Pipeline {
	return append(Top3Pipeline(),
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: restaurantsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "restaurant"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ratingsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "restaurantId"},
			{Key: "as", Value: "ratings"},
		}}},
	)
}

func (m *MongoRepo) Top3(ctx context.Context) (out []restaurant.RankedRestaurant, err error) {
	defer metrics.ObserveStore("top3", time.Now(), &err)
	rows, err := m.aggregate(ctx, Top3Pipeline())
	if err != nil {
		return nil, err
	}
	out = make([]restaurant.RankedRestaurant, 0, len(rows))
	for _, row := range rows {
		id := schema.FormatID(row.ID)
		r, err := m.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, restaurant.ErrInvalidCuisineCode) {
				skipUndecodable(ctx, "restaurants", id, err)
				continue
			}
			return nil, err
		}
		if r == nil {
			// ratings left behind by a restaurant that no longer exists
			continue
		}
		ratings, err := m.ratingsOf(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		for _, rt := range ratings {
			r.AppendRating(rt)
		}
		out = append(out, restaurant.RankedRestaurant{Restaurant: r, AverageStars: row.AverageStars})
	}
	return out, nil
}

func (m *MongoRepo) Top3WithJoin(ctx context.Context) (out []restaurant.RankedRestaurant, err error) {
	defer metrics.ObserveStore("top3_lookup", time.Now(), &err)
	rows, err := m.aggregate(ctx, Top3LookupPipeline(m.restaurants.Name(), m.ratings.Name()))
	if err != nil {
		return nil, err
	}
	return rankedFromRows(ctx, rows), nil
}

func (m *MongoRepo) aggregate(ctx context.Context, p mongo.Pipeline) ([]schema.RankingDocument, error) {
	cur, err := m.ratings.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}
	defer cur.Close(ctx)
	rows := []schema.RankingDocument{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode ranking: %w", err)
	}
	return rows, nil
}

func (m *MongoRepo) ratingsOf(ctx context.Context, oid primitive.ObjectID) ([]restaurant.Rating, error) {
	cur, err := m.ratings.Find(ctx, bson.M{"restaurantId": oid})
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}
	defer cur.Close(ctx)
	docs := []schema.RatingDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	out := make([]restaurant.Rating, 0, len(docs))
	for _, d := range docs {
		out = append(out, schema.ToRating(d))
	}
	return out, nil
}

// rankedFromRows maps joined ranking rows, dropping orphaned and
// undecodable rows.
func rankedFromRows(ctx context.Context, rows []schema.RankingDocument) []restaurant.RankedRestaurant {
	out := make([]restaurant.RankedRestaurant, 0, len(rows))
	for _, row := range rows {
		rr, ok, err := schema.ToRanked(row)
		if err != nil {
			skipUndecodable(ctx, "restaurants", schema.FormatID(row.ID), err)
			continue
		}
		if ok {
			out = append(out, rr)
		}
	}
	return out
}
