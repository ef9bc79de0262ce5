package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/service"
	"github.com/restocatalog/go-services/pkg/logger"
	"go.uber.org/zap"
)

type addressView struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	City       string `json:"city"`
	RegionCode string `json:"regionCode"`
	PostalCode string `json:"postalCode"`
}

type listItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cuisine int    `json:"cuisine"`
	City    string `json:"city"`
}

type detail struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Cuisine int         `json:"cuisine"`
	Address addressView `json:"address"`
}

type rankedItem struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Cuisine int     `json:"cuisine"`
	City    string  `json:"city"`
	Stars   float64 `json:"stars"`
}

func toListItems(rs []*restaurant.Restaurant) []listItem {
	out := make([]listItem, 0, len(rs))
	for _, r := range rs {
		out = append(out, listItem{ID: r.ID(), Name: r.Name(), Cuisine: r.Cuisine().Code(), City: r.Address().City()})
	}
	return out
}

func toDetail(r *restaurant.Restaurant) detail {
	a := r.Address()
	return detail{
		ID:      r.ID(),
		Name:    r.Name(),
		Cuisine: r.Cuisine().Code(),
		Address: addressView{
			Street:     a.Street(),
			Number:     a.Number(),
			City:       a.City(),
			RegionCode: a.RegionCode(),
			PostalCode: a.PostalCode(),
		},
	}
}

func toRanked(rs []restaurant.RankedRestaurant) []rankedItem {
	out := make([]rankedItem, 0, len(rs))
	for _, rr := range rs {
		r := rr.Restaurant
		out = append(out, rankedItem{
			ID:      r.ID(),
			Name:    r.Name(),
			Cuisine: r.Cuisine().Code(),
			City:    r.Address().City(),
			Stars:   rr.AverageStars,
		})
	}
	return out
}

// writeError maps service and domain errors to status codes.
func writeError(c *gin.Context, err error) {
	var verr *restaurant.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Violations.Messages()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, restaurant.ErrInvalidID):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrNotModified):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNotModified.Error()})
	case errors.Is(err, restaurant.ErrInvalidCuisineCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("restaurant request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// RegisterRestaurantRoutes mounts the catalog endpoints on r.
func RegisterRestaurantRoutes(r gin.IRouter, svc *service.Service) {
	r.POST("/restaurants", func(c *gin.Context) {
		var req service.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
	})

	r.GET("/restaurants", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toListItems(list)})
	})

	r.GET("/restaurants/:id", func(c *gin.Context) {
		rest, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toDetail(rest)})
	})

	r.PUT("/restaurants", func(c *gin.Context) {
		var req service.ReplaceInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.Replace(c.Request.Context(), req); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": "restaurant updated"})
	})

	r.PATCH("/restaurants/:id", func(c *gin.Context) {
		var req struct {
			Cuisine int `json:"cuisine"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rest, err := svc.PatchCuisine(c.Request.Context(), c.Param("id"), req.Cuisine)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toDetail(rest)})
	})

	r.GET("/restaurants/by-name/:name", func(c *gin.Context) {
		list, err := svc.SearchByName(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toListItems(list)})
	})

	r.GET("/restaurants/search", func(c *gin.Context) {
		text := c.Query("text")
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text query parameter is required"})
			return
		}
		list, err := svc.SearchText(c.Request.Context(), text)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toListItems(list)})
	})

	r.POST("/restaurants/:id/ratings", func(c *gin.Context) {
		var req service.RateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.Rate(c.Request.Context(), c.Param("id"), req); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": "restaurant rated"})
	})

	r.DELETE("/restaurants/:id", func(c *gin.Context) {
		res, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":    res,
			"message": fmt.Sprintf("deleted %d restaurant(s) with %d rating(s)", res.Restaurants, res.Ratings),
		})
	})

	r.GET("/top3", func(c *gin.Context) {
		ranked, err := svc.Top3(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toRanked(ranked)})
	})

	r.GET("/top3-lookup", func(c *gin.Context) {
		ranked, err := svc.Top3WithJoin(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": toRanked(ranked)})
	})
}
