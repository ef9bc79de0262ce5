package restaurant

import (
	"errors"
	"fmt"
)

// Cuisine classifies a restaurant. It is stored and transported as its
// integer code; the zero value is not a valid cuisine.
type Cuisine int

const (
	Brazilian Cuisine = iota + 1
	Italian
	Arab
	Japanese
	FastFood
)

var cuisineNames = map[Cuisine]string{
	Brazilian: "brazilian",
	Italian:   "italian",
	Arab:      "arab",
	Japanese:  "japanese",
	FastFood:  "fast-food",
}

// ErrInvalidCuisineCode is matched by every *InvalidCuisineCodeError.
var ErrInvalidCuisineCode = errors.New("invalid cuisine code")

// InvalidCuisineCodeError reports an integer that does not map to a Cuisine.
type InvalidCuisineCodeError struct {
	Code int
}

func (e *InvalidCuisineCodeError) Error() string {
	return fmt.Sprintf("invalid cuisine code: %d", e.Code)
}

func (e *InvalidCuisineCodeError) Is(target error) bool {
	return target == ErrInvalidCuisineCode
}

// CuisineFromCode decodes a stored or transported cuisine code.
func CuisineFromCode(code int) (Cuisine, error) {
	c := Cuisine(code)
	if _, ok := cuisineNames[c]; !ok {
		return 0, &InvalidCuisineCodeError{Code: code}
	}
	return c, nil
}

// Cuisines lists every valid cuisine in code order.
func Cuisines() []Cuisine {
	return []Cuisine{Brazilian, Italian, Arab, Japanese, FastFood}
}

func (c Cuisine) Code() int { return int(c) }

func (c Cuisine) Valid() bool {
	_, ok := cuisineNames[c]
	return ok
}

func (c Cuisine) String() string {
	if n, ok := cuisineNames[c]; ok {
		return n
	}
	return fmt.Sprintf("cuisine(%d)", int(c))
}
