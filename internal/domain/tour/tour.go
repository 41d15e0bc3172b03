package tour

import (
	"regexp"
	"strings"
	"time"
)

// Difficulty of a tour
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Tour represents a bookable tour
type Tour struct {
	ID              string      `json:"id" bson:"_id"`
	Name            string      `json:"name" bson:"name"`
	Slug            string      `json:"slug" bson:"slug"`
	Duration        int         `json:"duration" bson:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize" bson:"maxGroupSize"`
	Difficulty      Difficulty  `json:"difficulty" bson:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64     `json:"price" bson:"price"`
	PriceDiscount   float64     `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty"`
	Summary         string      `json:"summary" bson:"summary"`
	Description     string      `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string      `json:"imageCover" bson:"imageCover"`
	Images          []string    `json:"images" bson:"images"`
	StartDates      []time.Time `json:"startDates" bson:"startDates"`
	Guides          []string    `json:"guides" bson:"guides"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// FinalPrice is the price a customer pays after the discount
func (t *Tour) FinalPrice() float64 {
	if t.PriceDiscount > 0 && t.PriceDiscount < t.Price {
		return t.Price - t.PriceDiscount
	}
	return t.Price
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a tour name into a URL slug
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// TourCreateRequest represents a request to create a tour
type TourCreateRequest struct {
	Name          string      `json:"name" binding:"required,min=10,max=40"`
	Duration      int         `json:"duration" binding:"required,gt=0"`
	MaxGroupSize  int         `json:"maxGroupSize" binding:"required,gt=0"`
	Difficulty    Difficulty  `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" binding:"required,gt=0"`
	PriceDiscount float64     `json:"priceDiscount" binding:"omitempty,gte=0,ltfield=Price"`
	Summary       string      `json:"summary" binding:"required"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"imageCover"`
	StartDates    []time.Time `json:"startDates"`
	Guides        []string    `json:"guides" binding:"omitempty,dive,uuid"`
}

// TourUpdateRequest represents a partial tour update
type TourUpdateRequest struct {
	Name          *string     `json:"name,omitempty" binding:"omitempty,min=10,max=40"`
	Duration      *int        `json:"duration,omitempty" binding:"omitempty,gt=0"`
	MaxGroupSize  *int        `json:"maxGroupSize,omitempty" binding:"omitempty,gt=0"`
	Difficulty    *Difficulty `json:"difficulty,omitempty" binding:"omitempty,oneof=easy medium difficult"`
	Price         *float64    `json:"price,omitempty" binding:"omitempty,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount,omitempty" binding:"omitempty,gte=0"`
	Summary       *string     `json:"summary,omitempty"`
	Description   *string     `json:"description,omitempty"`
	StartDates    []time.Time `json:"startDates,omitempty"`
	Guides        []string    `json:"guides,omitempty" binding:"omitempty,dive,uuid"`
}
