package entity

import "time"

// SwapCategory is the closed set of product categories for swaps.
type SwapCategory string

const (
	CategoryHydration    SwapCategory = "Hydration"
	CategoryPersonalCare SwapCategory = "Personal Care"
	CategoryKitchen      SwapCategory = "Kitchen"
	CategoryShopping     SwapCategory = "Shopping"
	CategoryOther        SwapCategory = "Other"
)

// SwapCategories lists every accepted category.
var SwapCategories = []SwapCategory{
	CategoryHydration, CategoryPersonalCare, CategoryKitchen, CategoryShopping, CategoryOther,
}

// IsValid reports whether c is one of SwapCategories.
func (c SwapCategory) IsValid() bool {
	for _, known := range SwapCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Swap records replacing a product with a more sustainable one.
type Swap struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	Original       string       `json:"original"`
	Replacement    string       `json:"swap"`
	Category       SwapCategory `json:"category"`
	EcoScoreBefore int          `json:"ecoScoreBefore"`
	EcoScoreAfter  int          `json:"ecoScoreAfter"`
	XP             int          `json:"xp"`
	CO2Saved       float64      `json:"co2Saved"`     // kg
	PlasticSaved   float64      `json:"plasticSaved"` // grams
	CreatedAt      time.Time    `json:"createdAt"`
}
