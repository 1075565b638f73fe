package application

import (
	"strings"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

type catalogEntry struct {
	Name     string
	Category entity.SwapCategory
	EcoScore int
	Keywords []string
	Swap     ProductSwap
}

// catalog answers common queries without a model call.
var catalog = []catalogEntry{
	{
		Name: "Plastic Water Bottle", Category: entity.CategoryHydration, EcoScore: 10,
		Keywords: []string{"plastic", "disposable", "water bottle"},
		Swap: ProductSwap{Name: "Stainless Steel Bottle", EcoScore: 95, Description: "Lasts a lifetime, keeps water cold.",
			Image: "https://images.unsplash.com/photo-1602143407151-11115cdbf69c?w=400", SearchQuery: "stainless steel water bottle"},
	},
	{
		Name: "Head & Shoulders Shampoo", Category: entity.CategoryPersonalCare, EcoScore: 30,
		Keywords: []string{"shampoo", "plastic bottle", "head & shoulders"},
		Swap: ProductSwap{Name: "Ethique Shampoo Bar", EcoScore: 98, Description: "Plastic-free, concentrated, lasts longer.",
			Image: "https://plus.unsplash.com/premium_photo-1675806655187-d46ae3722c83?w=400", SearchQuery: "shampoo bar plastic free"},
	},
	{
		Name: "Plastic Toothbrush", Category: entity.CategoryPersonalCare, EcoScore: 20,
		Keywords: []string{"toothbrush", "plastic brush", "oral care"},
		Swap: ProductSwap{Name: "Bamboo Toothbrush", EcoScore: 99, Description: "Biodegradable handle, natural bristles.",
			Image: "https://images.unsplash.com/photo-1607613009820-a29f7bb6dcaf?w=400", SearchQuery: "bamboo toothbrush"},
	},
	{
		Name: "Plastic Straws", Category: entity.CategoryKitchen, EcoScore: 5,
		Keywords: []string{"straw", "plastic straw", "drinking straw"},
		Swap: ProductSwap{Name: "Stainless Steel Straws", EcoScore: 95, Description: "Reusable, easy to clean, ocean-friendly.",
			Image: "https://images.unsplash.com/photo-1541108564883-b68486299580?w=400", SearchQuery: "stainless steel straws"},
	},
	{
		Name: "Plastic Grocery Bag", Category: entity.CategoryShopping, EcoScore: 10,
		Keywords: []string{"shopping bag", "plastic bag", "carrier bag", "bag"},
		Swap: ProductSwap{Name: "Organic Cotton Tote", EcoScore: 92, Description: "Durable, washable, replaces 1000+ bags.",
			Image: "https://images.unsplash.com/photo-1597484661643-2f5fef640dd1?w=400", SearchQuery: "organic cotton tote bag"},
	},
	{
		Name: "Plastic Cutlery", Category: entity.CategoryKitchen, EcoScore: 15,
		Keywords: []string{"plastic cutlery", "disposable cutlery", "fork", "spoon", "knife"},
		Swap: ProductSwap{Name: "Bamboo Travel Cutlery", EcoScore: 97, Description: "Lightweight, sustainable, perfect for travel.",
			Image: "https://images.unsplash.com/photo-1584346133934-a3afd2a8d6f1?w=400", SearchQuery: "bamboo travel cutlery set"},
	},
}

// lookupCatalog returns the first entry with a keyword contained in query.
// Specific entries come before the generic "plastic" one.
func lookupCatalog(query string) (*catalogEntry, bool) {
	var generic *catalogEntry
	for i := range catalog {
		e := &catalog[i]
		for _, k := range e.Keywords {
			if !strings.Contains(query, k) {
				continue
			}
			if k == "plastic" || k == "disposable" {
				if generic == nil {
					generic = e
				}
				continue
			}
			return e, true
		}
	}
	return generic, generic != nil
}
