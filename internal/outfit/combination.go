package outfit

import "github.com/capsule-closet/capsule-be/internal/models"

// Combination is one candidate outfit addressed by slot. Either Dress is set
// (dress + shoes) or Top and Bottom are set (top + bottom + shoes).
type Combination struct {
	Top    *models.ClothingItem
	Bottom *models.ClothingItem
	Shoes  *models.ClothingItem
	Dress  *models.ClothingItem
}

// Items returns the garments in canonical order: dress, shoes or
// top, bottom, shoes.
func (c Combination) Items() []models.ClothingItem {
	var out []models.ClothingItem
	for _, it := range []*models.ClothingItem{c.Dress, c.Top, c.Bottom, c.Shoes} {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out
}

// Combinations enumerates every top×bottom×shoes and dress×shoes outfit in
// inventory order. Accessories never take part.
func Combinations(inventory []models.ClothingItem) []Combination {
	var tops, bottoms, shoes, dresses []*models.ClothingItem
	for i := range inventory {
		it := &inventory[i]
		switch it.Category {
		case models.CategoryTop:
			tops = append(tops, it)
		case models.CategoryDress:
			dresses = append(dresses, it)
		case models.CategoryBottom:
			bottoms = append(bottoms, it)
		case models.CategoryShoes:
			shoes = append(shoes, it)
		case models.CategoryAccessory:
		}
	}

	out := make([]Combination, 0, len(tops)*len(bottoms)*len(shoes)+len(dresses)*len(shoes))
	for _, top := range tops {
		for _, bottom := range bottoms {
			for _, shoe := range shoes {
				out = append(out, Combination{Top: top, Bottom: bottom, Shoes: shoe})
			}
		}
	}
	for _, dress := range dresses {
		for _, shoe := range shoes {
			out = append(out, Combination{Dress: dress, Shoes: shoe})
		}
	}
	return out
}
