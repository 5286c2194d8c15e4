// Package menu holds the structured entities extracted from restaurant menus.
package menu

// Cuisine is the restaurant typology.
type Cuisine string

// Known cuisine types.
const (
	Italiana    Cuisine = "Italiana"
	Asiatica    Cuisine = "Asiatica"
	India       Cuisine = "India"
	Casera      Cuisine = "Casera"
	Tradicional Cuisine = "Tradicional"
)

// Cuisines lists every valid cuisine in a stable order.
func Cuisines() []Cuisine {
	return []Cuisine{Italiana, Asiatica, India, Casera, Tradicional}
}

// IsValid checks if the cuisine is one of the known values.
func (c Cuisine) IsValid() bool {
	switch c {
	case Italiana, Asiatica, India, Casera, Tradicional:
		return true
	default:
		return false
	}
}

// Default values used when nothing can be extracted.
const (
	DefaultRestaurant = "Desconocido"
	DefaultLocation   = "Desconocida"
	DefaultCuisine    = Tradicional
	DefaultMenuType   = "sin restricciones"
)

// Dish is a menu item with its score.
type Dish struct {
	Name  string  `json:"nombre"`
	Score float64 `json:"puntuacion"`
}

// Entities are the fields extracted from one menu text. JSON names match the search index.
type Entities struct {
	Restaurant string  `json:"restaurante"`
	Dishes     []Dish  `json:"platos"`
	Location   string  `json:"ubicacion"`
	Cuisine    Cuisine `json:"tipologia"`
	MenuType   string  `json:"tipo_menu"`
	Price      float64 `json:"precio"`
	Rating     float64 `json:"puntuacion"`
}

// DefaultEntities returns the placeholder entities for empty text or failed extraction.
func DefaultEntities() Entities {
	return Entities{
		Restaurant: DefaultRestaurant,
		Dishes:     []Dish{},
		Location:   DefaultLocation,
		Cuisine:    DefaultCuisine,
		MenuType:   DefaultMenuType,
	}
}

// Normalize replaces values the index cannot accept: unknown cuisines and nil dish lists.
func (e Entities) Normalize() Entities {
	if !e.Cuisine.IsValid() {
		e.Cuisine = DefaultCuisine
	}
	if e.Dishes == nil {
		e.Dishes = []Dish{}
	}
	return e
}
