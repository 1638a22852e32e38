package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModifierOption is one selectable option inside a modifier group.
// IsFree overrides PriceDelta: a free option contributes nothing to the
// line price even when a nonzero delta is stored on it.
type ModifierOption struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	PriceDelta int    `bson:"priceDelta" json:"priceDelta"`
	IsFree     bool   `bson:"isFree,omitempty" json:"isFree,omitempty"`
}

// ModifierGroup is a named group of options a customer picks from
// (e.g. "Sauce", "Size"). At most one option per group goes on a line.
type ModifierGroup struct {
	ID      string           `bson:"id" json:"id"`
	Name    string           `bson:"name" json:"name"`
	Options []ModifierOption `bson:"options" json:"options"`
}

// PriceTier is a fixed price keyed by a named quantity tier ("unit",
// "half-dozen", "dozen"). Units declares how many base stock units one
// line quantity of this tier consumes; 0 is read as 1 so products that
// track stock in packages need no extra configuration.
type PriceTier struct {
	Price int `bson:"price" json:"price"`
	Units int `bson:"units,omitempty" json:"units,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	BasePrice   int                `bson:"basePrice" json:"basePrice"`
	Category    StringList         `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	InStock     bool               `bson:"-" json:"inStock"`

	// Optional capability set; a product may carry any combination.
	ModifierGroups []ModifierGroup      `bson:"modifierGroups,omitempty" json:"modifierGroups,omitempty"`
	TierPricing    map[string]PriceTier `bson:"tierPricing,omitempty" json:"tierPricing,omitempty"`
	// Recipe marks a container product ("mixed dozen"): constituent
	// product hex id -> sub-units one container unit consumes.
	Recipe map[string]int `bson:"recipe,omitempty" json:"recipe,omitempty"`

	IsActive  bool       `bson:"isActive" json:"isActive"`
	IsDeleted bool       `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}

func (p Product) HasModifierGroups() bool { return len(p.ModifierGroups) > 0 }

func (p Product) HasTierPricing() bool { return len(p.TierPricing) > 0 }

func (p Product) HasRecipe() bool { return len(p.Recipe) > 0 }

// RecipeUnitsPerContainer is the total sub-units one container unit
// consumes, summed over the declared recipe. A customer's flavor split
// must add up to the same total.
func (p Product) RecipeUnitsPerContainer() int {
	total := 0
	for _, n := range p.Recipe {
		total += n
	}
	return total
}
