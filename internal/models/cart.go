package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartLine is one entry in an in-progress cart. Key is the deterministic
// identity of the selection (product + modifiers + tier); two adds with
// the same key merge into one line. RecipeSelection deliberately stays
// out of the key: re-adding the same container replaces the flavor split
// on the merged line instead of opening a second line.
type CartLine struct {
	Key               string             `json:"key"`
	ProductID         primitive.ObjectID `json:"productId"`
	Quantity          int                `json:"quantity"`
	SelectedModifiers map[string]string  `json:"selectedModifiers,omitempty"`
	SelectedTier      string             `json:"selectedTier,omitempty"`
	// RecipeSelection is the chosen flavor split for a container
	// product: constituent hex id -> count per container unit.
	RecipeSelection map[string]int `json:"recipeSelection,omitempty"`
}
