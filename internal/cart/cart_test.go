package cart

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func testProduct(stock int) models.Product {
	return models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Ensaymada",
		BasePrice: 65,
		Stock:     stock,
	}
}

func TestLineKeyIgnoresModifierMapOrder(t *testing.T) {
	id := primitive.NewObjectID()

	a := LineKey(id, map[string]string{"sauce": "spicy", "size": "large"}, "")
	b := LineKey(id, map[string]string{"size": "large", "sauce": "spicy"}, "")
	if a != b {
		t.Fatalf("same selection produced different keys: %s vs %s", a, b)
	}
}

func TestLineKeyDistinguishesSelections(t *testing.T) {
	id := primitive.NewObjectID()

	base := LineKey(id, nil, "")
	tests := map[string]string{
		"different option":  LineKey(id, map[string]string{"sauce": "spicy"}, ""),
		"different tier":    LineKey(id, nil, "dozen"),
		"different product": LineKey(primitive.NewObjectID(), nil, ""),
	}
	for name, key := range tests {
		if key == base {
			t.Fatalf("%s should produce a different key", name)
		}
	}
}

func TestAddLineMergesSameSelection(t *testing.T) {
	p := testProduct(10)

	lines, err := AddLine(nil, p, 2, nil, "", nil)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	lines, err = AddLine(lines, p, 3, nil, "", nil)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", lines[0].Quantity)
	}
}

func TestAddLineCapsAtKnownStock(t *testing.T) {
	p := testProduct(3)

	lines, err := AddLine(nil, p, 2, nil, "", nil)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	got, err := AddLine(lines, p, 2, nil, "", nil)
	var warning StockCeilingWarning
	if !errors.As(err, &warning) {
		t.Fatalf("expected StockCeilingWarning, got %v", err)
	}
	if warning.Stock != 3 {
		t.Fatalf("warning should carry known stock 3, got %d", warning.Stock)
	}
	if len(got) != 1 || got[0].Quantity != 2 {
		t.Fatal("snapshot must be returned unchanged on warning")
	}
}

func TestAddLineReplacesRecipeSelectionOnMerge(t *testing.T) {
	p := testProduct(5)
	p.Recipe = map[string]int{"x": 6, "y": 6}

	lines, _ := AddLine(nil, p, 1, nil, "", map[string]int{"x": 6, "y": 6})
	lines, err := AddLine(lines, p, 1, nil, "", map[string]int{"x": 12})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("different flavor splits must still merge, got %d lines", len(lines))
	}
	if lines[0].RecipeSelection["x"] != 12 || lines[0].RecipeSelection["y"] != 0 {
		t.Fatalf("expected recipe selection replaced, got %v", lines[0].RecipeSelection)
	}
}

func TestAddLineDoesNotMutateInput(t *testing.T) {
	p := testProduct(10)

	original, _ := AddLine(nil, p, 1, nil, "", nil)
	_, _ = AddLine(original, p, 1, nil, "", nil)

	if original[0].Quantity != 1 {
		t.Fatalf("input snapshot mutated: quantity %d", original[0].Quantity)
	}
}

func TestIncreaseAndDecreaseLine(t *testing.T) {
	p := testProduct(2)
	lines, _ := AddLine(nil, p, 1, nil, "", nil)
	key := lines[0].Key

	lines, err := IncreaseLine(lines, key, p.Stock)
	if err != nil {
		t.Fatalf("increase failed: %v", err)
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}

	_, err = IncreaseLine(lines, key, p.Stock)
	var warning StockCeilingWarning
	if !errors.As(err, &warning) {
		t.Fatalf("expected StockCeilingWarning at ceiling, got %v", err)
	}

	lines = DecreaseLine(lines, key)
	if lines[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", lines[0].Quantity)
	}

	lines = DecreaseLine(lines, key)
	if len(lines) != 0 {
		t.Fatal("decreasing below 1 must remove the line")
	}
}

func TestRemoveLineAndClear(t *testing.T) {
	a := testProduct(5)
	b := testProduct(5)

	lines, _ := AddLine(nil, a, 1, nil, "", nil)
	lines, _ = AddLine(lines, b, 1, nil, "", nil)

	lines = RemoveLine(lines, lines[0].Key)
	if len(lines) != 1 || lines[0].ProductID != b.ID {
		t.Fatal("expected only the second line to remain")
	}

	if got := Clear(); len(got) != 0 {
		t.Fatal("clear must produce an empty snapshot")
	}
}
