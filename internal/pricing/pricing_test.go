package pricing

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func sampleProduct() models.Product {
	return models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Garlic Longganisa",
		BasePrice: 150,
		Stock:     10,
		ModifierGroups: []models.ModifierGroup{
			{
				ID:   "sauce",
				Name: "Sauce",
				Options: []models.ModifierOption{
					{ID: "plain", Name: "Plain", PriceDelta: 25, IsFree: true},
					{ID: "spicy", Name: "Spicy", PriceDelta: 20},
				},
			},
		},
	}
}

func TestUnitPriceFreeOptionContributesZero(t *testing.T) {
	p := sampleProduct()

	// "plain" carries a stored delta of 25 but is flagged free.
	got, err := UnitPrice(p, map[string]string{"sauce": "plain"}, "")
	if err != nil {
		t.Fatalf("UnitPrice returned error: %v", err)
	}
	if got != 150 {
		t.Fatalf("expected free option to contribute 0, got unit price %d", got)
	}
}

func TestUnitPriceAddsPaidModifierDelta(t *testing.T) {
	p := sampleProduct()

	got, err := UnitPrice(p, map[string]string{"sauce": "spicy"}, "")
	if err != nil {
		t.Fatalf("UnitPrice returned error: %v", err)
	}
	if got != 170 {
		t.Fatalf("expected 150+20=170, got %d", got)
	}
}

func TestUnitPriceUnknownOptionFails(t *testing.T) {
	p := sampleProduct()

	_, err := UnitPrice(p, map[string]string{"sauce": "bbq"}, "")
	var selErr UnrecognizedSelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected UnrecognizedSelectionError, got %v", err)
	}
	if selErr.Group != "sauce" || selErr.Selection != "bbq" {
		t.Fatalf("error should name the stale selection, got %+v", selErr)
	}
}

func TestUnitPriceUnknownGroupFails(t *testing.T) {
	p := sampleProduct()

	_, err := UnitPrice(p, map[string]string{"size": "large"}, "")
	var selErr UnrecognizedSelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected UnrecognizedSelectionError, got %v", err)
	}
}

func TestUnitPriceTierReplacesBasePrice(t *testing.T) {
	p := models.Product{
		Name:      "Pandesal",
		BasePrice: 12,
		TierPricing: map[string]models.PriceTier{
			"unit":  {Price: 12, Units: 1},
			"dozen": {Price: 120, Units: 12},
		},
	}

	got, err := UnitPrice(p, nil, "dozen")
	if err != nil {
		t.Fatalf("UnitPrice returned error: %v", err)
	}
	if got != 120 {
		t.Fatalf("expected tier price 120, got %d", got)
	}
}

func TestUnitPriceTierRequiredWhenDeclared(t *testing.T) {
	p := models.Product{
		Name:      "Pandesal",
		BasePrice: 12,
		TierPricing: map[string]models.PriceTier{
			"unit": {Price: 12},
		},
	}

	tests := []string{"", "half-dozen"}
	for _, tier := range tests {
		_, err := UnitPrice(p, nil, tier)
		var selErr UnrecognizedSelectionError
		if !errors.As(err, &selErr) {
			t.Fatalf("expected UnrecognizedSelectionError for tier %q, got %v", tier, err)
		}
	}
}

func TestUnitPriceTierOnUntieredProductFails(t *testing.T) {
	p := models.Product{Name: "Tocino", BasePrice: 100}

	_, err := UnitPrice(p, nil, "dozen")
	var selErr UnrecognizedSelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected UnrecognizedSelectionError, got %v", err)
	}
}

func TestLineTotalIsUnitPriceTimesQuantity(t *testing.T) {
	p := sampleProduct()
	line := models.CartLine{
		ProductID:         p.ID,
		Quantity:          3,
		SelectedModifiers: map[string]string{"sauce": "spicy"},
	}

	got, err := LineTotal(p, line)
	if err != nil {
		t.Fatalf("LineTotal returned error: %v", err)
	}
	if got != 170*3 {
		t.Fatalf("expected unit price 170 times quantity 3 = 510, got %d", got)
	}
}

func TestOrderTotalSumsLines(t *testing.T) {
	a := sampleProduct()
	b := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Pandesal",
		BasePrice: 12,
		TierPricing: map[string]models.PriceTier{
			"dozen": {Price: 120, Units: 12},
		},
	}

	products := map[primitive.ObjectID]models.Product{a.ID: a, b.ID: b}
	lines := []models.CartLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1, SelectedTier: "dozen"},
	}

	got, err := OrderTotal(products, lines)
	if err != nil {
		t.Fatalf("OrderTotal returned error: %v", err)
	}
	if got != 150*2+120 {
		t.Fatalf("expected 420, got %d", got)
	}
}

func TestUnitPriceNeverNegative(t *testing.T) {
	p := models.Product{
		Name:      "Promo Item",
		BasePrice: 10,
		ModifierGroups: []models.ModifierGroup{
			{ID: "deal", Name: "Deal", Options: []models.ModifierOption{
				{ID: "discount", Name: "Discount", PriceDelta: -50},
			}},
		},
	}

	got, err := UnitPrice(p, map[string]string{"deal": "discount"}, "")
	if err != nil {
		t.Fatalf("UnitPrice returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}
