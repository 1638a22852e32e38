package inventory

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// applyToSnapshot mirrors what the transactional apply does to live
// stock, refusing to go below zero. Used to check plans end to end.
func applyToSnapshot(t *testing.T, products map[primitive.ObjectID]models.Product, adjustments []Adjustment) map[primitive.ObjectID]int {
	t.Helper()

	stocks := map[primitive.ObjectID]int{}
	for id, p := range products {
		stocks[id] = p.Stock
	}
	for _, adj := range adjustments {
		stocks[adj.ProductID] -= adj.Units
		if stocks[adj.ProductID] < 0 {
			t.Fatalf("plan drove %s below zero", adj.Product)
		}
	}
	return stocks
}

func snapshot(products ...models.Product) map[primitive.ObjectID]models.Product {
	m := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestPlanSimpleLine(t *testing.T) {
	p := models.Product{ID: primitive.NewObjectID(), Name: "Tocino", BasePrice: 100, Stock: 5}
	products := snapshot(p)

	adjustments, err := Plan([]models.CartLine{{ProductID: p.ID, Quantity: 3}}, products)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	stocks := applyToSnapshot(t, products, adjustments)
	if stocks[p.ID] != 2 {
		t.Fatalf("expected remaining stock 2, got %d", stocks[p.ID])
	}
}

func TestPlanTierConsumesDeclaredUnits(t *testing.T) {
	p := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Pandesal",
		BasePrice: 12,
		Stock:     24,
		TierPricing: map[string]models.PriceTier{
			"dozen": {Price: 120, Units: 12},
		},
	}
	products := snapshot(p)

	adjustments, err := Plan([]models.CartLine{{ProductID: p.ID, Quantity: 2, SelectedTier: "dozen"}}, products)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(adjustments) != 1 || adjustments[0].Units != 24 {
		t.Fatalf("two dozen should consume 24 base units, got %+v", adjustments)
	}
}

func TestPlanTierWithoutDeclaredUnitsConsumesOne(t *testing.T) {
	p := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Boxed Polvoron",
		BasePrice: 90,
		Stock:     4,
		TierPricing: map[string]models.PriceTier{
			"box": {Price: 90},
		},
	}
	products := snapshot(p)

	adjustments, err := Plan([]models.CartLine{{ProductID: p.ID, Quantity: 3, SelectedTier: "box"}}, products)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if adjustments[0].Units != 3 {
		t.Fatalf("packaged stock should consume 1 unit per quantity, got %d", adjustments[0].Units)
	}
}

func TestPlanAggregatesDemandAcrossLines(t *testing.T) {
	p := models.Product{ID: primitive.NewObjectID(), Name: "Empanada", BasePrice: 45, Stock: 5}
	products := snapshot(p)

	lines := []models.CartLine{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 3},
	}

	_, err := Plan(lines, products)
	var stockErr StockInsufficientError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockInsufficientError for summed demand 6 > 5, got %v", err)
	}
	if stockErr.Required != 6 || stockErr.Available != 5 {
		t.Fatalf("error should report summed demand, got %+v", stockErr)
	}
}

func TestPlanContainerDecomposesRecipe(t *testing.T) {
	flavorX := models.Product{ID: primitive.NewObjectID(), Name: "Ube", Stock: 12}
	flavorY := models.Product{ID: primitive.NewObjectID(), Name: "Cheese", Stock: 12}
	container := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Mixed Dozen",
		BasePrice: 540,
		Stock:     2,
		Recipe: map[string]int{
			flavorX.ID.Hex(): 6,
			flavorY.ID.Hex(): 6,
		},
	}
	products := snapshot(flavorX, flavorY, container)

	line := models.CartLine{
		ProductID: container.ID,
		Quantity:  2,
		RecipeSelection: map[string]int{
			flavorX.ID.Hex(): 6,
			flavorY.ID.Hex(): 6,
		},
	}

	adjustments, err := Plan([]models.CartLine{line}, products)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	stocks := applyToSnapshot(t, products, adjustments)
	if stocks[container.ID] != 0 || stocks[flavorX.ID] != 0 || stocks[flavorY.ID] != 0 {
		t.Fatalf("expected container and constituents fully consumed, got %v", stocks)
	}
}

func TestPlanContainerConstituentShortfallNamesConstituent(t *testing.T) {
	// Mixed Dozen scenario: container stock 2, flavorX 11, flavorY 12.
	// Two containers need 12 of each; flavorX is one short.
	flavorX := models.Product{ID: primitive.NewObjectID(), Name: "Ube", Stock: 11}
	flavorY := models.Product{ID: primitive.NewObjectID(), Name: "Cheese", Stock: 12}
	container := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Mixed Dozen",
		BasePrice: 540,
		Stock:     2,
		Recipe: map[string]int{
			flavorX.ID.Hex(): 6,
			flavorY.ID.Hex(): 6,
		},
	}
	products := snapshot(flavorX, flavorY, container)

	line := models.CartLine{
		ProductID: container.ID,
		Quantity:  2,
		RecipeSelection: map[string]int{
			flavorX.ID.Hex(): 6,
			flavorY.ID.Hex(): 6,
		},
	}

	adjustments, err := Plan([]models.CartLine{line}, products)
	var stockErr StockInsufficientError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockInsufficientError, got %v", err)
	}
	if stockErr.Constituent != "Ube" {
		t.Fatalf("error should name the failing constituent, got %+v", stockErr)
	}
	if stockErr.Required != 12 || stockErr.Available != 11 {
		t.Fatalf("expected need 12 have 11, got %+v", stockErr)
	}
	if adjustments != nil {
		t.Fatal("a failed plan must not produce a partial adjustment set")
	}
}

func TestPlanContainerOwnStockMustClear(t *testing.T) {
	flavor := models.Product{ID: primitive.NewObjectID(), Name: "Ube", Stock: 100}
	container := models.Product{
		ID:     primitive.NewObjectID(),
		Name:   "Mixed Dozen",
		Stock:  1,
		Recipe: map[string]int{flavor.ID.Hex(): 12},
	}
	products := snapshot(flavor, container)

	line := models.CartLine{ProductID: container.ID, Quantity: 2}

	_, err := Plan([]models.CartLine{line}, products)
	var stockErr StockInsufficientError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockInsufficientError, got %v", err)
	}
	if stockErr.ProductID != container.ID || stockErr.Constituent != "" {
		t.Fatalf("error should name the container itself, got %+v", stockErr)
	}
}

func TestPlanContainerDefaultsToDeclaredRecipe(t *testing.T) {
	flavor := models.Product{ID: primitive.NewObjectID(), Name: "Ube", Stock: 12}
	container := models.Product{
		ID:     primitive.NewObjectID(),
		Name:   "Ube Dozen",
		Stock:  1,
		Recipe: map[string]int{flavor.ID.Hex(): 12},
	}
	products := snapshot(flavor, container)

	// No explicit flavor split: the declared recipe applies.
	adjustments, err := Plan([]models.CartLine{{ProductID: container.ID, Quantity: 1}}, products)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	stocks := applyToSnapshot(t, products, adjustments)
	if stocks[flavor.ID] != 0 {
		t.Fatalf("declared recipe should consume all 12, left %d", stocks[flavor.ID])
	}
}

func TestPlanFailureTouchesNothing(t *testing.T) {
	// One sufficient line and one insufficient line: the plan must fail
	// as a whole with no adjustments for the sufficient product either.
	ok := models.Product{ID: primitive.NewObjectID(), Name: "Tocino", Stock: 10}
	short := models.Product{ID: primitive.NewObjectID(), Name: "Longganisa", Stock: 1}
	products := snapshot(ok, short)

	lines := []models.CartLine{
		{ProductID: ok.ID, Quantity: 2},
		{ProductID: short.ID, Quantity: 5},
	}

	adjustments, err := Plan(lines, products)
	var stockErr StockInsufficientError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockInsufficientError, got %v", err)
	}
	if stockErr.ProductID != short.ID {
		t.Fatalf("error should name the short product, got %+v", stockErr)
	}
	if adjustments != nil {
		t.Fatal("no partial adjustment set on failure")
	}
}
