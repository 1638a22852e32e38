// Package inventory validates and atomically reserves stock for an
// order. Planning is pure: it expands tier and container lines into base
// stock units, aggregates demand per product, and checks the whole set
// against a point-in-time snapshot before anything is written. Applying
// a plan happens inside the caller's Mongo transaction, so either every
// adjustment lands or none do.
package inventory

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Adjustment is one entry of an order's stock write-set: Units base
// units to subtract from the product's live stock.
type Adjustment struct {
	ProductID primitive.ObjectID
	Product   string
	Units     int
}

// StockInsufficientError names the exact product that cannot cover the
// order. Constituent is set when a container's sub-item is the one that
// fell short. The whole reservation aborts on the first such failure.
type StockInsufficientError struct {
	ProductID   primitive.ObjectID
	Product     string
	Constituent string
	Available   int
	Required    int
}

func (e StockInsufficientError) Error() string {
	name := e.Product
	if e.Constituent != "" {
		name = e.Constituent
	}
	return fmt.Sprintf("insufficient stock for %q: need %d, have %d", name, e.Required, e.Available)
}

// Plan computes the full adjustment set for the given lines against the
// product snapshot. On any insufficiency it returns no adjustments and
// an error naming the failing product, leaving the caller with nothing
// to partially apply.
//
// Demand is accumulated across lines first, so two lines (or a direct
// line plus a container constituent) touching the same product are
// checked against its stock as one sum.
func Plan(lines []models.CartLine, products map[primitive.ObjectID]models.Product) ([]Adjustment, error) {
	demand := map[primitive.ObjectID]int{}
	// containerOf remembers which container first pulled a product in,
	// so the error can name the constituent relationship.
	containerOf := map[primitive.ObjectID]string{}
	order := []primitive.ObjectID{}

	add := func(id primitive.ObjectID, units int) {
		if _, seen := demand[id]; !seen {
			order = append(order, id)
		}
		demand[id] += units
	}

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("no product snapshot for %s", line.ProductID.Hex())
		}

		if p.HasRecipe() {
			// Container and constituents are tracked independently;
			// both must clear.
			add(p.ID, line.Quantity)

			selection := line.RecipeSelection
			if len(selection) == 0 {
				selection = p.Recipe
			}
			for _, constituentID := range sortedRecipeKeys(selection) {
				id, err := primitive.ObjectIDFromHex(constituentID)
				if err != nil {
					return nil, fmt.Errorf("invalid constituent id %q on %q", constituentID, p.Name)
				}
				add(id, selection[constituentID]*line.Quantity)
				if _, taken := containerOf[id]; !taken {
					containerOf[id] = p.Name
				}
			}
			continue
		}

		add(p.ID, line.Quantity*unitsPerLine(p, line.SelectedTier))
	}

	adjustments := make([]Adjustment, 0, len(order))
	for _, id := range order {
		units := demand[id]
		if units == 0 {
			continue
		}

		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("no product snapshot for %s", id.Hex())
		}
		if p.Stock < units {
			stockErr := StockInsufficientError{
				ProductID: id,
				Product:   p.Name,
				Available: p.Stock,
				Required:  units,
			}
			if container, ok := containerOf[id]; ok {
				stockErr.Product = container
				stockErr.Constituent = p.Name
			}
			return nil, stockErr
		}

		adjustments = append(adjustments, Adjustment{ProductID: id, Product: p.Name, Units: units})
	}

	return adjustments, nil
}

// unitsPerLine maps one line quantity to consumed base stock units. The
// mapping is product-declared on the tier; it is never inferred from the
// tier name.
func unitsPerLine(p models.Product, selectedTier string) int {
	if !p.HasTierPricing() {
		return 1
	}
	tier, ok := p.TierPricing[selectedTier]
	if !ok || tier.Units < 1 {
		return 1
	}
	return tier.Units
}

func sortedRecipeKeys(selection map[string]int) []string {
	keys := make([]string, 0, len(selection))
	for k := range selection {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
