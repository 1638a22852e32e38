// Package pricing computes line and order totals from a product, a
// quantity, and the customer's modifier/tier selections. All amounts are
// plain non-negative integer currency units; the unit price is resolved
// first and the line total is always unit price times quantity.
package pricing

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// UnrecognizedSelectionError reports a selection (modifier option or
// tier) that does not exist on the live product definition. Typically a
// stale client: the caller re-fetches the product and re-prompts.
type UnrecognizedSelectionError struct {
	Product   string
	Group     string
	Selection string
}

func (e UnrecognizedSelectionError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("product %q has no option %q in group %q", e.Product, e.Selection, e.Group)
	}
	return fmt.Sprintf("product %q has no tier %q", e.Product, e.Selection)
}

// UnitPrice resolves the effective price of one line quantity.
// Tier pricing, when declared, fully replaces base price: a selected
// tier is required and its fixed price is used. Non-free modifier
// deltas are added on top; free options contribute zero regardless of
// their stored delta.
func UnitPrice(p models.Product, selectedModifiers map[string]string, selectedTier string) (int, error) {
	base := p.BasePrice

	if p.HasTierPricing() {
		tier, ok := p.TierPricing[selectedTier]
		if !ok {
			return 0, UnrecognizedSelectionError{Product: p.Name, Selection: selectedTier}
		}
		base = tier.Price
	} else if selectedTier != "" {
		return 0, UnrecognizedSelectionError{Product: p.Name, Selection: selectedTier}
	}

	for groupID, optionID := range selectedModifiers {
		option, err := resolveOption(p, groupID, optionID)
		if err != nil {
			return 0, err
		}
		if option.IsFree {
			continue
		}
		base += option.PriceDelta
	}

	if base < 0 {
		base = 0
	}
	return base, nil
}

// LineTotal prices a full cart line: resolved unit price times quantity.
func LineTotal(p models.Product, line models.CartLine) (int, error) {
	unit, err := UnitPrice(p, line.SelectedModifiers, line.SelectedTier)
	if err != nil {
		return 0, err
	}
	return unit * line.Quantity, nil
}

// OrderTotal sums LineTotal over every line. Each line's product must be
// present in the snapshot map.
func OrderTotal(products map[primitive.ObjectID]models.Product, lines []models.CartLine) (int, error) {
	total := 0
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return 0, fmt.Errorf("no product snapshot for %s", line.ProductID.Hex())
		}
		lineTotal, err := LineTotal(p, line)
		if err != nil {
			return 0, err
		}
		total += lineTotal
	}
	return total, nil
}

func resolveOption(p models.Product, groupID, optionID string) (models.ModifierOption, error) {
	for _, group := range p.ModifierGroups {
		if group.ID != groupID {
			continue
		}
		for _, option := range group.Options {
			if option.ID == optionID {
				return option, nil
			}
		}
		break
	}
	return models.ModifierOption{}, UnrecognizedSelectionError{
		Product:   p.Name,
		Group:     groupID,
		Selection: optionID,
	}
}
