// Package cart holds the in-progress selection as an ordered snapshot of
// lines. Every operation is a pure transformation: it returns a new
// snapshot and never mutates its input, so a caller that sees an error
// still holds a valid, unchanged cart.
package cart

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// StockCeilingWarning signals that an add or increase would push a line
// past the last-known stock of its product. It is an optimistic,
// client-local cap; the authoritative check happens at commit inside the
// inventory reservation.
type StockCeilingWarning struct {
	ProductID primitive.ObjectID
	Product   string
	Stock     int
}

func (w StockCeilingWarning) Error() string {
	return fmt.Sprintf("only %d of %q in stock", w.Stock, w.Product)
}

// LineKey derives the deterministic identity of a selection: product id
// plus sorted modifier pairs plus tier. Recipe selections are excluded
// so two flavor splits of the same container merge into one line.
func LineKey(productID primitive.ObjectID, selectedModifiers map[string]string, selectedTier string) string {
	groups := make([]string, 0, len(selectedModifiers))
	for groupID := range selectedModifiers {
		groups = append(groups, groupID)
	}
	sort.Strings(groups)

	h := sha1.New()
	io.WriteString(h, productID.Hex())
	for _, groupID := range groups {
		io.WriteString(h, "|")
		io.WriteString(h, groupID)
		io.WriteString(h, "=")
		io.WriteString(h, selectedModifiers[groupID])
	}
	io.WriteString(h, "|tier=")
	io.WriteString(h, selectedTier)

	return hex.EncodeToString(h.Sum(nil))
}

// AddLine merges the selection into an existing line with the same key,
// or appends a new one. The resulting quantity is capped at the
// product's last-known stock: exceeding it returns the snapshot
// unchanged together with a StockCeilingWarning. A matching container
// line has its recipe selection replaced by the incoming one.
func AddLine(lines []models.CartLine, p models.Product, quantity int, selectedModifiers map[string]string, selectedTier string, recipeSelection map[string]int) ([]models.CartLine, error) {
	if quantity < 1 {
		return lines, nil
	}

	key := LineKey(p.ID, selectedModifiers, selectedTier)

	for i, line := range lines {
		if line.Key != key {
			continue
		}
		if line.Quantity+quantity > p.Stock {
			return lines, StockCeilingWarning{ProductID: p.ID, Product: p.Name, Stock: p.Stock}
		}
		next := clone(lines)
		next[i].Quantity += quantity
		if recipeSelection != nil {
			next[i].RecipeSelection = recipeSelection
		}
		return next, nil
	}

	if quantity > p.Stock {
		return lines, StockCeilingWarning{ProductID: p.ID, Product: p.Name, Stock: p.Stock}
	}

	next := clone(lines)
	next = append(next, models.CartLine{
		Key:               key,
		ProductID:         p.ID,
		Quantity:          quantity,
		SelectedModifiers: selectedModifiers,
		SelectedTier:      selectedTier,
		RecipeSelection:   recipeSelection,
	})
	return next, nil
}

// IncreaseLine bumps a line's quantity by one, capped at knownStock.
func IncreaseLine(lines []models.CartLine, key string, knownStock int) ([]models.CartLine, error) {
	for i, line := range lines {
		if line.Key != key {
			continue
		}
		if line.Quantity+1 > knownStock {
			return lines, StockCeilingWarning{ProductID: line.ProductID, Stock: knownStock}
		}
		next := clone(lines)
		next[i].Quantity++
		return next, nil
	}
	return lines, nil
}

// DecreaseLine drops a line's quantity by one; going below one removes
// the line entirely.
func DecreaseLine(lines []models.CartLine, key string) []models.CartLine {
	for i, line := range lines {
		if line.Key != key {
			continue
		}
		if line.Quantity <= 1 {
			return RemoveLine(lines, key)
		}
		next := clone(lines)
		next[i].Quantity--
		return next
	}
	return lines
}

func RemoveLine(lines []models.CartLine, key string) []models.CartLine {
	next := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Key == key {
			continue
		}
		next = append(next, line)
	}
	return next
}

func Clear() []models.CartLine {
	return []models.CartLine{}
}

func clone(lines []models.CartLine) []models.CartLine {
	next := make([]models.CartLine, len(lines))
	copy(next, lines)
	return next
}
