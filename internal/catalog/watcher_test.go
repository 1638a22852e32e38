package catalog

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func event(op string, p *models.Product) ChangeEvent {
	e := ChangeEvent{OperationType: op, FullDocument: p}
	if p != nil {
		e.DocumentKey.ID = p.ID
	}
	return e
}

func TestApplyInsertAndUpdate(t *testing.T) {
	w := NewWatcher(nil)

	p := models.Product{ID: primitive.NewObjectID(), Name: "Pandesal", Stock: 24}
	w.Apply(event("insert", &p))

	got, ok := w.Product(p.ID)
	if !ok || got.Stock != 24 {
		t.Fatalf("expected product with stock 24, got %+v ok=%v", got, ok)
	}

	p.Stock = 12
	w.Apply(event("update", &p))

	if w.KnownStock(p.ID) != 12 {
		t.Fatalf("expected stock 12 after update, got %d", w.KnownStock(p.ID))
	}
}

func TestApplyDeleteRemovesProduct(t *testing.T) {
	w := NewWatcher(nil)

	p := models.Product{ID: primitive.NewObjectID(), Name: "Pandesal", Stock: 24}
	w.Apply(event("insert", &p))

	e := ChangeEvent{OperationType: "delete"}
	e.DocumentKey.ID = p.ID
	w.Apply(e)

	if _, ok := w.Product(p.ID); ok {
		t.Fatal("deleted product should leave the snapshot")
	}
}

func TestApplySoftDeleteRemovesProduct(t *testing.T) {
	w := NewWatcher(nil)

	p := models.Product{ID: primitive.NewObjectID(), Name: "Pandesal", Stock: 24}
	w.Apply(event("insert", &p))

	p.IsDeleted = true
	w.Apply(event("update", &p))

	if _, ok := w.Product(p.ID); ok {
		t.Fatal("soft-deleted product should leave the snapshot")
	}
}

func TestKnownStockUnknownProductIsZero(t *testing.T) {
	w := NewWatcher(nil)

	if got := w.KnownStock(primitive.NewObjectID()); got != 0 {
		t.Fatalf("unknown product should report 0 stock, got %d", got)
	}
}
