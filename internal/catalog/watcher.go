// Package catalog keeps a push-fed, read-only snapshot of the product
// catalog. The snapshot backs optimistic checks only (cart stock
// ceilings, product lookups for pricing previews); the authoritative
// read happens inside the order commit transaction.
package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// ChangeEvent is the slice of a Mongo change-stream document the
// watcher consumes.
type ChangeEvent struct {
	OperationType string          `bson:"operationType"`
	FullDocument  *models.Product `bson:"fullDocument"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

type Watcher struct {
	db *mongo.Database

	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewWatcher(db *mongo.Database) *Watcher {
	return &Watcher{
		db:       db,
		products: map[primitive.ObjectID]models.Product{},
	}
}

// Load primes the snapshot with the current catalog. Call once before
// Run.
func (w *Watcher) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := w.db.Collection("products").Find(ctx, bson.M{
		"isDeleted": bson.M{"$ne": true},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range products {
		w.products[p.ID] = p
	}

	log.Printf("[CATALOG] [INFO] snapshot primed with %d products", len(products))
	return nil
}

// Run tails the products change stream and folds every event into the
// snapshot. Blocks until ctx is cancelled or the stream breaks; the
// caller owns restart policy.
func (w *Watcher) Run(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := w.db.Collection("products").Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	log.Println("[CATALOG] [INFO] change stream open")

	for stream.Next(ctx) {
		var event ChangeEvent
		if err := stream.Decode(&event); err != nil {
			log.Println("[CATALOG] [ERROR] decode change event:", err)
			continue
		}
		w.Apply(event)
	}

	return stream.Err()
}

// Apply folds one change event into the snapshot.
func (w *Watcher) Apply(event ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch event.OperationType {
	case "insert", "update", "replace":
		if event.FullDocument == nil {
			return
		}
		p := *event.FullDocument
		if p.IsDeleted {
			delete(w.products, p.ID)
			return
		}
		w.products[p.ID] = p
	case "delete":
		delete(w.products, event.DocumentKey.ID)
	}
}

// Product returns the snapshot's view of one product.
func (w *Watcher) Product(id primitive.ObjectID) (models.Product, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.products[id]
	return p, ok
}

// KnownStock is the last-observed stock for a product; 0 for unknown
// ids, which makes unknown products unorderable at the cart boundary.
func (w *Watcher) KnownStock(id primitive.ObjectID) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.products[id].Stock
}
