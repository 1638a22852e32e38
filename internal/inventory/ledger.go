package inventory

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ledger applies stock adjustments. All stock mutation in the system
// flows through Reserve; nothing else writes the stock field.
type Ledger struct {
	db *mongo.Database
}

func NewLedger(db *mongo.Database) *Ledger {
	return &Ledger{db: db}
}

// Reserve applies a planned adjustment set inside the caller's session
// transaction. Each update is guarded by a {stock: {$gte: units}}
// filter, so a concurrent commit that drained the product between the
// planning read and this write cannot drive stock negative: the guard
// misses, the error aborts the transaction, and every already-applied
// decrement in this set rolls back with it.
func (l *Ledger) Reserve(sessCtx mongo.SessionContext, adjustments []Adjustment) error {
	for _, adj := range adjustments {
		filter := bson.M{
			"_id":       adj.ProductID,
			"isDeleted": bson.M{"$ne": true},
			"stock":     bson.M{"$gte": adj.Units},
		}
		update := bson.M{"$inc": bson.M{"stock": -adj.Units}}

		res, err := l.db.Collection("products").UpdateOne(sessCtx, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			stockErr := StockInsufficientError{
				ProductID: adj.ProductID,
				Product:   adj.Product,
				Required:  adj.Units,
			}
			// Re-read inside the transaction so the error can report
			// what is actually left.
			var doc struct {
				Stock int `bson:"stock"`
			}
			if err := l.db.Collection("products").FindOne(sessCtx, bson.M{"_id": adj.ProductID}).Decode(&doc); err == nil {
				stockErr.Available = doc.Stock
			}
			return stockErr
		}
	}
	return nil
}
