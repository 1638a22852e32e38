package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		p.InStock = p.Stock > 0
		products = append(products, p)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
