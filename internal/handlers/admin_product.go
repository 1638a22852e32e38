package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

/* =======================
   REQUEST DTOs
======================= */

type modifierOptionRequest struct {
	ID         string `json:"id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	PriceDelta int    `json:"priceDelta"`
	IsFree     bool   `json:"isFree"`
}

type modifierGroupRequest struct {
	ID      string                  `json:"id" binding:"required"`
	Name    string                  `json:"name" binding:"required"`
	Options []modifierOptionRequest `json:"options" binding:"required"`
}

type priceTierRequest struct {
	Price int `json:"price" binding:"required"`
	Units int `json:"units"`
}

type productCreateRequest struct {
	Name           string                      `json:"name" binding:"required"`
	BasePrice      int                         `json:"basePrice"`
	Category       []string                    `json:"category" binding:"required"`
	Description    string                      `json:"description"`
	Stock          int                         `json:"stock"`
	ModifierGroups []modifierGroupRequest      `json:"modifierGroups"`
	TierPricing    map[string]priceTierRequest `json:"tierPricing"`
	Recipe         map[string]int              `json:"recipe"`
	IsActive       *bool                       `json:"isActive"`
}

type productUpdateRequest struct {
	Name           *string                      `json:"name"`
	BasePrice      *int                         `json:"basePrice"`
	Category       *[]string                    `json:"category"`
	Description    *string                      `json:"description"`
	Stock          *int                         `json:"stock"`
	ModifierGroups *[]modifierGroupRequest      `json:"modifierGroups"`
	TierPricing    *map[string]priceTierRequest `json:"tierPricing"`
	Recipe         *map[string]int              `json:"recipe"`
	IsActive       *bool                        `json:"isActive"`
}

/* =======================
   VALIDATION HELPERS
======================= */

func buildModifierGroups(reqs []modifierGroupRequest) ([]models.ModifierGroup, error) {
	groups := make([]models.ModifierGroup, 0, len(reqs))
	seenGroups := map[string]struct{}{}

	for _, g := range reqs {
		groupID := strings.TrimSpace(g.ID)
		if groupID == "" {
			return nil, fmt.Errorf("modifier group id required")
		}
		if _, dup := seenGroups[groupID]; dup {
			return nil, fmt.Errorf("duplicate modifier group %q", groupID)
		}
		seenGroups[groupID] = struct{}{}

		if len(g.Options) == 0 {
			return nil, fmt.Errorf("modifier group %q has no options", groupID)
		}

		seenOptions := map[string]struct{}{}
		options := make([]models.ModifierOption, 0, len(g.Options))
		for _, o := range g.Options {
			optionID := strings.TrimSpace(o.ID)
			if optionID == "" {
				return nil, fmt.Errorf("option id required in group %q", groupID)
			}
			if _, dup := seenOptions[optionID]; dup {
				return nil, fmt.Errorf("duplicate option %q in group %q", optionID, groupID)
			}
			seenOptions[optionID] = struct{}{}

			options = append(options, models.ModifierOption{
				ID:         optionID,
				Name:       strings.TrimSpace(o.Name),
				PriceDelta: o.PriceDelta,
				IsFree:     o.IsFree,
			})
		}

		groups = append(groups, models.ModifierGroup{
			ID:      groupID,
			Name:    strings.TrimSpace(g.Name),
			Options: options,
		})
	}

	return groups, nil
}

func buildTierPricing(reqs map[string]priceTierRequest) (map[string]models.PriceTier, error) {
	tiers := make(map[string]models.PriceTier, len(reqs))
	for name, tier := range reqs {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("tier name required")
		}
		if tier.Price < 0 {
			return nil, fmt.Errorf("tier %q price must not be negative", name)
		}
		if tier.Units < 0 {
			return nil, fmt.Errorf("tier %q units must not be negative", name)
		}
		tiers[name] = models.PriceTier{Price: tier.Price, Units: tier.Units}
	}
	return tiers, nil
}

// validateRecipe checks that every constituent id parses and points at a
// live, non-container product.
func validateRecipe(ctx context.Context, db *mongo.Database, recipe map[string]int) error {
	for constituentHex, count := range recipe {
		if count < 1 {
			return fmt.Errorf("recipe count for %s must be at least 1", constituentHex)
		}

		constituentID, err := primitive.ObjectIDFromHex(constituentHex)
		if err != nil {
			return fmt.Errorf("invalid recipe constituent id: %s", constituentHex)
		}

		var constituent models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       constituentID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&constituent)
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("recipe constituent not found: %s", constituentHex)
		}
		if err != nil {
			return err
		}
		if constituent.HasRecipe() {
			return fmt.Errorf("recipe constituent %q is itself a container", constituent.Name)
		}
	}
	return nil
}

/* =======================
   HANDLERS
======================= */

func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		filter := bson.M{"isDeleted": bson.M{"$ne": true}}
		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			filter["isActive"] = v == "true"
		}

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		if req.BasePrice < 0 || req.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "price and stock must not be negative")
			return
		}
		if len(req.TierPricing) > 0 && len(req.Recipe) > 0 {
			respondWithError(c, http.StatusBadRequest, route, "a container product cannot also be tier priced")
			return
		}

		groups, err := buildModifierGroups(req.ModifierGroups)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		tiers, err := buildTierPricing(req.TierPricing)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := validateRecipe(ctx, db, req.Recipe); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		product := models.Product{
			Name:           name,
			BasePrice:      req.BasePrice,
			Category:       normalizeCategories(req.Category),
			Description:    strings.TrimSpace(req.Description),
			Stock:          req.Stock,
			ModifierGroups: groups,
			TierPricing:    tiers,
			Recipe:         req.Recipe,
			IsActive:       isActive,
			CreatedAt:      time.Now(),
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "product name already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = res.InsertedID.(primitive.ObjectID)
		product.InStock = product.Stock > 0

		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		update := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			update["name"] = name
		}
		if req.BasePrice != nil {
			if *req.BasePrice < 0 {
				respondWithError(c, http.StatusBadRequest, route, "basePrice must not be negative")
				return
			}
			update["basePrice"] = *req.BasePrice
		}
		if req.Category != nil {
			update["category"] = normalizeCategories(*req.Category)
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "stock must not be negative")
				return
			}
			update["stock"] = *req.Stock
		}
		if req.ModifierGroups != nil {
			groups, err := buildModifierGroups(*req.ModifierGroups)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			update["modifierGroups"] = groups
		}
		if req.TierPricing != nil {
			tiers, err := buildTierPricing(*req.TierPricing)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			update["tierPricing"] = tiers
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if req.Recipe != nil {
			if err := validateRecipe(ctx, db, *req.Recipe); err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			update["recipe"] = *req.Recipe
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.Product
		err = db.Collection("products").
			FindOneAndUpdate(
				ctx,
				bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
				bson.M{"$set": update},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).
			Decode(&updated)

		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated.InStock = updated.Stock > 0
		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /admin/api/products/:id
- Soft delete; the document stays for committed orders referencing it
*/
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		result, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now, "isActive": false}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func normalizeCategories(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)

	for _, v := range values {
		name := strings.TrimSpace(v)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
