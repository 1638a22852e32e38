// Package orders turns a cart snapshot into a committed, priced,
// stock-reserved order and drives its lifecycle. Nothing here trusts
// client state: every selection is re-resolved against the live catalog
// inside the commit transaction.
package orders

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/inventory"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/pricing"
)

// ErrOrderNotFound is returned by status updates targeting an unknown
// order id.
var ErrOrderNotFound = errors.New("order not found")

type Config struct {
	EtaBaseMinutes   int
	EtaBusyMinutes   int
	EtaBusyThreshold int
	TxTimeout        time.Duration
}

type Service struct {
	db       *mongo.Database
	ledger   *inventory.Ledger
	notifier *notify.Dispatcher
	cfg      Config
}

func NewService(db *mongo.Database, ledger *inventory.Ledger, notifier *notify.Dispatcher, cfg Config) *Service {
	return &Service{db: db, ledger: ledger, notifier: notifier, cfg: cfg}
}

type SubmitRequest struct {
	Lines          []models.CartLine
	Customer       models.OrderCustomer
	PaymentMethod  string
	CashTendered   int
	DeliveryMethod string
	SchedulingType string
	ScheduledFor   *time.Time
}

// Submit runs the commit pipeline: shape validation, notification
// channel check, congestion ETA, then one Mongo transaction that
// re-prices every line, reserves stock, and inserts the order. Failure
// anywhere leaves no trace; the transaction is the only step that
// writes.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (models.Order, error) {
	now := time.Now()

	if err := validateSubmit(req, now); err != nil {
		return models.Order{}, err
	}

	// The summary hand-off needs a channel; surfacing this before the
	// transaction means no order is ever committed and then stranded.
	if !s.notifier.Configured() {
		return models.Order{}, notify.ConfigurationError{}
	}

	order := models.Order{
		Customer:       req.Customer,
		PaymentMethod:  req.PaymentMethod,
		CashTendered:   req.CashTendered,
		DeliveryMethod: req.DeliveryMethod,
		SchedulingType: req.SchedulingType,
		ScheduledFor:   req.ScheduledFor,
		Status:         StatusPending,
		CreatedAt:      now,
	}

	if req.SchedulingType == SchedulingImmediate {
		active, err := s.ActiveCount(ctx)
		if err != nil {
			return models.Order{}, TransactionAbortError{Err: err}
		}
		order.EtaMinutes = EtaMinutes(s.cfg.EtaBaseMinutes, s.cfg.EtaBusyMinutes, active, s.cfg.EtaBusyThreshold)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return models.Order{}, TransactionAbortError{Err: err}
	}
	defer session.EndSession(txCtx)

	_, err = session.WithTransaction(txCtx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		products, err := s.loadLineProducts(sessCtx, req.Lines)
		if err != nil {
			return nil, err
		}

		items, total, err := buildItems(products, req.Lines)
		if err != nil {
			return nil, err
		}

		if req.PaymentMethod == PaymentCash && req.CashTendered > 0 && req.CashTendered < total {
			return nil, ValidationError{Field: "cashTendered", Reason: "less than order total"}
		}

		adjustments, err := inventory.Plan(req.Lines, products)
		if err != nil {
			return nil, err
		}

		if err := s.ledger.Reserve(sessCtx, adjustments); err != nil {
			return nil, err
		}

		order.Items = items
		order.Total = total

		res, err := s.db.Collection("orders").InsertOne(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}
		return nil, nil
	})
	if err != nil {
		return models.Order{}, passthrough(err)
	}

	return order, nil
}

// passthrough keeps the typed errors raised inside the transaction
// callback intact and wraps everything else (driver errors, transient
// conflicts) as a retryable abort.
func passthrough(err error) error {
	var (
		stockErr inventory.StockInsufficientError
		selErr   pricing.UnrecognizedSelectionError
		valErr   ValidationError
		nfErr    ProductNotFoundError
	)
	switch {
	case errors.As(err, &stockErr):
		return stockErr
	case errors.As(err, &selErr):
		return selErr
	case errors.As(err, &valErr):
		return valErr
	case errors.As(err, &nfErr):
		return nfErr
	}
	return TransactionAbortError{Err: err}
}

// loadLineProducts reads every product an order touches, container
// constituents included, inside the commit transaction.
func (s *Service) loadLineProducts(sessCtx mongo.SessionContext, lines []models.CartLine) (map[primitive.ObjectID]models.Product, error) {
	products := map[primitive.ObjectID]models.Product{}

	fetch := func(id primitive.ObjectID) (models.Product, error) {
		if p, ok := products[id]; ok {
			return p, nil
		}
		var p models.Product
		err := s.db.Collection("products").FindOne(sessCtx, bson.M{
			"_id":       id,
			"isDeleted": bson.M{"$ne": true},
			"isActive":  bson.M{"$ne": false},
		}).Decode(&p)
		if err == mongo.ErrNoDocuments {
			return models.Product{}, ProductNotFoundError{ProductID: id}
		}
		if err != nil {
			return models.Product{}, err
		}
		products[id] = p
		return p, nil
	}

	for _, line := range lines {
		p, err := fetch(line.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.HasRecipe() {
			continue
		}

		if err := validateRecipeSelection(p, line.RecipeSelection); err != nil {
			return nil, err
		}

		for constituentHex := range p.Recipe {
			constituentID, err := primitive.ObjectIDFromHex(constituentHex)
			if err != nil {
				return nil, ValidationError{Field: "recipe", Reason: "malformed constituent id " + constituentHex}
			}
			if _, err := fetch(constituentID); err != nil {
				return nil, err
			}
		}
	}

	return products, nil
}

// validateRecipeSelection checks a customer's flavor split against the
// declared recipe: only declared constituents, non-negative counts, and
// the same per-container total.
func validateRecipeSelection(p models.Product, selection map[string]int) error {
	if len(selection) == 0 {
		return nil
	}

	total := 0
	for constituentHex, count := range selection {
		if _, declared := p.Recipe[constituentHex]; !declared {
			return ValidationError{Field: "recipeSelection", Reason: "constituent not part of " + p.Name}
		}
		if count < 0 {
			return ValidationError{Field: "recipeSelection", Reason: "negative constituent count"}
		}
		total += count
	}
	if total != p.RecipeUnitsPerContainer() {
		return ValidationError{Field: "recipeSelection", Reason: "selection does not fill the container"}
	}
	return nil
}

// buildItems produces the immutable order snapshot: re-priced lines with
// resolved modifier/tier/recipe annotations and the grand total.
func buildItems(products map[primitive.ObjectID]models.Product, lines []models.CartLine) ([]models.OrderItem, int, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := 0

	for _, line := range lines {
		p := products[line.ProductID]

		unit, err := pricing.UnitPrice(p, line.SelectedModifiers, line.SelectedTier)
		if err != nil {
			return nil, 0, err
		}

		item := models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: unit,
			Quantity:  line.Quantity,
			Tier:      line.SelectedTier,
			LineTotal: unit * line.Quantity,
		}

		for _, group := range p.ModifierGroups {
			optionID, ok := line.SelectedModifiers[group.ID]
			if !ok {
				continue
			}
			for _, option := range group.Options {
				if option.ID != optionID {
					continue
				}
				delta := option.PriceDelta
				if option.IsFree {
					delta = 0
				}
				item.Modifiers = append(item.Modifiers, models.OrderItemModifier{
					Group:      group.Name,
					Option:     option.Name,
					PriceDelta: delta,
				})
			}
		}

		if p.HasRecipe() {
			selection := line.RecipeSelection
			if len(selection) == 0 {
				selection = p.Recipe
			}
			for constituentHex, count := range selection {
				if count == 0 {
					continue
				}
				constituentID, err := primitive.ObjectIDFromHex(constituentHex)
				if err != nil {
					return nil, 0, ValidationError{Field: "recipe", Reason: "malformed constituent id " + constituentHex}
				}
				part := models.OrderItemPart{ProductID: constituentID, Count: count}
				if constituent, ok := products[constituentID]; ok {
					part.Name = constituent.Name
				}
				item.Recipe = append(item.Recipe, part)
			}
			sortParts(item.Recipe)
		}

		items = append(items, item)
		total += item.LineTotal
	}

	return items, total, nil
}

func sortParts(parts []models.OrderItemPart) {
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })
}

func validateSubmit(req SubmitRequest, now time.Time) error {
	if len(req.Lines) == 0 {
		return ValidationError{Field: "items", Reason: "at least one line is required"}
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return ValidationError{Field: "quantity", Reason: "must be at least 1"}
		}
	}

	if req.Customer.Name == "" {
		return ValidationError{Field: "customer.name", Reason: "required"}
	}
	if req.Customer.Phone == "" {
		return ValidationError{Field: "customer.phone", Reason: "required"}
	}

	switch req.PaymentMethod {
	case PaymentCash, PaymentTransfer:
	default:
		return ValidationError{Field: "paymentMethod", Reason: "must be cash or transfer"}
	}
	if req.CashTendered < 0 {
		return ValidationError{Field: "cashTendered", Reason: "must not be negative"}
	}

	switch req.DeliveryMethod {
	case DeliveryPickup:
	case DeliveryDelivery:
		if req.Customer.Address == "" {
			return ValidationError{Field: "customer.address", Reason: "required for delivery"}
		}
	default:
		return ValidationError{Field: "deliveryMethod", Reason: "must be pickup or delivery"}
	}

	switch req.SchedulingType {
	case SchedulingImmediate:
	case SchedulingReserved:
		if req.ScheduledFor == nil {
			return ValidationError{Field: "scheduledFor", Reason: "required for reserved orders"}
		}
		if !req.ScheduledFor.After(now) {
			return ValidationError{Field: "scheduledFor", Reason: "must be in the future"}
		}
	default:
		return ValidationError{Field: "schedulingType", Reason: "must be immediate or reserved"}
	}

	return nil
}

// ActiveCount is the number of orders currently occupying the kitchen:
// pending plus processing.
func (s *Service) ActiveCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.db.Collection("orders").CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{StatusPending, StatusProcessing}},
	})
}

// UpdateStatus applies an operator-triggered lifecycle transition.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !ValidStatus(status) {
		return ValidationError{Field: "status", Reason: "unknown status " + status}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
