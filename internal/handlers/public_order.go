package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/inventory"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/orders"
	"backend/internal/pricing"
)

/* =========================
   REQUEST DTOs
========================= */

type orderLineRequest struct {
	ProductID         string            `json:"productId" binding:"required"`
	Quantity          int               `json:"quantity" binding:"required,min=1"`
	SelectedModifiers map[string]string `json:"selectedModifiers"`
	SelectedTier      string            `json:"selectedTier"`
	RecipeSelection   map[string]int    `json:"recipeSelection"`
}

type orderCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

type createOrderRequest struct {
	Items          []orderLineRequest   `json:"items" binding:"required"`
	Customer       orderCustomerRequest `json:"customer" binding:"required"`
	PaymentMethod  string               `json:"paymentMethod" binding:"required"`
	CashTendered   int                  `json:"cashTendered"`
	DeliveryMethod string               `json:"deliveryMethod" binding:"required"`
	SchedulingType string               `json:"schedulingType" binding:"required"`
	ScheduledFor   *time.Time           `json:"scheduledFor"`
}

func submitRequestFromBody(req createOrderRequest) (orders.SubmitRequest, error) {
	lines := make([]models.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return orders.SubmitRequest{}, errors.New("invalid productId")
		}
		lines = append(lines, models.CartLine{
			ProductID:         productID,
			Quantity:          item.Quantity,
			SelectedModifiers: item.SelectedModifiers,
			SelectedTier:      item.SelectedTier,
			RecipeSelection:   item.RecipeSelection,
		})
	}

	return orders.SubmitRequest{
		Lines:          lines,
		Customer:       models.OrderCustomer(req.Customer),
		PaymentMethod:  req.PaymentMethod,
		CashTendered:   req.CashTendered,
		DeliveryMethod: req.DeliveryMethod,
		SchedulingType: req.SchedulingType,
		ScheduledFor:   req.ScheduledFor,
	}, nil
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(svc *orders.Service, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		submitReq, err := submitRequestFromBody(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.Submit(c.Request.Context(), submitReq)
		if err != nil {
			respondWithSubmitError(c, route, err)
			return
		}

		log.Printf("[%s] order %s committed, total %d", route, order.ID.Hex(), order.Total)

		// Notification is best-effort and decoupled from the commit:
		// the order stands even if link building fails here.
		link, linkErr := dispatcher.DeepLink(order)
		if linkErr != nil {
			log.Printf("[%s] deep link unavailable: %v", route, linkErr)
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":      order.ID.Hex(),
			"order":        order,
			"summary":      dispatcher.Render(order),
			"notification": link,
		})
	}
}

// respondWithSubmitError maps the core's typed submit failures onto
// HTTP responses, keeping the offending product visible to the client.
func respondWithSubmitError(c *gin.Context, route string, err error) {
	var (
		valErr   orders.ValidationError
		selErr   pricing.UnrecognizedSelectionError
		nfErr    orders.ProductNotFoundError
		stockErr inventory.StockInsufficientError
		abortErr orders.TransactionAbortError
		cfgErr   notify.ConfigurationError
	)

	switch {
	case errors.As(err, &valErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": valErr.Error(),
			"field": valErr.Field,
		})
	case errors.As(err, &selErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     selErr.Error(),
			"stale":     true,
			"group":     selErr.Group,
			"selection": selErr.Selection,
		})
	case errors.As(err, &nfErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "product no longer available",
			"productId": nfErr.ProductID.Hex(),
		})
	case errors.As(err, &stockErr):
		payload := gin.H{
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID.Hex(),
			"product":   stockErr.Product,
			"available": stockErr.Available,
			"required":  stockErr.Required,
		}
		if stockErr.Constituent != "" {
			payload["constituent"] = stockErr.Constituent
		}
		c.AbortWithStatusJSON(http.StatusConflict, payload)
	case errors.As(err, &abortErr):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "order could not be committed, please retry",
			"retryable": true,
		})
	case errors.As(err, &cfgErr):
		respondWithError(c, http.StatusInternalServerError, route, cfgErr.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}
