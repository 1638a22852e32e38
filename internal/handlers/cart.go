package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/cart"
	"backend/internal/catalog"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/orders"
)

// CartSessions holds one cart snapshot per session id. State is local
// to this process; the optimistic stock ceilings come from the catalog
// watcher's snapshot, never from the database directly.
type CartSessions struct {
	mu    sync.Mutex
	carts map[string][]models.CartLine
}

func NewCartSessions() *CartSessions {
	return &CartSessions{carts: map[string][]models.CartLine{}}
}

func (s *CartSessions) get(id string) ([]models.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, ok := s.carts[id]
	return lines, ok
}

func (s *CartSessions) put(id string, lines []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[id] = lines
}

func (s *CartSessions) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
}

type addLineRequest struct {
	ProductID         string            `json:"productId" binding:"required"`
	Quantity          int               `json:"quantity" binding:"required,min=1"`
	SelectedModifiers map[string]string `json:"selectedModifiers"`
	SelectedTier      string            `json:"selectedTier"`
	RecipeSelection   map[string]int    `json:"recipeSelection"`
}

func CreateCart(sessions *CartSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := primitive.NewObjectID().Hex()
		sessions.put(id, cart.Clear())
		c.JSON(http.StatusCreated, gin.H{"cartId": id})
	}
}

func GetCart(sessions *CartSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": lines})
	}
}

func AddCartLine(sessions *CartSessions, watcher *catalog.Watcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /carts/:id/lines"
		defer handlePanic(c, route)

		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		var req addLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		product, ok := watcher.Product(productID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		next, err := cart.AddLine(lines, product, req.Quantity, req.SelectedModifiers, req.SelectedTier, req.RecipeSelection)
		if err != nil {
			respondWithCeiling(c, err)
			return
		}

		sessions.put(c.Param("id"), next)
		c.JSON(http.StatusOK, gin.H{"items": next})
	}
}

func IncreaseCartLine(sessions *CartSessions, watcher *catalog.Watcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		key := c.Param("key")
		stock := 0
		for _, line := range lines {
			if line.Key == key {
				stock = watcher.KnownStock(line.ProductID)
				break
			}
		}

		next, err := cart.IncreaseLine(lines, key, stock)
		if err != nil {
			respondWithCeiling(c, err)
			return
		}

		sessions.put(c.Param("id"), next)
		c.JSON(http.StatusOK, gin.H{"items": next})
	}
}

func DecreaseCartLine(sessions *CartSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		next := cart.DecreaseLine(lines, c.Param("key"))
		sessions.put(c.Param("id"), next)
		c.JSON(http.StatusOK, gin.H{"items": next})
	}
}

func RemoveCartLine(sessions *CartSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		next := cart.RemoveLine(lines, c.Param("key"))
		sessions.put(c.Param("id"), next)
		c.JSON(http.StatusOK, gin.H{"items": next})
	}
}

func ClearCart(sessions *CartSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessions.get(c.Param("id")); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}
		sessions.put(c.Param("id"), cart.Clear())
		c.Status(http.StatusNoContent)
	}
}

type checkoutRequest struct {
	Customer       orderCustomerRequest `json:"customer" binding:"required"`
	PaymentMethod  string               `json:"paymentMethod" binding:"required"`
	CashTendered   int                  `json:"cashTendered"`
	DeliveryMethod string               `json:"deliveryMethod" binding:"required"`
	SchedulingType string               `json:"schedulingType" binding:"required"`
	ScheduledFor   *time.Time           `json:"scheduledFor"`
}

// CheckoutCart submits the session cart through the order service. The
// cart is cleared only after a successful commit.
func CheckoutCart(sessions *CartSessions, svc *orders.Service, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /carts/:id/checkout"
		defer handlePanic(c, route)

		lines, ok := sessions.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		submitReq := orders.SubmitRequest{
			Lines:          lines,
			Customer:       models.OrderCustomer(req.Customer),
			PaymentMethod:  req.PaymentMethod,
			CashTendered:   req.CashTendered,
			DeliveryMethod: req.DeliveryMethod,
			SchedulingType: req.SchedulingType,
			ScheduledFor:   req.ScheduledFor,
		}

		order, err := svc.Submit(c.Request.Context(), submitReq)
		if err != nil {
			respondWithSubmitError(c, route, err)
			return
		}

		sessions.drop(c.Param("id"))

		link, linkErr := dispatcher.DeepLink(order)
		if linkErr != nil {
			link = ""
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":      order.ID.Hex(),
			"order":        order,
			"summary":      dispatcher.Render(order),
			"notification": link,
		})
	}
}

func respondWithCeiling(c *gin.Context, err error) {
	var warning cart.StockCeilingWarning
	if errors.As(err, &warning) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     warning.Error(),
			"productId": warning.ProductID.Hex(),
			"stock":     warning.Stock,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cart error"})
}
