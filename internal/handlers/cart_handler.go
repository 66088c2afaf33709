package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/abak-storefront/internal/cart"
	"github.com/imrishuroy/abak-storefront/internal/idempotency"
	"github.com/imrishuroy/abak-storefront/internal/logging"
	"github.com/imrishuroy/abak-storefront/internal/session"
	"github.com/imrishuroy/abak-storefront/internal/validation"
)

// HandlerConfig groups dependencies for the storefront routes.
type HandlerConfig struct {
	Registry    *session.Registry
	Idempotency idempotency.Store
	Logger      zerolog.Logger
}

const (
	markDoneAttempts = 3
	markDoneBackoff  = 20 * time.Millisecond
)

// checkoutResponse tells the page whether to open a new window, and where.
type checkoutResponse struct {
	Opened bool   `json:"opened"`
	URL    string `json:"url,omitempty"`
}

type cartHandler struct {
	pages *session.Registry
	idem  idempotency.Store
	v     *validatorv10.Validate
	log   zerolog.Logger
}

// RegisterCartRoutes registers the cart, drawer and checkout routes.
func RegisterCartRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := &cartHandler{
		pages: cfg.Registry,
		idem:  cfg.Idempotency,
		v:     validation.New(),
		log:   logging.Component(cfg.Logger, "cart_handler"),
	}

	g := r.Group("/cart")
	g.GET("", h.view)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.updateQuantity)
	g.DELETE("/items/:id", h.removeItem)
	g.POST("/drawer/open", h.openDrawer)
	g.POST("/drawer/close", h.closeDrawer)
	g.POST("/checkout", h.checkout)
}

func (h *cartHandler) page(c *gin.Context) *session.Page {
	return h.pages.Page(c.Request.Context(), contextID(c))
}

func (h *cartHandler) view(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).CartView())
}

func (h *cartHandler) addItem(c *gin.Context) {
	var req validation.AddItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}
	product := cart.Product{ID: req.ID, Name: req.Name, Price: *req.Price, Image: req.Image}

	key := c.GetHeader("Idempotency-Key")
	if key == "" || h.idem == nil {
		view := h.page(c).AddItem(c.Request.Context(), product)
		c.JSON(http.StatusCreated, view)
		return
	}
	h.addItemOnce(c, idempotency.ScopedKey(contextID(c), key), product)
}

// addItemOnce adds product at most once per key, replaying the stored
// response for repeats.
func (h *cartHandler) addItemOnce(c *gin.Context, key string, product cart.Product) {
	ctx := c.Request.Context()
	log := h.log.With().Str(logging.ContextIDKey, contextID(c)).Str("idempotency_key", key).Logger()

	created, err := h.idem.CreateIfNotExists(ctx, key, contextID(c))
	if err != nil {
		log.Error().Err(err).Msg("create idempotency record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
		return
	}
	if !created {
		rec, err := h.idem.Get(ctx, key)
		if err != nil {
			log.Error().Err(err).Msg("get idempotency record")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
			return
		}
		switch {
		case rec == nil:
			// expired between the two calls; the client may simply retry
			c.JSON(http.StatusConflict, gin.H{"error": "idempotency_key_expired"})
		case rec.Status == idempotency.StatusDone:
			c.Header("Idempotent-Replayed", "true")
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		default:
			c.JSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
		}
		return
	}

	view := h.page(c).AddItem(ctx, product)
	body, err := json.Marshal(view)
	if err != nil {
		_ = h.idem.MarkFailed(ctx, key, fmt.Sprintf("render response: %v", err))
		log.Error().Err(err).Msg("render cart view")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render_failed"})
		return
	}
	if err := h.markDone(ctx, key, body); err != nil {
		// the add already happened; repeats get 409 until the record expires
		log.Error().Err(err).Msg("mark idempotency record done")
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// markDone retries transient failures a few times. Marking the record FAILED
// instead would let a retry add the item twice.
func (h *cartHandler) markDone(ctx context.Context, key string, body []byte) error {
	var err error
	for attempt := 1; attempt <= markDoneAttempts; attempt++ {
		if err = h.idem.MarkDone(ctx, key, string(body), http.StatusCreated); err == nil {
			return nil
		}
		if errors.Is(err, idempotency.ErrNotFound) || attempt == markDoneAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * markDoneBackoff):
		}
	}
	return err
}

func (h *cartHandler) updateQuantity(c *gin.Context) {
	var req validation.QuantityRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	c.JSON(http.StatusOK, h.page(c).UpdateQuantity(c.Request.Context(), c.Param("id"), req.Delta))
}

func (h *cartHandler) removeItem(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).RemoveItem(c.Request.Context(), c.Param("id")))
}

func (h *cartHandler) openDrawer(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).OpenDrawer())
}

func (h *cartHandler) closeDrawer(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).CloseDrawer())
}

func (h *cartHandler) checkout(c *gin.Context) {
	link := h.page(c).Checkout()
	c.JSON(http.StatusOK, checkoutResponse{Opened: link != "", URL: link})
}
