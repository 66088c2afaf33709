package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/abak-storefront/internal/search"
	"github.com/imrishuroy/abak-storefront/internal/session"
	"github.com/imrishuroy/abak-storefront/internal/validation"
)

// navigationResponse is the dropdown plus the URL the page should load.
type navigationResponse struct {
	Dropdown search.Dropdown `json:"dropdown"`
	Navigate string          `json:"navigate,omitempty"`
}

type searchHandler struct {
	pages *session.Registry
	v     *validatorv10.Validate
}

// RegisterSearchRoutes registers the search input routes.
func RegisterSearchRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := &searchHandler{pages: cfg.Registry, v: validation.New()}

	g := r.Group("/search")
	g.GET("", h.view)
	g.POST("/input", h.input)
	g.POST("/keys", h.key)
	g.POST("/select", h.selectIndex)
	g.POST("/blur", h.blur)
	g.POST("/focus", h.focus)
}

func (h *searchHandler) page(c *gin.Context) *session.Page {
	return h.pages.Page(c.Request.Context(), contextID(c))
}

func (h *searchHandler) view(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).SearchView())
}

func (h *searchHandler) input(c *gin.Context) {
	var req validation.SearchInputRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	c.JSON(http.StatusOK, h.page(c).SearchInput(req.Value))
}

func (h *searchHandler) key(c *gin.Context) {
	var req validation.KeyRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	d, nav := h.page(c).SearchKey(search.Key(req.Key))
	c.JSON(http.StatusOK, navigationResponse{Dropdown: d, Navigate: nav})
}

func (h *searchHandler) selectIndex(c *gin.Context) {
	var req validation.SelectRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	d, nav := h.page(c).SearchSelect(*req.Index)
	c.JSON(http.StatusOK, navigationResponse{Dropdown: d, Navigate: nav})
}

func (h *searchHandler) blur(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).SearchBlur())
}

func (h *searchHandler) focus(c *gin.Context) {
	c.JSON(http.StatusOK, h.page(c).SearchFocus())
}
