package httpserver

import (
	"net/http"

	cartsvc "commerce-engine/internal/service/cart"
	"github.com/gin-gonic/gin"
)

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "cart")
}

func (h *handlers) upsertCartItem(c *gin.Context) {
	var in cartsvc.UpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.carts.UpsertItem(c.Request.Context(), currentPrincipal(c).UserID, in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "cart updated")
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), currentPrincipal(c).UserID); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "cart cleared")
}
