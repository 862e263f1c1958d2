package httpserver

import (
	"net/http"

	ordersvc "commerce-engine/internal/service/order"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	CartID    string `json:"cartId" binding:"required"`
	AddressID string `json:"addressId" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cartId and addressId are required")
		return
	}
	o, err := h.orders.Create(c.Request.Context(), currentPrincipal(c).UserID, req.CartID, req.AddressID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, o, "order created")
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.orders.ListForUser(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, orders, "orders")
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.orders.GetForUser(c.Request.Context(), c.Param("id"), currentPrincipal(c).UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, o, "order")
}

func (h *handlers) editOrder(c *gin.Context) {
	var in ordersvc.EditInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.orders.Edit(c.Request.Context(), currentPrincipal(c).UserID, c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, o, "order updated")
}

func (h *handlers) adminListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, orders, "orders")
}

func (h *handlers) adminGetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, o, "order")
}

func (h *handlers) adminUpdateOrder(c *gin.Context) {
	var in ordersvc.AdminUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.orders.AdminUpdate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, o, "order updated")
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, o, "order status updated")
}
