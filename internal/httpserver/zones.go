package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	zonesvc "commerce-engine/internal/service/zone"
	"github.com/gin-gonic/gin"
)

func (h *handlers) createZone(c *gin.Context) {
	var in zonesvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	zone, err := h.zones.Create(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, zone, "delivery zone created")
}

func (h *handlers) updateZone(c *gin.Context) {
	var in zonesvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	zone, err := h.zones.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, zone, "delivery zone updated")
}

func (h *handlers) deleteZone(c *gin.Context) {
	if err := h.zones.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "delivery zone deleted")
}

func (h *handlers) getZone(c *gin.Context) {
	zone, err := h.zones.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, zone, "delivery zone")
}

func (h *handlers) listZones(c *gin.Context) {
	zones, err := h.zones.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, zones, "delivery zones")
}

func (h *handlers) setDefaultZone(c *gin.Context) {
	id := c.Param("id")
	if err := h.zones.SetDefault(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "isDefault": true}, "default delivery zone set")
}

// shippingQuote is a public estimate: pincode plus total weight in grams.
func (h *handlers) shippingQuote(c *gin.Context) {
	pincode := strings.TrimSpace(c.Query("pincode"))
	if pincode == "" {
		badRequest(c, "pincode is required")
		return
	}
	weight, err := strconv.ParseInt(c.Query("weight"), 10, 64)
	if err != nil || weight < 0 {
		badRequest(c, "weight must be a non-negative integer of grams")
		return
	}

	cost, details, err := h.shipping.ByPincode(c.Request.Context(), pincode, weight)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"pincode":         pincode,
		"weightGrams":     weight,
		"shippingCost":    cost,
		"shippingDetails": details,
	}, "shipping quote")
}
