package gateway

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/order"
)

const headerIdempotencyKey = "Idempotency-Key"

type addRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	UnitID    uint            `json:"unit_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type addAutoRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

type barcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

type editUnitRequest struct {
	CartID uint `json:"cart_id" binding:"required"`
	UnitID uint `json:"unit_id" binding:"required"`
}

type lineRequest struct {
	CartID uint `json:"cart_id" binding:"required"`
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req addRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.AddLine(c.Request.Context(), principal(c).UserID, req.ProductID, req.UnitID, req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Item added to cart", line)
}

func (g *Gateway) addAuto(c *gin.Context) {
	var req addAutoRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.AddAuto(c.Request.Context(), principal(c).UserID, req.ProductID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Item added to cart", line)
}

func (g *Gateway) addByBarcode(c *gin.Context) {
	var req barcodeRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.AddByBarcode(c.Request.Context(), principal(c).UserID, req.Barcode)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Item added to cart", line)
}

func (g *Gateway) editUnit(c *gin.Context) {
	var req editUnitRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.ChangeUnit(c.Request.Context(), principal(c).UserID, req.CartID, req.UnitID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Cart unit updated", line)
}

func (g *Gateway) fetchCart(c *gin.Context) {
	var addressID *uint
	if raw := c.Query("address_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			g.fail(c, apperr.Validation("Invalid address_id"))
			return
		}
		v := uint(id)
		addressID = &v
	}

	view, err := g.services.Cart.Fetch(c.Request.Context(), principal(c).UserID, addressID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Cart fetched", view)
}

func (g *Gateway) cartCount(c *gin.Context) {
	count, err := g.services.Cart.Count(c.Request.Context(), principal(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Cart count fetched", count)
}

func (g *Gateway) increaseQuantity(c *gin.Context) {
	var req lineRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.Increase(c.Request.Context(), principal(c).UserID, req.CartID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Quantity increased", line)
}

func (g *Gateway) decreaseQuantity(c *gin.Context) {
	var req lineRequest
	if !g.bind(c, &req) {
		return
	}
	line, err := g.services.Cart.Decrease(c.Request.Context(), principal(c).UserID, req.CartID)
	if err != nil {
		g.fail(c, err)
		return
	}
	if line == nil {
		ok(c, "Item removed from cart", nil)
		return
	}
	ok(c, "Quantity decreased", line)
}

func (g *Gateway) removeLine(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	if err := g.services.Cart.Remove(c.Request.Context(), principal(c).UserID, id); err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Item removed from cart", nil)
}

func (g *Gateway) placeOrder(c *gin.Context) {
	var req order.PlaceRequest
	if !g.bind(c, &req) {
		return
	}
	receipt, err := g.services.Orders.PlaceOrder(c.Request.Context(), principal(c).UserID, req, c.GetHeader(headerIdempotencyKey))
	if err != nil {
		g.fail(c, err)
		return
	}
	created(c, "Order placed successfully", receipt)
}
