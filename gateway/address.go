package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/example/shoppurs/pkg/address"
)

func (g *Gateway) listAddresses(c *gin.Context) {
	list, err := g.services.Addresses.List(c.Request.Context(), principal(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Addresses fetched", list)
}

func (g *Gateway) createAddress(c *gin.Context) {
	var req address.CreateRequest
	if !g.bind(c, &req) {
		return
	}
	addr, err := g.services.Addresses.Create(c.Request.Context(), principal(c).UserID, req)
	if err != nil {
		g.fail(c, err)
		return
	}
	created(c, "Address saved", addr)
}

func (g *Gateway) setDefaultAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	addr, err := g.services.Addresses.SetDefault(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Default address updated", addr)
}

func (g *Gateway) deleteAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	if err := g.services.Addresses.Delete(c.Request.Context(), principal(c).UserID, id); err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Address deleted", nil)
}
