package gateway

import (
	"github.com/gin-gonic/gin"
)

func (g *Gateway) getProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	p, err := g.services.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Product fetched", p)
}

func (g *Gateway) getProductByBarcode(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := g.services.Catalog.ResolveBarcode(ctx, c.Param("code"))
	if err != nil {
		g.fail(c, err)
		return
	}
	p, err := g.services.Catalog.GetProduct(ctx, id)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Product fetched", p)
}
