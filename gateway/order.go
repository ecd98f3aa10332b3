package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/order"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (g *Gateway) listOrders(c *gin.Context) {
	page, err := g.services.Orders.ListOrders(c.Request.Context(), principal(c).UserID,
		queryInt(c, "page", 1), queryInt(c, "page_size", 0))
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Orders fetched", page)
}

func (g *Gateway) orderDetails(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	p := principal(c)
	o, err := g.services.Orders.OrderDetails(c.Request.Context(), p.UserID, p.IsStaff(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Order fetched", o)
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	o, err := g.services.Orders.CancelOrder(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Order cancelled", o)
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	var req order.TransitionRequest
	if !g.bind(c, &req) {
		return
	}
	o, err := g.services.Orders.TransitionStatus(c.Request.Context(), principal(c).UserID, id, req)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Order status updated", o)
}

func (g *Gateway) placeCounterOrder(c *gin.Context) {
	var req order.CounterRequest
	if !g.bind(c, &req) {
		return
	}
	receipt, err := g.services.Orders.PlaceCounterOrder(c.Request.Context(), principal(c).UserID, req)
	if err != nil {
		g.fail(c, err)
		return
	}
	created(c, "Counter order placed", receipt)
}

func (g *Gateway) adminOrders(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	page, err := g.services.Orders.ListAllOrders(c.Request.Context(), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	ok(c, "Orders fetched", page)
}

func (g *Gateway) exportOrders(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	data, err := g.services.Orders.ExportOrders(c.Request.Context(), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (g *Gateway) orderAudit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	if g.services.Trail == nil {
		ok(c, "Audit trail unavailable", []interface{}{})
		return
	}
	trail, err := g.services.Trail.OrderTrail(c.Request.Context(), id, int64(queryInt(c, "limit", 50)))
	if err != nil {
		g.fail(c, apperr.Internal(err))
		return
	}
	ok(c, "Audit trail fetched", trail)
}

// parseFilter reads status, user_id, from, to, page and page_size. Dates
// are YYYY-MM-DD or RFC 3339; a bare "to" date includes that whole day.
func parseFilter(c *gin.Context) (order.Filter, error) {
	f := order.Filter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}

	if raw := c.Query("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, apperr.Validation("Invalid user_id")
		}
		uid := uint(id)
		f.UserID = &uid
	}
	if raw := c.Query("from"); raw != "" {
		t, _, err := parseTime(raw)
		if err != nil {
			return f, apperr.Validation("Invalid from date")
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, dateOnly, err := parseTime(raw)
		if err != nil {
			return f, apperr.Validation("Invalid to date")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, apperr.Validation("from must be before to")
	}
	return f, nil
}

func parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t.UTC(), false, err
}
