package order

import (
	"strings"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/models"
)

// rank orders the forward path; cancelled sits outside it.
var rank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

func ParseStatus(s string) (models.OrderStatus, error) {
	st := models.OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rank[st]; ok || st == models.OrderStatusCancelled {
		return st, nil
	}
	return "", apperr.Validationf("Invalid order status %q", s)
}

// CanTransition reports whether an order in from may move to to. Terminal
// orders never move; otherwise the move must go forward or be a
// cancellation.
func CanTransition(from, to models.OrderStatus) error {
	if from.Terminal() {
		return apperr.New(apperr.KindOrderAlreadyFinalized, apperr.MsgOrderFinalized)
	}
	if to == models.OrderStatusCancelled {
		return nil
	}
	next, ok := rank[to]
	if !ok {
		return apperr.Validationf("Invalid order status %q", to)
	}
	if next <= rank[from] {
		return apperr.Validationf("Order cannot move from %s to %s", from, to)
	}
	return nil
}
