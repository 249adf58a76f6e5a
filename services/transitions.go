package services

import "github.com/ponto-de-fuga/restaurant-api/models"

// TableAction names a waiter or customer action on a table session.
type TableAction string

const (
	ActionOpen        TableAction = "open"
	ActionAddOrder    TableAction = "add_order"
	ActionRequestBill TableAction = "request_bill"
	ActionConsent     TableAction = "consent"
	ActionClose       TableAction = "close"
)

var tableTransitions = map[TableAction][]models.TableStatus{
	ActionOpen:        {models.TableAvailable},
	ActionAddOrder:    {models.TableOccupied},
	ActionRequestBill: {models.TableOccupied, models.TableWaitingPayment, models.TableClosed},
	ActionConsent:     {models.TableOccupied, models.TableWaitingPayment},
	ActionClose:       {models.TableOccupied, models.TableWaitingPayment},
}

// Actions missing here leave the status unchanged.
var tableTargets = map[TableAction]models.TableStatus{
	ActionOpen:    models.TableOccupied,
	ActionConsent: models.TableWaitingPayment,
	ActionClose:   models.TableClosed,
}

// ValidTableTransition reports whether action may be applied to a table in from.
func ValidTableTransition(action TableAction, from models.TableStatus) bool {
	for _, status := range tableTransitions[action] {
		if status == from {
			return true
		}
	}
	return false
}

// NextTableStatus returns the state a table moves to when action is applied.
func NextTableStatus(action TableAction, from models.TableStatus) (models.TableStatus, error) {
	if !ValidTableTransition(action, from) {
		return from, Errorf(ErrInvalidTransition, "cannot %s a table that is %s", action, from)
	}
	if to, ok := tableTargets[action]; ok {
		return to, nil
	}
	return from, nil
}

// OrderAction names a kitchen or waiter action on an order line.
type OrderAction string

const (
	ActionStart    OrderAction = "start"
	ActionComplete OrderAction = "complete"
	ActionDeliver  OrderAction = "deliver"
)

var orderTransitions = map[OrderAction][]models.OrderStatus{
	ActionStart:    {models.OrderPending},
	ActionComplete: {models.OrderPending, models.OrderPreparing},
	ActionDeliver:  {models.OrderReady},
}

var orderTargets = map[OrderAction]models.OrderStatus{
	ActionStart:    models.OrderPreparing,
	ActionComplete: models.OrderReady,
	ActionDeliver:  models.OrderDelivered,
}

// ValidOrderTransition reports whether action may be applied to an order in from.
func ValidOrderTransition(action OrderAction, from models.OrderStatus) bool {
	for _, status := range orderTransitions[action] {
		if status == from {
			return true
		}
	}
	return false
}

// NextOrderStatus returns the state an order moves to when action is applied.
func NextOrderStatus(action OrderAction, from models.OrderStatus) (models.OrderStatus, error) {
	if !ValidOrderTransition(action, from) {
		return from, Errorf(ErrInvalidTransition, "cannot %s an order that is %s", action, from)
	}
	return orderTargets[action], nil
}
