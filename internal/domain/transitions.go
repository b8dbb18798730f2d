package domain

import (
	"github.com/jafarshop/marketapi/pkg/errors"
)

// forwardSequence is the admin-visible order timeline. Cancelled sits outside
// the sequence and is reachable from any non-terminal status.
var forwardSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
}

// sellerSequence is the narrower timeline a seller may walk, one step at a
// time, after the admin has verified payment.
var sellerSequence = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
}

func indexOf(seq []OrderStatus, s OrderStatus) int {
	for i, v := range seq {
		if v == s {
			return i
		}
	}
	return -1
}

func deny(from, to OrderStatus, reason string) error {
	return &errors.ErrInvalidTransition{From: string(from), To: string(to), Reason: reason}
}

// DecideAdminTransition validates an admin-requested status change.
// Returns nil when the transition (or no-op) is allowed. Admins may jump
// forward any number of steps and may cancel any non-terminal order, but can
// never move backward or touch a terminal order.
func DecideAdminTransition(current, requested OrderStatus) error {
	if requested == "" || !requested.IsValid() {
		return deny(current, requested, "Invalid order status")
	}
	if requested == current {
		return nil
	}
	if current.IsTerminal() {
		return deny(current, requested, "Completed or cancelled orders are locked")
	}
	if requested == OrderStatusCancelled {
		return nil
	}

	currentPos := indexOf(forwardSequence, current)
	requestedPos := indexOf(forwardSequence, requested)
	if currentPos < 0 {
		return deny(current, requested, "Order is not on the fulfillment timeline")
	}
	if requestedPos < currentPos {
		return deny(current, requested, "Cannot move backward in the order timeline")
	}
	return nil
}

// DecideSellerTransition validates a seller-requested shared status change.
// Sellers are confined to processing -> shipped -> completed, strictly one
// step at a time, plus the paid -> processing release step. Every path is
// gated on the admin-side payment verification flag.
func DecideSellerTransition(current, requested OrderStatus, paymentVerified bool) error {
	if requested == "" || !requested.IsValid() {
		return deny(current, requested, "Invalid order status")
	}
	if indexOf(sellerSequence, requested) < 0 {
		return deny(current, requested, "Sellers may only set processing, shipped or completed")
	}
	if !paymentVerified {
		return deny(current, requested, "admin must verify payment first")
	}
	if current.IsTerminal() {
		return deny(current, requested, "Completed or cancelled orders are locked")
	}
	if current == OrderStatusPaid && requested == OrderStatusProcessing {
		return nil
	}

	currentPos := indexOf(sellerSequence, current)
	if currentPos < 0 {
		return deny(current, requested, "Order has not been released for fulfillment")
	}
	if requested == current {
		return nil
	}
	requestedPos := indexOf(sellerSequence, requested)
	if requestedPos < currentPos {
		return deny(current, requested, "Cannot move backward in the order timeline")
	}
	if requestedPos > currentPos+1 {
		return deny(current, requested, "must ship before marking delivered")
	}
	return nil
}
