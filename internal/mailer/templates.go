package mailer

import (
	"fmt"

	"github.com/jafarshop/marketapi/internal/domain"
)

// statusLines maps order statuses to the buyer-facing update sentence
var statusLines = map[domain.OrderStatus]string{
	domain.OrderStatusPaid:       "Your payment has been received.",
	domain.OrderStatusProcessing: "Your order is being prepared by the seller.",
	domain.OrderStatusShipped:    "Your order is on its way.",
	domain.OrderStatusCompleted:  "Your order has been delivered. Thank you for shopping with us!",
	domain.OrderStatusCancelled:  "Your order has been cancelled. If you already paid, a refund will follow.",
}

// OrderConfirmation builds the order-created email
func OrderConfirmation(order *domain.Order) (subject, html string) {
	subject = fmt.Sprintf("Order confirmation #%s", shortID(order))
	html = fmt.Sprintf(
		"<h2>Thanks for your order!</h2>"+
			"<p>We received your order of %d item(s).</p>"+
			"<p><strong>Total: %s</strong></p>"+
			"<p>We will email you again when the order status changes.</p>",
		len(order.Items), order.Total.StringFixed(2),
	)
	return subject, html
}

// OrderStatusUpdate builds the status-change email. Returns empty strings
// for statuses that do not warrant an email.
func OrderStatusUpdate(order *domain.Order) (subject, html string) {
	line, ok := statusLines[order.Status]
	if !ok {
		return "", ""
	}
	subject = fmt.Sprintf("Order #%s update: %s", shortID(order), order.Status)
	html = fmt.Sprintf("<h2>Order update</h2><p>%s</p>", line)
	return subject, html
}

// PaymentVerified builds the payment-verification email
func PaymentVerified(order *domain.Order) (subject, html string) {
	subject = fmt.Sprintf("Payment verified for order #%s", shortID(order))
	html = "<h2>Payment verified</h2>" +
		"<p>Your payment has been verified and your order has been released for fulfillment.</p>"
	return subject, html
}

// disputeLines maps the dispute update kind to the buyer-facing sentence
var disputeLines = map[string]string{
	"accepted": "Your dispute has been accepted. Our team will process the resolution shortly.",
	"rejected": "After review, your dispute has been rejected.",
	"resolved": "Your dispute has been resolved.",
	"message":  "There is a new message on your dispute.",
}

// DisputeUpdate builds the dispute-update email keyed by transition kind
// (accepted, rejected, resolved, message).
func DisputeUpdate(kind string, dispute *domain.Dispute) (subject, html string) {
	line, ok := disputeLines[kind]
	if !ok {
		return "", ""
	}
	subject = fmt.Sprintf("Dispute update: %s", dispute.Reason)
	html = fmt.Sprintf("<h2>Dispute update</h2><p>%s</p>", line)
	if kind != "message" && dispute.Resolution != "" {
		html += fmt.Sprintf("<p>Resolution: %s</p>", dispute.Resolution)
	}
	return subject, html
}

// shortID keeps email subjects readable; the full uuid stays in links
func shortID(order *domain.Order) string {
	s := order.ID.String()
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}
