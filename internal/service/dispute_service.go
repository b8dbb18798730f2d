package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/mailer"
	"github.com/jafarshop/marketapi/internal/repository"
	"github.com/jafarshop/marketapi/pkg/errors"
)

// DisputeService drives the dispute sub-machine attached to an order
type DisputeService struct {
	repos      *repository.Repositories
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewDisputeService creates a new dispute service
func NewDisputeService(repos *repository.Repositories, dispatcher *Dispatcher, logger *zap.Logger) *DisputeService {
	return &DisputeService{
		repos:      repos,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateDispute opens the single dispute allowed per order. The seller is
// auto-assigned only when all implicated items resolve to exactly one
// distinct seller.
func (s *DisputeService) CreateDispute(ctx context.Context, buyerID uuid.UUID, req CreateDisputeRequest) (*domain.Dispute, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid order id %q", req.OrderID)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, &errors.ErrForbidden{Message: "This order belongs to another buyer"}
	}
	if order.Status == domain.OrderStatusCompleted {
		return nil, &errors.ErrInvalidInput{Message: "Disputes cannot be opened for completed orders"}
	}

	if _, err := s.repos.Dispute.GetByOrderID(ctx, orderID); err == nil {
		return nil, &errors.ErrConflict{Resource: "dispute", Message: "A dispute already exists for this order"}
	} else if _, ok := err.(*errors.ErrNotFound); !ok {
		return nil, &errors.ErrDependency{Op: "check existing dispute", Err: err}
	}

	now := time.Now()
	attachments := toAttachments(req.Attachments, buyerID, now)

	dispute := &domain.Dispute{
		ID:          uuid.New(),
		OrderID:     orderID,
		BuyerID:     buyerID,
		SellerID:    domain.SoleSellerID(order.Items),
		Reason:      req.Reason,
		Details:     req.Details,
		Status:      domain.DisputeStatusOpen,
		Attachments: attachments,
	}

	body := req.Details
	if body == "" {
		body = req.Reason
	}
	if body != "" || len(attachments) > 0 {
		dispute.Messages = []domain.Message{{
			Sender:      domain.SenderBuyer,
			Body:        body,
			Attachments: attachments,
			CreatedAt:   now,
		}}
	}

	if err := s.repos.Dispute.Create(ctx, dispute); err != nil {
		if _, ok := err.(*errors.ErrConflict); ok {
			return nil, err
		}
		return nil, &errors.ErrDependency{Op: "create dispute", Err: err}
	}

	s.dispatcher.Dispatch(ctx, []Effect{
		NotifyAdmins{Payload: NotificationPayload{
			Type:     "dispute:new",
			Title:    "New dispute opened",
			Body:     fmt.Sprintf("A buyer opened a dispute: %s", req.Reason),
			Link:     "/admin/disputes/" + dispute.ID.String(),
			Severity: domain.SeverityWarning,
		}},
	})

	return dispute, nil
}

// AppendBuyerMessage adds a buyer message to the dispute on the given
// order. Disputes the buyer does not own are reported as not found.
func (s *DisputeService) AppendBuyerMessage(ctx context.Context, buyerID, orderID uuid.UUID, req DisputeMessageRequest) (*domain.Dispute, error) {
	dispute, err := s.repos.Dispute.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if dispute.BuyerID != buyerID {
		return nil, &errors.ErrNotFound{Resource: "dispute", ID: orderID.String()}
	}

	if req.Body == "" && len(req.Attachments) == 0 {
		return nil, &errors.ErrInvalidInput{Message: "A message body or attachment is required"}
	}

	now := time.Now()
	attachments := toAttachments(req.Attachments, buyerID, now)

	dispute.Messages = append(dispute.Messages, domain.Message{
		Sender:      domain.SenderBuyer,
		Body:        req.Body,
		Attachments: attachments,
		CreatedAt:   now,
	})
	dispute.Attachments = append(dispute.Attachments, attachments...)

	if err := s.repos.Dispute.Update(ctx, dispute); err != nil {
		return nil, &errors.ErrDependency{Op: "update dispute", Err: err}
	}

	s.dispatcher.Dispatch(ctx, []Effect{
		NotifyAdmins{Payload: NotificationPayload{
			Type:     "dispute:message",
			Title:    "New dispute message",
			Body:     "A buyer added a message to an open dispute.",
			Link:     "/admin/disputes/" + dispute.ID.String(),
			Severity: domain.SeverityInfo,
		}},
	})

	return dispute, nil
}

// AdminUpdateDispute applies an admin-side update: optional status change,
// resolution/notes, and an optional admin message. The buyer and every
// implicated seller are always notified.
func (s *DisputeService) AdminUpdateDispute(ctx context.Context, disputeID uuid.UUID, adminID uuid.UUID, req AdminDisputeUpdateRequest) (*domain.Dispute, error) {
	dispute, err := s.repos.Dispute.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if req.Status != nil {
		status := domain.DisputeStatus(*req.Status)
		if !status.IsValid() {
			return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid dispute status %q", *req.Status)}
		}
		statusChanged = status != dispute.Status
		dispute.Status = status
	}
	if req.Resolution != nil {
		dispute.Resolution = *req.Resolution
	}
	if req.AdminNotes != nil {
		dispute.AdminNotes = *req.AdminNotes
	}

	now := time.Now()
	attachments := toAttachments(req.Attachments, adminID, now)
	if req.Message != "" || len(attachments) > 0 {
		dispute.Messages = append(dispute.Messages, domain.Message{
			Sender:      domain.SenderAdmin,
			Body:        req.Message,
			Attachments: attachments,
			CreatedAt:   now,
		})
		dispute.Attachments = append(dispute.Attachments, attachments...)
	}

	if err := s.repos.Dispute.Update(ctx, dispute); err != nil {
		return nil, &errors.ErrDependency{Op: "update dispute", Err: err}
	}

	buyerTitle := "New message on your dispute"
	if statusChanged {
		buyerTitle = fmt.Sprintf("Dispute %s", dispute.Status)
	}

	effects := []Effect{
		Notify{Recipients: []uuid.UUID{dispute.BuyerID}, Payload: NotificationPayload{
			Type:     "dispute:update",
			Title:    buyerTitle,
			Body:     fmt.Sprintf("Your dispute %q has an update.", dispute.Reason),
			Link:     "/disputes/" + dispute.ID.String(),
			Severity: disputeSeverity(dispute.Status, statusChanged),
		}},
		Notify{Recipients: s.resolveSellers(ctx, dispute), Payload: NotificationPayload{
			Type:     "dispute:update-seller",
			Title:    buyerTitle,
			Body:     "A dispute involving your items has an update.",
			Link:     "/seller/disputes/" + dispute.ID.String(),
			Severity: disputeSeverity(dispute.Status, statusChanged),
		}},
	}

	kind := "message"
	if statusChanged {
		kind = string(dispute.Status)
	}
	if email := s.buyerEmail(ctx, dispute.BuyerID); email != "" {
		if subject, html := mailer.DisputeUpdate(kind, dispute); subject != "" {
			effects = append(effects, SendEmail{To: email, Subject: subject, HTML: html})
		}
	}
	s.dispatcher.Dispatch(ctx, effects)

	return dispute, nil
}

// GetBuyerDispute returns the dispute on the buyer's order
func (s *DisputeService) GetBuyerDispute(ctx context.Context, buyerID, orderID uuid.UUID) (*domain.Dispute, error) {
	dispute, err := s.repos.Dispute.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if dispute.BuyerID != buyerID {
		return nil, &errors.ErrNotFound{Resource: "dispute", ID: orderID.String()}
	}
	return dispute, nil
}

// AdminGetDispute returns any dispute by id
func (s *DisputeService) AdminGetDispute(ctx context.Context, disputeID uuid.UUID) (*domain.Dispute, error) {
	return s.repos.Dispute.GetByID(ctx, disputeID)
}

// AdminListDisputes returns disputes filtered by status
func (s *DisputeService) AdminListDisputes(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	if !status.IsValid() {
		return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid dispute status %q", status)}
	}
	return s.repos.Dispute.ListByStatus(ctx, status, clampLimit(limit), clampOffset(offset))
}

// resolveSellers derives the seller recipients from the parent order's
// items, falling back to the dispute's assigned seller when the order
// cannot be loaded.
func (s *DisputeService) resolveSellers(ctx context.Context, dispute *domain.Dispute) []uuid.UUID {
	order, err := s.repos.Order.GetByID(ctx, dispute.OrderID)
	if err != nil {
		s.logger.Warn("Failed to resolve dispute sellers from order",
			zap.String("order_id", dispute.OrderID.String()),
			zap.Error(err),
		)
		if dispute.SellerID != nil {
			return []uuid.UUID{*dispute.SellerID}
		}
		return nil
	}
	return domain.SellerIDs(order.Items)
}

func (s *DisputeService) buyerEmail(ctx context.Context, buyerID uuid.UUID) string {
	user, err := s.repos.User.GetByID(ctx, buyerID)
	if err != nil {
		s.logger.Warn("Failed to resolve buyer email", zap.String("buyer_id", buyerID.String()), zap.Error(err))
		return ""
	}
	return user.Email
}

func toAttachments(reqs []AttachmentRequest, uploadedBy uuid.UUID, at time.Time) []domain.Attachment {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(reqs))
	for _, a := range reqs {
		out = append(out, domain.Attachment{
			URL:        a.URL,
			UploadedBy: uploadedBy.String(),
			CreatedAt:  at,
		})
	}
	return out
}

func disputeSeverity(status domain.DisputeStatus, statusChanged bool) domain.Severity {
	if !statusChanged {
		return domain.SeverityInfo
	}
	switch status {
	case domain.DisputeStatusAccepted, domain.DisputeStatusResolved:
		return domain.SeveritySuccess
	case domain.DisputeStatusRejected:
		return domain.SeverityDanger
	default:
		return domain.SeverityInfo
	}
}
