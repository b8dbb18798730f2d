package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/config"
	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/mailer"
	"github.com/jafarshop/marketapi/internal/push"
	"github.com/jafarshop/marketapi/internal/repository"
	"github.com/jafarshop/marketapi/internal/service"
	"github.com/jafarshop/marketapi/pkg/errors"
)

// In-memory repository fakes. They keep the same error contract as the
// postgres implementations so the services under test cannot tell the
// difference.

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	return u, nil
}

func (r *fakeUserRepo) GetByExternalUID(_ context.Context, externalUID string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ExternalUID == externalUID {
			return u, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user", ID: externalUID}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) ListAdminIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, u := range r.users {
		if u.Role == domain.RoleAdmin {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return p, nil
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	p, ok := r.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *fakeProductRepo) RestoreStock(_ context.Context, id uuid.UUID, qty int) error {
	if p, ok := r.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*domain.Order
	updateCalls int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return o, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.Order) error {
	r.updateCalls++
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListBySeller(_ context.Context, sellerID uuid.UUID, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if len(o.ItemsForSeller(sellerID)) > 0 {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByStatus(_ context.Context, status domain.OrderStatus, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

type fakeDisputeRepo struct {
	disputes map[uuid.UUID]*domain.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: make(map[uuid.UUID]*domain.Dispute)}
}

func (r *fakeDisputeRepo) Create(_ context.Context, dispute *domain.Dispute) error {
	for _, d := range r.disputes {
		if d.OrderID == dispute.OrderID {
			return &errors.ErrConflict{Resource: "dispute", Message: "A dispute already exists for this order"}
		}
	}
	r.disputes[dispute.ID] = dispute
	return nil
}

func (r *fakeDisputeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Dispute, error) {
	d, ok := r.disputes[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "dispute", ID: id.String()}
	}
	return d, nil
}

func (r *fakeDisputeRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Dispute, error) {
	for _, d := range r.disputes {
		if d.OrderID == orderID {
			return d, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "dispute", ID: orderID.String()}
}

func (r *fakeDisputeRepo) Update(_ context.Context, dispute *domain.Dispute) error {
	r.disputes[dispute.ID] = dispute
	return nil
}

func (r *fakeDisputeRepo) ListByStatus(_ context.Context, status domain.DisputeStatus, _, _ int) ([]*domain.Dispute, error) {
	var out []*domain.Dispute
	for _, d := range r.disputes {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	rows []*domain.Notification
}

func (r *fakeNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	r.rows = append(r.rows, n)
	return nil
}

func (r *fakeNotificationRepo) InsertBatch(_ context.Context, ns []*domain.Notification) (int, error) {
	r.rows = append(r.rows, ns...)
	return len(ns), nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID, _, _ int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.rows {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, recipientID, id uuid.UUID) error {
	for _, n := range r.rows {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "notification", ID: id.String()}
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID uuid.UUID) error {
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			n.Read = true
		}
	}
	return nil
}

// forRecipient filters captured rows for assertions
func (r *fakeNotificationRepo) forRecipient(id uuid.UUID) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range r.rows {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

type fakeEventRepo struct {
	events []*domain.OrderEvent
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.OrderEvent) error {
	r.events = append(r.events, event)
	return nil
}

// testEnv wires the services over in-memory repos and a disabled mailer
type testEnv struct {
	users         *fakeUserRepo
	products      *fakeProductRepo
	orderRepo     *fakeOrderRepo
	disputeRepo   *fakeDisputeRepo
	notifications *fakeNotificationRepo
	events        *fakeEventRepo

	orders        *service.OrderService
	disputes      *service.DisputeService
	notifyService *service.NotificationService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:         newFakeUserRepo(),
		products:      newFakeProductRepo(),
		orderRepo:     newFakeOrderRepo(),
		disputeRepo:   newFakeDisputeRepo(),
		notifications: &fakeNotificationRepo{},
		events:        &fakeEventRepo{},
	}

	repos := &repository.Repositories{
		User:         env.users,
		Product:      env.products,
		Order:        env.orderRepo,
		Dispute:      env.disputeRepo,
		Notification: env.notifications,
		OrderEvent:   env.events,
	}

	logger := zap.NewNop()
	mail := mailer.NewClient(config.MailerConfig{}, logger)
	env.notifyService = service.NewNotificationService(repos, push.NoopEmitter{}, time.Minute, logger)
	dispatcher := service.NewDispatcher(env.notifyService, mail, logger)
	env.orders = service.NewOrderService(repos, dispatcher, 0.10, 0.10, logger)
	env.disputes = service.NewDisputeService(repos, dispatcher, logger)
	return env
}

func (env *testEnv) addUser(role domain.Role) *domain.User {
	u := &domain.User{
		ID:          uuid.New(),
		ExternalUID: uuid.NewString(),
		Email:       uuid.NewString() + "@example.com",
		Role:        role,
	}
	env.users.users[u.ID] = u
	return u
}

func (env *testEnv) addProduct(sellerID *uuid.UUID, price string, stock int) *domain.Product {
	p := &domain.Product{
		ID:       uuid.New(),
		SellerID: sellerID,
		Name:     "product-" + uuid.NewString()[:8],
		Price:    mustDecimal(price),
		Stock:    stock,
		IsActive: true,
	}
	env.products.products[p.ID] = p
	return p
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (env *testEnv) addOrder(o *domain.Order) *domain.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	env.orderRepo.orders[o.ID] = o
	return o
}
