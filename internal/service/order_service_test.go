package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/service"
	"github.com/jafarshop/marketapi/pkg/errors"
)

func checkoutRequest(items ...service.OrderItemRequest) service.CreateOrderRequest {
	return service.CreateOrderRequest{
		Items:           items,
		ShippingAddress: map[string]interface{}{"city": "Amman"},
		PaymentMethod:   "bank_transfer",
	}
}

func TestCreateOrder_Totals(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "100.00", 10)

	order, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "100.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", order.Tax.StringFixed(2))
	assert.Equal(t, "0.00", order.Shipping.StringFixed(2))
	assert.Equal(t, "110.00", order.Total.StringFixed(2))

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "10.00", item.CommissionAmount.StringFixed(2))
	assert.Equal(t, "90.00", item.SellerEarnings.StringFixed(2))
	require.NotNil(t, item.SellerID)
	assert.Equal(t, seller.ID, *item.SellerID)
	assert.Equal(t, domain.ShippingStatusPending, item.ShippingStatus)
}

func TestCreateOrder_DecrementsStock(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "5.00", 3)

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 1, product.Stock)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "5.00", 1)

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 2}))
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidInput{}, err)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestCreateOrder_FailedCheckoutLeavesStockUntouched(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	first := env.addProduct(&seller.ID, "10.00", 5)
	second := env.addProduct(&seller.ID, "10.00", 0)

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(
			service.OrderItemRequest{ProductID: first.ID.String(), Quantity: 2},
			service.OrderItemRequest{ProductID: second.ID.String(), Quantity: 1},
		))
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidInput{}, err)
	assert.Equal(t, 5, first.Stock)
	assert.Equal(t, 0, second.Stock)
}

func TestCreateOrder_LaterInvalidItemLeavesStockUntouched(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	first := env.addProduct(&seller.ID, "10.00", 5)
	inactive := env.addProduct(&seller.ID, "10.00", 5)
	inactive.IsActive = false

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(
			service.OrderItemRequest{ProductID: first.ID.String(), Quantity: 2},
			service.OrderItemRequest{ProductID: inactive.ID.String(), Quantity: 1},
		))
	require.Error(t, err)
	assert.Equal(t, 5, first.Stock)
}

func TestCreateOrder_InactiveProduct(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "5.00", 10)
	product.IsActive = false

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 1}))
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidInput{}, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: uuid.NewString(), Quantity: 1}))
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidInput{}, err)
}

func TestCreateOrder_ProductRateOverridesDefault(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "100.00", 10)
	product.CommissionRate = mustDecimal("0.25")

	order, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "25.00", order.Items[0].CommissionAmount.StringFixed(2))
	assert.Equal(t, "75.00", order.Items[0].SellerEarnings.StringFixed(2))
}

func TestCreateOrder_RecordsAuditEvent(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	product := env.addProduct(&seller.ID, "10.00", 5)

	_, err := env.orders.CreateOrder(context.Background(), buyer.ID,
		checkoutRequest(service.OrderItemRequest{ProductID: product.ID.String(), Quantity: 1}))
	require.NoError(t, err)

	require.Len(t, env.events.events, 1)
	assert.Equal(t, "order_created", env.events.events[0].EventType)
}

func pendingOrder(env *testEnv, buyer *domain.User, sellerIDs ...uuid.UUID) *domain.Order {
	items := make([]domain.OrderItem, len(sellerIDs))
	for i := range sellerIDs {
		id := sellerIDs[i]
		items[i] = domain.OrderItem{
			ProductID:      uuid.New(),
			Name:           "item",
			UnitPrice:      mustDecimal("10.00"),
			Quantity:       1,
			SellerID:       &id,
			ShippingStatus: domain.ShippingStatusPending,
		}
	}
	return env.addOrder(&domain.Order{
		BuyerID: buyer.ID,
		Items:   items,
		Status:  domain.OrderStatusPending,
	})
}

func TestAdminSetStatus_FanOut(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	sellerA := env.addUser(domain.RoleSeller)
	sellerB := env.addUser(domain.RoleSeller)
	sellerC := env.addUser(domain.RoleSeller)
	order := pendingOrder(env, buyer, sellerA.ID, sellerB.ID, sellerA.ID)

	updated, err := env.orders.AdminSetStatus(context.Background(), order.ID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, updated.Status)

	// Exactly one notification for the buyer and one per distinct seller.
	assert.Len(t, env.notifications.forRecipient(buyer.ID), 1)
	assert.Len(t, env.notifications.forRecipient(sellerA.ID), 1)
	assert.Len(t, env.notifications.forRecipient(sellerB.ID), 1)
	assert.Empty(t, env.notifications.forRecipient(sellerC.ID))

	assert.Equal(t, "order:status", env.notifications.forRecipient(buyer.ID)[0].Type)
	assert.Equal(t, "order:status-admin", env.notifications.forRecipient(sellerA.ID)[0].Type)
}

func TestAdminSetStatus_SameStatusIsNoOp(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	order := pendingOrder(env, buyer, seller.ID)

	updated, err := env.orders.AdminSetStatus(context.Background(), order.ID, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)
	assert.Equal(t, 0, env.orderRepo.updateCalls, "a no-op must not persist")
	assert.Empty(t, env.notifications.rows, "a no-op must not notify")
}

func TestAdminSetStatus_InvalidTransition(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	order := pendingOrder(env, buyer, seller.ID)
	order.Status = domain.OrderStatusCompleted

	_, err := env.orders.AdminSetStatus(context.Background(), order.ID, domain.OrderStatusPaid)
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidTransition{}, err)
	assert.Equal(t, 0, env.orderRepo.updateCalls)
}

func TestAdminSetStatus_MarksPaymentVerified(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	order := pendingOrder(env, buyer, seller.ID)

	updated, err := env.orders.AdminSetStatus(context.Background(), order.ID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, updated.Payment.VerifiedByAdmin)
	require.NotNil(t, updated.Payment.VerifiedAt)
}

func TestAdminVerifyPayment(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)

	t.Run("releases a pending order to paid", func(t *testing.T) {
		order := pendingOrder(env, buyer, seller.ID)

		updated, err := env.orders.AdminVerifyPayment(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPaid, updated.Status)
		assert.True(t, updated.Payment.VerifiedByAdmin)
		require.NotNil(t, updated.Payment.VerifiedAt)
	})

	t.Run("verification timestamp is stamped once", func(t *testing.T) {
		order := pendingOrder(env, buyer, seller.ID)

		first, err := env.orders.AdminVerifyPayment(context.Background(), order.ID)
		require.NoError(t, err)
		stamp := *first.Payment.VerifiedAt

		second, err := env.orders.AdminVerifyPayment(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, stamp, *second.Payment.VerifiedAt)
	})

	t.Run("terminal orders are locked", func(t *testing.T) {
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusCancelled

		_, err := env.orders.AdminVerifyPayment(context.Background(), order.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Locked orders cannot be re-verified")
	})

	t.Run("shipped orders skip verification", func(t *testing.T) {
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusShipped

		_, err := env.orders.AdminVerifyPayment(context.Background(), order.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verification skipped")
	})
}

func TestSellerUpdateOrder(t *testing.T) {
	status := func(s domain.OrderStatus) *string {
		v := string(s)
		return &v
	}
	verified := func(v bool) *bool { return &v }

	t.Run("seller without items is rejected", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		other := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)

		_, err := env.orders.SellerUpdateOrder(context.Background(), other.ID, order.ID,
			service.SellerUpdateOrderRequest{PaymentVerified: verified(true)})
		require.Error(t, err)
		assert.IsType(t, &errors.ErrForbidden{}, err)
	})

	t.Run("multi-seller status change is rejected", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		sellerA := env.addUser(domain.RoleSeller)
		sellerB := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, sellerA.ID, sellerB.ID)
		order.Status = domain.OrderStatusPaid
		order.Payment.VerifiedByAdmin = true

		_, err := env.orders.SellerUpdateOrder(context.Background(), sellerA.ID, order.ID,
			service.SellerUpdateOrderRequest{Status: status(domain.OrderStatusProcessing)})
		require.Error(t, err)
		assert.IsType(t, &errors.ErrForbidden{}, err)
		assert.Contains(t, err.Error(), "multiple sellers")
	})

	t.Run("sole seller walks the timeline", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusPaid
		order.Payment.VerifiedByAdmin = true

		updated, err := env.orders.SellerUpdateOrder(context.Background(), seller.ID, order.ID,
			service.SellerUpdateOrderRequest{Status: status(domain.OrderStatusProcessing)})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	})

	t.Run("unverified payment blocks the seller", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusPaid

		_, err := env.orders.SellerUpdateOrder(context.Background(), seller.ID, order.ID,
			service.SellerUpdateOrderRequest{Status: status(domain.OrderStatusProcessing)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin must verify payment first")
	})

	t.Run("payment confirmation stamps once", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)

		first, err := env.orders.SellerUpdateOrder(context.Background(), seller.ID, order.ID,
			service.SellerUpdateOrderRequest{PaymentVerified: verified(true)})
		require.NoError(t, err)
		require.NotNil(t, first.Payment.SellerVerifiedAt)
		stamp := *first.Payment.SellerVerifiedAt

		second, err := env.orders.SellerUpdateOrder(context.Background(), seller.ID, order.ID,
			service.SellerUpdateOrderRequest{PaymentVerified: verified(true)})
		require.NoError(t, err)
		assert.Equal(t, stamp, *second.Payment.SellerVerifiedAt)
	})

	t.Run("status change does not fan out notifications", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusPaid
		order.Payment.VerifiedByAdmin = true

		_, err := env.orders.SellerUpdateOrder(context.Background(), seller.ID, order.ID,
			service.SellerUpdateOrderRequest{Status: status(domain.OrderStatusProcessing)})
		require.NoError(t, err)
		assert.Empty(t, env.notifications.rows)
	})
}

func TestSellerSetItemShipping(t *testing.T) {
	t.Run("marks the item shipped and stamps the time", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusProcessing
		productID := order.Items[0].ProductID

		updated, err := env.orders.SellerSetItemShipping(context.Background(), seller.ID, order.ID, productID, domain.ShippingStatusShipped)
		require.NoError(t, err)
		assert.Equal(t, domain.ShippingStatusShipped, updated.Items[0].ShippingStatus)
		require.NotNil(t, updated.Items[0].ShippedAt)
		assert.Equal(t, domain.OrderStatusProcessing, updated.Status, "shared status is untouched")
	})

	t.Run("another seller's item is forbidden", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		sellerA := env.addUser(domain.RoleSeller)
		sellerB := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, sellerA.ID, sellerB.ID)
		order.Status = domain.OrderStatusProcessing

		_, err := env.orders.SellerSetItemShipping(context.Background(), sellerB.ID, order.ID,
			order.Items[0].ProductID, domain.ShippingStatusShipped)
		require.Error(t, err)
		assert.IsType(t, &errors.ErrForbidden{}, err)
	})

	t.Run("unknown item", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusProcessing

		_, err := env.orders.SellerSetItemShipping(context.Background(), seller.ID, order.ID,
			uuid.New(), domain.ShippingStatusShipped)
		require.Error(t, err)
		assert.IsType(t, &errors.ErrNotFound{}, err)
	})

	t.Run("terminal order is locked", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)
		order.Status = domain.OrderStatusCompleted

		_, err := env.orders.SellerSetItemShipping(context.Background(), seller.ID, order.ID,
			order.Items[0].ProductID, domain.ShippingStatusDelivered)
		require.Error(t, err)
		assert.IsType(t, &errors.ErrInvalidTransition{}, err)
	})

	t.Run("invalid shipping status", func(t *testing.T) {
		env := newTestEnv()
		buyer := env.addUser(domain.RoleBuyer)
		seller := env.addUser(domain.RoleSeller)
		order := pendingOrder(env, buyer, seller.ID)

		_, err := env.orders.SellerSetItemShipping(context.Background(), seller.ID, order.ID,
			order.Items[0].ProductID, domain.ShippingStatus("lost"))
		require.Error(t, err)
		assert.IsType(t, &errors.ErrInvalidInput{}, err)
	})
}

func TestGetOrderForBuyer_HidesOtherBuyersOrders(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	other := env.addUser(domain.RoleBuyer)
	seller := env.addUser(domain.RoleSeller)
	order := pendingOrder(env, buyer, seller.ID)

	_, err := env.orders.GetOrderForBuyer(context.Background(), other.ID, order.ID)
	require.Error(t, err)
	assert.IsType(t, &errors.ErrNotFound{}, err)
}

func TestListSellerOrders_FiltersItems(t *testing.T) {
	env := newTestEnv()
	buyer := env.addUser(domain.RoleBuyer)
	sellerA := env.addUser(domain.RoleSeller)
	sellerB := env.addUser(domain.RoleSeller)
	pendingOrder(env, buyer, sellerA.ID, sellerB.ID)

	list, err := env.orders.ListSellerOrders(context.Background(), sellerA.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, sellerA.ID, *list[0].Items[0].SellerID)
}

func TestAdminListOrders_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv()

	_, err := env.orders.AdminListOrders(context.Background(), domain.OrderStatus("archived"), 50, 0)
	require.Error(t, err)
	assert.IsType(t, &errors.ErrInvalidInput{}, err)
}
