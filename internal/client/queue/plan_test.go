package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/models"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		wantType   string
		wantEntity string
		wantHigh   bool
	}{
		{
			name:     "create order",
			method:   "POST",
			endpoint: "/api/orders",
			wantType: models.OpTypeCreateOrder,
			wantHigh: true,
		},
		{
			name:       "update order status",
			method:     "PUT",
			endpoint:   "/api/orders/ord-1/status",
			wantType:   models.OpTypeUpdateOrderStatus,
			wantEntity: "ord-1",
		},
		{
			name:       "update order status via patch",
			method:     "PATCH",
			endpoint:   "/api/orders/ord-1/status",
			wantType:   models.OpTypeUpdateOrderStatus,
			wantEntity: "ord-1",
		},
		{
			name:       "mark as paid",
			method:     "POST",
			endpoint:   "/api/orders/ord-2/payment",
			wantType:   models.OpTypeMarkAsPaid,
			wantEntity: "ord-2",
		},
		{
			name:       "cancel order",
			method:     "POST",
			endpoint:   "/api/orders/ord-3/cancel",
			wantType:   models.OpTypeCancelOrder,
			wantEntity: "ord-3",
			wantHigh:   true,
		},
		{
			name:     "create customer",
			method:   "POST",
			endpoint: "/api/customers",
			wantType: models.OpTypeCreateCustomer,
		},
		{
			name:       "create address",
			method:     "POST",
			endpoint:   "/api/customers/cust-1/addresses",
			wantType:   models.OpTypeCreateAddress,
			wantEntity: "cust-1",
		},
		{
			name:       "delete address",
			method:     "DELETE",
			endpoint:   "/api/customers/cust-1/addresses/addr-2",
			wantType:   models.OpTypeDeleteAddress,
			wantEntity: "addr-2",
		},
		{
			name:     "create expense",
			method:   "POST",
			endpoint: "/api/expenses",
			wantType: models.OpTypeCreateExpense,
		},
		{
			name:       "query string ignored",
			method:     "PUT",
			endpoint:   "/api/orders/ord-4/status?notify=1",
			wantType:   models.OpTypeUpdateOrderStatus,
			wantEntity: "ord-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := Plan(tt.method, tt.endpoint, []byte(`{}`))
			require.True(t, ok)
			assert.Equal(t, tt.wantType, op.Type)
			assert.Equal(t, tt.wantEntity, op.EntityID)
			assert.Equal(t, tt.endpoint, op.Endpoint)
			if tt.wantHigh {
				assert.Equal(t, PriorityHigh, op.Priority)
			} else {
				assert.Equal(t, PriorityNormal, op.Priority)
			}
		})
	}
}

func TestPlan_Unrecognized(t *testing.T) {
	tests := []struct {
		method   string
		endpoint string
	}{
		{"POST", "/api/riders"},
		{"DELETE", "/api/orders/ord-1"},
		{"PUT", "/api/orders"},
		{"POST", "/api/orders/ord-1/unknown"},
		{"GET", "/api/orders"},
	}

	for _, tt := range tests {
		_, ok := Plan(tt.method, tt.endpoint, nil)
		assert.False(t, ok, "%s %s", tt.method, tt.endpoint)
	}
}
