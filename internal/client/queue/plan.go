package queue

import (
	"net/http"
	"strings"

	"github.com/iudanet/possync/internal/models"
)

// Plan распознает по HTTP мутации доменную операцию, пригодную для
// отложенной отправки. Откладывать можно только распознанные мутации:
// у них известны идемпотентность, приоритет и локальные последствия.
// false - мутация не подлежит постановке в очередь.
func Plan(method, endpoint string, body []byte) (*models.PendingOperation, bool) {
	requestPath := endpoint
	if i := strings.IndexByte(requestPath, '?'); i >= 0 {
		requestPath = requestPath[:i]
	}
	segments := strings.Split(strings.Trim(requestPath, "/"), "/")
	method = strings.ToUpper(method)

	op := &models.PendingOperation{
		Method:   method,
		Endpoint: endpoint,
		Body:     body,
	}

	switch {
	case method == http.MethodPost && pathIs(segments, "api", "orders"):
		op.Type = models.OpTypeCreateOrder
		op.Priority = PriorityHigh

	case (method == http.MethodPut || method == http.MethodPatch) &&
		pathIs(segments, "api", "orders", "*", "status"):
		op.Type = models.OpTypeUpdateOrderStatus
		op.EntityID = segments[2]

	case method == http.MethodPost && pathIs(segments, "api", "orders", "*", "payment"):
		op.Type = models.OpTypeMarkAsPaid
		op.EntityID = segments[2]

	case method == http.MethodPost && pathIs(segments, "api", "orders", "*", "cancel"):
		op.Type = models.OpTypeCancelOrder
		op.EntityID = segments[2]
		op.Priority = PriorityHigh

	case method == http.MethodPost && pathIs(segments, "api", "customers"):
		op.Type = models.OpTypeCreateCustomer

	case method == http.MethodPost && pathIs(segments, "api", "customers", "*", "addresses"):
		op.Type = models.OpTypeCreateAddress
		op.EntityID = segments[2]

	case method == http.MethodDelete && pathIs(segments, "api", "customers", "*", "addresses", "*"):
		op.Type = models.OpTypeDeleteAddress
		op.EntityID = segments[4]

	case method == http.MethodPost && pathIs(segments, "api", "expenses"):
		op.Type = models.OpTypeCreateExpense

	default:
		return nil, false
	}

	return op, true
}

// pathIs сопоставляет сегменты пути с шаблоном, "*" - любой непустой сегмент
func pathIs(segments []string, pattern ...string) bool {
	if len(segments) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == "*" {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if segments[i] != p {
			return false
		}
	}
	return true
}
