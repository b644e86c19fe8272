// Package courier содержит адаптер курьерской службы. Реальный HTTP-клиент не входит
// в ядро; MockService используется локально и в тестах.
package courier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// MockService: конфигурируемая заглушка курьерской службы.
type MockService struct {
	mu sync.Mutex

	Carrier string
	Err     error

	Calls    int
	Requests []domain.ShipmentRequest
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{Carrier: domain.DefaultCarrier}
}

// CreateShipment возвращает заранее настроенную ошибку или выдуманный AWB и считает вызовы.
func (m *MockService) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.Requests = append(m.Requests, req)
	if err := ctx.Err(); err != nil {
		return domain.Shipment{}, err
	}
	if m.Err != nil {
		return domain.Shipment{}, fmt.Errorf("%w: %v", domain.ErrCourierUnavailable, m.Err)
	}

	awb := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return domain.Shipment{AWBNumber: awb, Carrier: m.Carrier}, nil
}

// CallCount возвращает количество вызовов.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

var _ domain.Courier = (*MockService)(nil)
