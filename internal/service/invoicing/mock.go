// Package invoicing содержит адаптер сервиса выставления счетов.
package invoicing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// MockService: конфигурируемая заглушка Invoicer для локального запуска и тестов.
type MockService struct {
	mu sync.Mutex

	BaseURL string
	Err     error

	Calls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService(baseURL string) *MockService {
	if baseURL == "" {
		baseURL = "https://invoices.local"
	}
	return &MockService{BaseURL: strings.TrimRight(baseURL, "/")}
}

// IssueInvoice возвращает ссылку на счёт или заранее настроенную ошибку.
func (m *MockService) IssueInvoice(ctx context.Context, req domain.InvoiceRequest) (domain.InvoiceReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if err := ctx.Err(); err != nil {
		return domain.InvoiceReference{}, err
	}
	if m.Err != nil {
		return domain.InvoiceReference{}, fmt.Errorf("%w: %v", domain.ErrInvoicingUnavailable, m.Err)
	}

	id := uuid.NewString()
	return domain.InvoiceReference{
		ID:  id,
		URL: fmt.Sprintf("%s/%s/%s.pdf", m.BaseURL, req.OrderNumber, id),
	}, nil
}

// CallCount возвращает количество вызовов.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

var _ domain.Invoicer = (*MockService)(nil)
