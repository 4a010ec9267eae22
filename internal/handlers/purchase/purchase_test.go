package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/pkg/auth"
)

const key = "0b7f3c1e-5d2a-4c8e-9f61-2a3b4c5d6e7f"

var deliveredAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func NewMock(t *testing.T) (*PurchaseHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service, "MXN"), service
}

func withAccount(r *http.Request, id int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.AccountIDKey, id))
}

func TestPurchase(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		key           string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedRetry string
		check         func(t *testing.T, body []byte)
	}{
		{
			name: "Successful purchase",
			body: `{"sku":"DISNEY_1M"}`,
			key:  key,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Purchase(gomock.Any(), domain.PurchaseRequest{AccountID: 7, SKU: "DISNEY_1M", IdempotencyKey: key}).
					Return(&domain.Receipt{
						Order:        domain.Order{ID: "48213377120498716553", SKU: "DISNEY_1M", Price: 30000, DeliveredAt: deliveredAt},
						ProductName:  "Disney+ 1 month",
						Code:         "A1",
						BalanceAfter: 20000,
					}, nil)
			},
			expectedCode: http.StatusCreated,
			check: func(t *testing.T, body []byte) {
				var receipt dto.ReceiptResponseDTO
				require.NoError(t, json.Unmarshal(body, &receipt))
				assert.Equal(t, "A1", receipt.Code)
				assert.Equal(t, "48213377120498716553", receipt.OrderID)
				assert.Equal(t, int64(20000), receipt.BalanceAfter)
				assert.Equal(t, "$200.00 MXN", receipt.Display)
			},
		},
		{
			name: "No idempotency key",
			body: `{"sku":"DISNEY_1M"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Purchase(gomock.Any(), domain.PurchaseRequest{AccountID: 7, SKU: "DISNEY_1M"}).
					Return(&domain.Receipt{Order: domain.Order{ID: "1"}, Code: "A1"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Malformed idempotency key",
			body:         `{"sku":"DISNEY_1M"}`,
			key:          "not-a-uuid",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed body",
			body:         `{"sku":`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Insufficient balance",
			body: `{"sku":"DISNEY_1M"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientBalanceError{Balance: 20000, Price: 30000})
			},
			expectedCode: http.StatusPaymentRequired,
			check: func(t *testing.T, body []byte) {
				var resp dto.ErrorResponseDTO
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, int64(10000), resp.Shortfall)
			},
		},
		{
			name: "Unknown product",
			body: `{"sku":"NOPE"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(nil, domain.ErrUnknownSku)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Inactive product",
			body: `{"sku":"OLD"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(nil, domain.ErrProductInactive)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Out of stock",
			body: `{"sku":"DISNEY_1M"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(nil, domain.ErrStockExhausted)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Replayed purchase",
			body: `{"sku":"DISNEY_1M"}`,
			key:  key,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, &domain.DuplicatePurchaseError{OrderID: "48213377120498716553"})
			},
			expectedCode: http.StatusConflict,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "48213377120498716553")
				assert.NotContains(t, string(body), `"code"`)
			},
		},
		{
			name: "Malformed sku",
			body: `{"sku":"bad sku!"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(nil, domain.ErrInvalidSku)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Contention",
			body: `{"sku":"DISNEY_1M"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("lock account: %w", domain.ErrRetryable))
			},
			expectedCode:  http.StatusServiceUnavailable,
			expectedRetry: "1",
		},
		{
			name: "Integrity failure",
			body: `{"sku":"DISNEY_1M"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("mark delivered: %w", domain.ErrIntegrity))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := withAccount(httptest.NewRequest(http.MethodPost, "/api/user/purchases", strings.NewReader(tt.body)), 7)
			if tt.key != "" {
				r.Header.Set(IdempotencyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			handler.Purchase(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedRetry, w.Header().Get("Retry-After"))
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestGetOrders(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedLen  int
	}{
		{
			name: "Default limit is left to the service",
			url:  "/api/user/orders",
			prepareMock: func(service *MockService) {
				service.EXPECT().ListRecentOrders(gomock.Any(), int64(7), 0).Return([]domain.Order{
					{ID: "2", SKU: "A", Price: 100, Status: domain.OrderFulfilled, DeliveredAt: deliveredAt},
					{ID: "1", SKU: "A", Price: 100, Status: domain.OrderFulfilled, DeliveredAt: deliveredAt.Add(-time.Hour)},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name: "Explicit limit",
			url:  "/api/user/orders?limit=3",
			prepareMock: func(service *MockService) {
				service.EXPECT().ListRecentOrders(gomock.Any(), int64(7), 3).Return(nil, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid limit",
			url:          "/api/user/orders?limit=-2",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Service error",
			url:  "/api/user/orders",
			prepareMock: func(service *MockService) {
				service.EXPECT().ListRecentOrders(gomock.Any(), int64(7), 0).Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := withAccount(httptest.NewRequest(http.MethodGet, tt.url, nil), 7)
			w := httptest.NewRecorder()
			handler.GetOrders(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body []dto.OrderResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Len(t, body, tt.expectedLen)
			}
		})
	}
}
