package account

import (
	"context"
	"encoding/json"
	"errors"
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

func NewMock(t *testing.T) (*AccountHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service, "MXN"), service
}

func withAccount(r *http.Request, id int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.AccountIDKey, id))
}

func TestSeen(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedBody *dto.AccountResponseDTO
	}{
		{
			name: "First contact creates account",
			body: `{"username":"alice","first_name":"Alice"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					EnsureAccount(gomock.Any(), domain.Account{ID: 7, Username: "alice", FirstName: "Alice"}).
					Return(&domain.Account{ID: 7, Username: "alice", FirstName: "Alice", Balance: 0}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.AccountResponseDTO{ID: 7, Username: "alice", FirstName: "Alice", Display: "$0.00 MXN"},
		},
		{
			name: "Empty body is allowed",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					EnsureAccount(gomock.Any(), domain.Account{ID: 7}).
					Return(&domain.Account{ID: 7, Balance: 1250}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.AccountResponseDTO{ID: 7, Balance: 1250, Display: "$12.50 MXN"},
		},
		{
			name:         "Malformed body",
			body:         `{"username":`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Service error",
			body: `{}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().EnsureAccount(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := withAccount(httptest.NewRequest(http.MethodPost, "/api/user/seen", strings.NewReader(tt.body)), 7)
			w := httptest.NewRecorder()
			handler.Seen(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body dto.AccountResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, *tt.expectedBody, body)
			}
		})
	}
}

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedBody *dto.BalanceResponseDTO
	}{
		{
			name: "Successful retrieval",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetBalance(gomock.Any(), int64(7)).Return(int64(123456), nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.BalanceResponseDTO{AccountID: 7, Balance: 123456, Display: "$1,234.56 MXN"},
		},
		{
			name: "Internal server error",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetBalance(gomock.Any(), int64(7)).Return(int64(0), errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := withAccount(httptest.NewRequest(http.MethodGet, "/api/user/balance", nil), 7)
			w := httptest.NewRecorder()
			handler.GetBalance(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body dto.BalanceResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, *tt.expectedBody, body)
			}
		})
	}
}

func TestGetBalance_NoAccountInContext(t *testing.T) {
	handler, _ := NewMock(t)

	w := httptest.NewRecorder()
	handler.GetBalance(w, httptest.NewRequest(http.MethodGet, "/api/user/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMovements(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		url          string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedLen  int
	}{
		{
			name: "Default limit",
			url:  "/api/user/movements",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetMovements(gomock.Any(), int64(7), defaultMovementsLimit).Return([]domain.BalanceMovement{
					{ID: 2, Kind: domain.MovementPurchase, Amount: -300, BalanceBefore: 500, BalanceAfter: 200, CreatedAt: at},
					{ID: 1, Kind: domain.MovementTopup, Amount: 500, BalanceBefore: 0, BalanceAfter: 500, CreatedAt: at},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name: "Limit is clamped",
			url:  "/api/user/movements?limit=1000",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetMovements(gomock.Any(), int64(7), maxMovementsLimit).Return(nil, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid limit",
			url:          "/api/user/movements?limit=abc",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := withAccount(httptest.NewRequest(http.MethodGet, tt.url, nil), 7)
			w := httptest.NewRecorder()
			handler.GetMovements(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body []dto.MovementResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Len(t, body, tt.expectedLen)
			}
		})
	}
}
