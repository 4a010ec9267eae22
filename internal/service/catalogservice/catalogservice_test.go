package catalogservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/codeshop/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	return New(repo), repo
}

func TestListCatalog(t *testing.T) {
	service, repo := NewMock(t)

	entries := []domain.CatalogEntry{{SKU: "DISNEY_1M", Name: "Disney+", Price: 300, Active: true}}
	repo.EXPECT().ListActive(gomock.Any()).Return(entries, nil)

	result, err := service.ListCatalog(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, entries, result)
}

func TestGetProduct(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().FindBySKU(gomock.Any(), "DISNEY_1M").Return(&domain.CatalogEntry{SKU: "DISNEY_1M"}, nil)
	repo.EXPECT().FindBySKU(gomock.Any(), "NOPE").Return(nil, nil)

	entry, err := service.GetProduct(context.Background(), "disney_1m")
	assert.NoError(t, err)
	assert.Equal(t, "DISNEY_1M", entry.SKU)

	_, err = service.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownSku)
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name        string
		sku         string
		title       string
		price       int64
		prepareMock func(repo *MockRepo)
		expectedErr error
	}{
		{
			name:  "Created",
			sku:   "spotify_1m",
			title: " Spotify ",
			price: 150,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), &domain.CatalogEntry{SKU: "SPOTIFY_1M", Name: "Spotify", Price: 150, Active: true}).
					DoAndReturn(func(_ context.Context, e *domain.CatalogEntry) (*domain.CatalogEntry, error) { return e, nil })
			},
		},
		{
			name:  "Blank name falls back to sku",
			sku:   "SPOTIFY_1M",
			price: 150,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), &domain.CatalogEntry{SKU: "SPOTIFY_1M", Name: "SPOTIFY_1M", Price: 150, Active: true}).
					DoAndReturn(func(_ context.Context, e *domain.CatalogEntry) (*domain.CatalogEntry, error) { return e, nil })
			},
		},
		{
			name:        "Negative price",
			sku:         "SPOTIFY_1M",
			price:       -1,
			prepareMock: func(*MockRepo) {},
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name:        "Invalid sku",
			sku:         "spotify 1m",
			prepareMock: func(*MockRepo) {},
			expectedErr: domain.ErrInvalidSku,
		},
		{
			name:  "Already exists",
			sku:   "SPOTIFY_1M",
			price: 150,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrAlreadyExists)
			},
			expectedErr: domain.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := NewMock(t)
			tt.prepareMock(repo)

			entry, err := service.CreateProduct(context.Background(), tt.sku, tt.title, tt.price, true)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, entry)
		})
	}
}

func TestSetPrice(t *testing.T) {
	tests := []struct {
		name        string
		price       int64
		prepareMock func(repo *MockRepo)
		expectedErr error
	}{
		{
			name:  "Updated",
			price: 400,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().UpdatePrice(gomock.Any(), "DISNEY_1M", int64(400)).Return(true, nil)
			},
		},
		{
			name:  "Free product is allowed",
			price: 0,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().UpdatePrice(gomock.Any(), "DISNEY_1M", int64(0)).Return(true, nil)
			},
		},
		{
			name:        "Negative price",
			price:       -10,
			prepareMock: func(*MockRepo) {},
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name:  "Unknown sku",
			price: 400,
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().UpdatePrice(gomock.Any(), "DISNEY_1M", int64(400)).Return(false, nil)
			},
			expectedErr: domain.ErrUnknownSku,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := NewMock(t)
			tt.prepareMock(repo)

			err := service.SetPrice(context.Background(), "disney_1m", tt.price)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSetName(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().UpdateName(gomock.Any(), "DISNEY_1M", "Disney+ Premium").Return(true, nil)

	assert.NoError(t, service.SetName(context.Background(), "DISNEY_1M", " Disney+ Premium "))
	assert.ErrorIs(t, service.SetName(context.Background(), "DISNEY_1M", "  "), domain.ErrInvalidName)
}

func TestSetActive(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().UpdateActive(gomock.Any(), "DISNEY_1M", false).Return(true, nil)
	repo.EXPECT().UpdateActive(gomock.Any(), "GONE", true).Return(false, nil)
	repo.EXPECT().UpdateActive(gomock.Any(), "BROKEN", true).Return(false, errors.New("db error"))

	assert.NoError(t, service.SetActive(context.Background(), "DISNEY_1M", false))
	assert.ErrorIs(t, service.SetActive(context.Background(), "GONE", true), domain.ErrUnknownSku)
	assert.Error(t, service.SetActive(context.Background(), "BROKEN", true))
}
