package store

import (
	"context"
	"errors"
	"time"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the relational back-office store: product master, category
// pairs, store locations, imported sale transactions, auth accounts, and the
// two read shapes the analytics engine consumes.
type Repository interface {
	analytics.SalesSource

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, itemNumber int) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, itemNumber int) error
	// UpsertProduct inserts or updates by item number and reports whether a
	// new row was created. CSV imports are add-or-update.
	UpsertProduct(ctx context.Context, product domain.Product) (bool, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	// CreateCategory registers a (category, subcategory) pair; registering an
	// existing pair returns the existing record unchanged.
	CreateCategory(ctx context.Context, category, subcategory string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, entry domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error

	ListStores(ctx context.Context) ([]domain.StoreLocation, error)
	CreateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error)
	UpdateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error)
	DeleteStore(ctx context.Context, id int) error

	ListSales(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
	InsertSales(ctx context.Context, sales []domain.Sale) (int, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
