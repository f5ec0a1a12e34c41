package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/domain"
	"scottys/backend/internal/store"
)

// Store is an in-memory Repository used for dev mode and tests. All state is
// guarded by one RWMutex; report reads see a consistent snapshot.
type Store struct {
	mu             sync.RWMutex
	products       map[int]domain.Product
	categories     map[int]domain.Category
	nextCategoryID int
	stores         map[int]domain.StoreLocation
	nextStoreID    int
	sales          []domain.Sale
	users          map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:       make(map[int]domain.Product),
		categories:     make(map[int]domain.Category),
		nextCategoryID: 1,
		stores:         make(map[int]domain.StoreLocation),
		nextStoreID:    1,
		users:          make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD; if
// unset, dev defaults are used with a warning. Production deployments use a
// database-backed store instead.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	analystPwd := envOr("SEED_ANALYST_PASSWORD", "analyst123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_ANALYST_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"analyst", analystPwd, "analyst"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func day(value string) time.Time {
	t, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		panic("memory: bad seed date " + value)
	}
	return t
}

// NewSeeded returns a store preloaded with a small retail dataset.
func NewSeeded() *Store {
	s := New()
	s.users = seedUsers()

	pairs := []domain.CategoryRequest{
		{Category: "Snacks", Subcategory: "Chips"},
		{Category: "Snacks", Subcategory: "Candy"},
		{Category: "Produce", Subcategory: "Organic"},
		{Category: "Produce", Subcategory: "Conventional"},
		{Category: "Dairy", Subcategory: "Milk"},
		{Category: "Dairy", Subcategory: "Cheese"},
		{Category: "Beverages", Subcategory: "Soda"},
	}
	for _, p := range pairs {
		s.categories[s.nextCategoryID] = domain.Category{ID: s.nextCategoryID, Category: p.Category, Subcategory: p.Subcategory}
		s.nextCategoryID++
	}

	products := []domain.Product{
		{ItemNumber: 100, Label: "Corn Chips 200g", Category: "Snacks", Subcategory: "Chips", Price: 1.00, RecStatus: domain.RecStatusActive},
		{ItemNumber: 101, Label: "Potato Chips 150g", Category: "Snacks", Subcategory: "Chips", Price: 1.20, RecStatus: domain.RecStatusActive},
		{ItemNumber: 102, Label: "Gummy Bears", Category: "Snacks", Subcategory: "Candy", Price: 0.80, RecStatus: domain.RecStatusActive},
		{ItemNumber: 200, Label: "Organic Apples 1kg", Category: "Produce", Subcategory: "Organic", Price: 2.40, RecStatus: domain.RecStatusActive},
		{ItemNumber: 201, Label: "Bananas 1kg", Category: "Produce", Subcategory: "Conventional", Price: 1.10, RecStatus: domain.RecStatusActive},
		{ItemNumber: 300, Label: "Whole Milk 1L", Category: "Dairy", Subcategory: "Milk", Price: 0.90, RecStatus: domain.RecStatusActive},
		{ItemNumber: 301, Label: "Cheddar Block 500g", Category: "Dairy", Subcategory: "Cheese", Price: 3.80, RecStatus: domain.RecStatusActive},
		{ItemNumber: 400, Label: "Cola 2L", Category: "Beverages", Subcategory: "Soda", Price: 1.30, RecStatus: domain.RecStatusActive},
	}
	for _, p := range products {
		s.products[p.ItemNumber] = p
	}

	s.stores = map[int]domain.StoreLocation{
		1: {ID: 1, Name: "Main Street", Location: "Springfield"},
		2: {ID: 2, Name: "Riverside", Location: "Shelbyville"},
	}
	s.nextStoreID = 3

	s.sales = []domain.Sale{
		{ItemNumber: 100, Quantity: 70, Price: 2.00, FromDate: day("2024-01-01"), ToDate: day("2024-01-07"), Store: "Main Street"},
		{ItemNumber: 100, Quantity: 35, Price: 2.00, FromDate: day("2024-01-08"), ToDate: day("2024-01-14"), Store: "Main Street"},
		{ItemNumber: 101, Quantity: 42, Price: 2.50, FromDate: day("2024-01-01"), ToDate: day("2024-01-07"), Store: "Riverside"},
		{ItemNumber: 102, Quantity: 120, Price: 1.50, FromDate: day("2024-01-05"), ToDate: day("2024-01-11"), Store: "Main Street"},
		{ItemNumber: 200, Quantity: 28, Price: 4.00, FromDate: day("2024-01-01"), ToDate: day("2024-01-14"), Store: "Main Street"},
		{ItemNumber: 201, Quantity: 56, Price: 1.80, FromDate: day("2024-01-01"), ToDate: day("2024-01-07"), Store: "Riverside"},
		{ItemNumber: 300, Quantity: 84, Price: 1.40, FromDate: day("2024-01-08"), ToDate: day("2024-01-14"), Store: "Main Street"},
		{ItemNumber: 301, Quantity: 14, Price: 6.00, FromDate: day("2024-01-01"), ToDate: day("2024-01-07"), Store: "Riverside"},
		{ItemNumber: 400, Quantity: 63, Price: 2.20, FromDate: day("2024-01-01"), ToDate: day("2024-01-07"), Store: "Main Street"},
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return a.ItemNumber - b.ItemNumber
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, itemNumber int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[itemNumber]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ItemNumber < 1 || product.Label == "" || product.Category == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ItemNumber]; exists {
		return nil, store.ErrConflict
	}
	if product.RecStatus == "" {
		product.RecStatus = domain.RecStatusActive
	}
	s.products[product.ItemNumber] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ItemNumber < 1 || product.Label == "" || product.Category == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ItemNumber]; !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.ItemNumber] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, itemNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[itemNumber]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, itemNumber)
	return nil
}

func (s *Store) UpsertProduct(_ context.Context, product domain.Product) (bool, error) {
	if product.ItemNumber < 1 || product.Label == "" {
		return false, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.products[product.ItemNumber]
	if product.RecStatus == "" {
		product.RecStatus = domain.RecStatusActive
	}
	s.products[product.ItemNumber] = product
	return !exists, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		if a.Category != b.Category {
			return strings.Compare(a.Category, b.Category)
		}
		return strings.Compare(a.Subcategory, b.Subcategory)
	})
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category, subcategory string) (*domain.Category, error) {
	if category == "" || subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Category == category && existing.Subcategory == subcategory {
			copied := existing
			return &copied, nil
		}
	}

	entry := domain.Category{ID: s.nextCategoryID, Category: category, Subcategory: subcategory}
	s.categories[entry.ID] = entry
	s.nextCategoryID++
	created := entry
	return &created, nil
}

func (s *Store) UpdateCategory(_ context.Context, entry domain.Category) (*domain.Category, error) {
	if entry.Category == "" || entry.Subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[entry.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.categories[entry.ID] = entry
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListStores(_ context.Context) ([]domain.StoreLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stores := make([]domain.StoreLocation, 0, len(s.stores))
	for _, entry := range s.stores {
		stores = append(stores, entry)
	}
	slices.SortFunc(stores, func(a, b domain.StoreLocation) int {
		return strings.Compare(a.Name, b.Name)
	})
	return stores, nil
}

func (s *Store) CreateStore(_ context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextStoreID
	s.nextStoreID++
	s.stores[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) UpdateStore(_ context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[entry.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.stores[entry.ID] = entry
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteStore(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.stores, id)
	return nil
}

func (s *Store) ListSales(_ context.Context, from, to time.Time) ([]domain.Sale, error) {
	from = analytics.Midnight(from)
	to = analytics.Midnight(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.FromDate.Before(from) || sale.ToDate.After(to) {
			continue
		}
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if !a.FromDate.Equal(b.FromDate) {
			return int(a.FromDate.Sub(b.FromDate))
		}
		return a.ItemNumber - b.ItemNumber
	})
	return sales, nil
}

func (s *Store) InsertSales(_ context.Context, sales []domain.Sale) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, sale := range sales {
		if sale.ItemNumber < 1 || sale.Quantity < 0 || sale.ToDate.Before(sale.FromDate) {
			continue
		}
		sale.FromDate = analytics.Midnight(sale.FromDate)
		sale.ToDate = analytics.Midnight(sale.ToDate)
		s.sales = append(s.sales, sale)
		added++
	}
	return added, nil
}

// hasPair reports whether the (category, subcategory) pair is registered.
// The primary report joins sales through registered pairs only.
func (s *Store) hasPair(category, subcategory string) bool {
	for _, c := range s.categories {
		if c.Category == category && c.Subcategory == subcategory {
			return true
		}
	}
	return false
}

func (s *Store) hasCategory(category string) bool {
	for _, c := range s.categories {
		if c.Category == category {
			return true
		}
	}
	return false
}

func (s *Store) AggregateSales(_ context.Context, q analytics.SalesQuery) ([]domain.ItemAggregate, error) {
	from := analytics.Midnight(q.From)
	to := analytics.Midnight(q.To)

	s.mu.RLock()
	defer s.mu.RUnlock()

	byItem := make(map[int]*domain.ItemAggregate)
	order := make([]int, 0)
	rawCost := make(map[int]float64)
	rawRetail := make(map[int]float64)

	for _, sale := range s.sales {
		if sale.FromDate.Before(from) || sale.ToDate.After(to) {
			continue
		}
		product, exists := s.products[sale.ItemNumber]
		if !exists || !s.hasPair(product.Category, product.Subcategory) {
			continue
		}
		if !q.Filter.Matches(product.Category, product.Subcategory) {
			continue
		}

		agg, seen := byItem[sale.ItemNumber]
		if !seen {
			agg = &domain.ItemAggregate{
				ItemNumber:  product.ItemNumber,
				Label:       product.Label,
				Category:    product.Category,
				Subcategory: product.Subcategory,
				UnitCost:    product.Price,
				UnitRetail:  sale.Price,
			}
			byItem[sale.ItemNumber] = agg
			order = append(order, sale.ItemNumber)
		}
		agg.TotalQuantity += sale.Quantity
		rawCost[sale.ItemNumber] += float64(sale.Quantity) * product.Price
		rawRetail[sale.ItemNumber] += float64(sale.Quantity) * sale.Price
	}

	rows := make([]domain.ItemAggregate, 0, len(order))
	for _, itemNumber := range order {
		agg := byItem[itemNumber]
		agg.TotalCost = analytics.RoundMoney(rawCost[itemNumber])
		agg.TotalRetail = analytics.RoundMoney(rawRetail[itemNumber])
		rows = append(rows, *agg)
	}
	slices.SortFunc(rows, func(a, b domain.ItemAggregate) int {
		return a.ItemNumber - b.ItemNumber
	})
	return rows, nil
}

func (s *Store) ListSaleLines(_ context.Context, q analytics.SalesQuery) ([]domain.SaleLine, error) {
	from := analytics.Midnight(q.From)
	to := analytics.Midnight(q.To)

	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.SaleLine, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.FromDate.Before(from) || sale.ToDate.After(to) {
			continue
		}
		product, exists := s.products[sale.ItemNumber]
		if !exists || !s.hasCategory(product.Category) {
			continue
		}
		if !q.Filter.Matches(product.Category, product.Subcategory) {
			continue
		}
		lines = append(lines, domain.SaleLine{
			ItemNumber:  product.ItemNumber,
			Label:       product.Label,
			Category:    product.Category,
			Subcategory: product.Subcategory,
			UnitCost:    product.Price,
			UnitRetail:  sale.Price,
			Quantity:    sale.Quantity,
			FromDate:    sale.FromDate,
			ToDate:      sale.ToDate,
		})
	}
	slices.SortFunc(lines, func(a, b domain.SaleLine) int {
		if !a.FromDate.Equal(b.FromDate) {
			return int(a.FromDate.Sub(b.FromDate))
		}
		return a.ItemNumber - b.ItemNumber
	})
	return lines, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	s.users[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}
