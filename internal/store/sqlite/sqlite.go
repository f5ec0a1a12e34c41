package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/domain"
	"scottys/backend/internal/store"
)

// Store is the embedded single-file Repository for desktop-style deployments.
// Dates are stored as YYYY-MM-DD text so lexical comparison matches date
// order.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	item_number INTEGER PRIMARY KEY,
	label       TEXT NOT NULL,
	category    TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	price       REAL NOT NULL DEFAULT 0,
	rec_status  TEXT NOT NULL DEFAULT 'Active'
);
CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	category    TEXT NOT NULL,
	subcategory TEXT NOT NULL,
	UNIQUE (category, subcategory)
);
CREATE TABLE IF NOT EXISTS stores (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	store_name TEXT NOT NULL,
	location   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	item_number INTEGER NOT NULL,
	quantity    INTEGER NOT NULL,
	price       REAL NOT NULL,
	from_date   TEXT NOT NULL,
	to_date     TEXT NOT NULL,
	store       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sales_window ON sales (from_date, to_date);
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);
`

func New(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_fk=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// go-sqlite3 serializes writes; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func dateText(t time.Time) string {
	return analytics.Midnight(t).Format(domain.DateFormat)
}

func parseDate(value string) time.Time {
	t, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// predicateClause expands an analytics predicate into a "?" fragment for
// sqlx.In style binding. MatchAll yields an empty fragment; MatchNone is
// short-circuited by the engine before reaching the store.
func predicateClause(p analytics.Predicate) (string, []any) {
	switch p.Kind {
	case analytics.CategoryIn:
		args := make([]any, len(p.Values))
		for i, v := range p.Values {
			args[i] = v
		}
		return " AND p.category IN (?" + strings.Repeat(", ?", len(p.Values)-1) + ")", args
	case analytics.SubcategoryIn:
		args := make([]any, len(p.Values))
		for i, v := range p.Values {
			args[i] = v
		}
		return " AND p.subcategory IN (?" + strings.Repeat(", ?", len(p.Values)-1) + ")", args
	case analytics.PairsAnyOf:
		clauses := make([]string, len(p.Pairs))
		args := make([]any, 0, 2*len(p.Pairs))
		for i, pair := range p.Pairs {
			clauses[i] = "(p.category = ? AND p.subcategory = ?)"
			args = append(args, pair.Category, pair.Subcategory)
		}
		return " AND (" + strings.Join(clauses, " OR ") + ")", args
	}
	return "", nil
}

type aggregateRow struct {
	ItemNumber    int     `db:"item_number"`
	Label         string  `db:"label"`
	Category      string  `db:"category"`
	Subcategory   string  `db:"subcategory"`
	UnitCost      float64 `db:"unit_cost"`
	UnitRetail    float64 `db:"unit_retail"`
	TotalQuantity int     `db:"total_quantity"`
	TotalCost     float64 `db:"total_cost"`
	TotalRetail   float64 `db:"total_retail"`
}

func (s *Store) AggregateSales(ctx context.Context, q analytics.SalesQuery) ([]domain.ItemAggregate, error) {
	query := `SELECT p.item_number, p.label, p.category, p.subcategory,
		p.price AS unit_cost, MIN(s.price) AS unit_retail,
		SUM(s.quantity) AS total_quantity,
		ROUND(SUM(s.quantity * p.price), 2) AS total_cost,
		ROUND(SUM(s.quantity * s.price), 2) AS total_retail
	FROM sales s
	JOIN products p ON p.item_number = s.item_number
	JOIN categories c ON c.category = p.category AND c.subcategory = p.subcategory
	WHERE s.from_date >= ? AND s.to_date <= ?`
	args := []any{dateText(q.From), dateText(q.To)}

	clause, clauseArgs := predicateClause(q.Filter)
	query += clause
	args = append(args, clauseArgs...)
	query += ` GROUP BY p.item_number
	ORDER BY total_quantity DESC, p.label, p.category, p.subcategory`

	var rows []aggregateRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}

	aggregates := make([]domain.ItemAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, domain.ItemAggregate{
			ItemNumber:    row.ItemNumber,
			Label:         row.Label,
			Category:      row.Category,
			Subcategory:   row.Subcategory,
			UnitCost:      row.UnitCost,
			UnitRetail:    row.UnitRetail,
			TotalQuantity: row.TotalQuantity,
			TotalCost:     row.TotalCost,
			TotalRetail:   row.TotalRetail,
		})
	}
	return aggregates, nil
}

type saleLineRow struct {
	ItemNumber  int     `db:"item_number"`
	Label       string  `db:"label"`
	Category    string  `db:"category"`
	Subcategory string  `db:"subcategory"`
	UnitCost    float64 `db:"unit_cost"`
	UnitRetail  float64 `db:"unit_retail"`
	Quantity    int     `db:"quantity"`
	FromDate    string  `db:"from_date"`
	ToDate      string  `db:"to_date"`
}

func (s *Store) ListSaleLines(ctx context.Context, q analytics.SalesQuery) ([]domain.SaleLine, error) {
	query := `SELECT p.item_number, p.label, p.category, p.subcategory,
		p.price AS unit_cost, s.price AS unit_retail,
		s.quantity, s.from_date, s.to_date
	FROM sales s
	JOIN products p ON p.item_number = s.item_number
	WHERE EXISTS (SELECT 1 FROM categories c WHERE c.category = p.category)
	AND s.from_date >= ? AND s.to_date <= ?`
	args := []any{dateText(q.From), dateText(q.To)}

	clause, clauseArgs := predicateClause(q.Filter)
	query += clause
	args = append(args, clauseArgs...)
	query += ` ORDER BY s.from_date, p.item_number`

	var rows []saleLineRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}

	lines := make([]domain.SaleLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, domain.SaleLine{
			ItemNumber:  row.ItemNumber,
			Label:       row.Label,
			Category:    row.Category,
			Subcategory: row.Subcategory,
			UnitCost:    row.UnitCost,
			UnitRetail:  row.UnitRetail,
			Quantity:    row.Quantity,
			FromDate:    parseDate(row.FromDate),
			ToDate:      parseDate(row.ToDate),
		})
	}
	return lines, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.db.SelectContext(ctx, &products, `SELECT item_number, label, category, subcategory, price, rec_status
		FROM products ORDER BY item_number`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, itemNumber int) (*domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT item_number, label, category, subcategory, price, rec_status
		FROM products WHERE item_number = ?`, itemNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ItemNumber < 1 || product.Label == "" || product.Category == "" {
		return nil, store.ErrInvalidInput
	}
	if product.RecStatus == "" {
		product.RecStatus = domain.RecStatusActive
	}

	result, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO products (item_number, label, category, subcategory, price, rec_status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		product.ItemNumber, product.Label, product.Category, product.Subcategory, product.Price, product.RecStatus)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrConflict
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ItemNumber < 1 || product.Label == "" || product.Category == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `UPDATE products
		SET label = ?, category = ?, subcategory = ?, price = ?, rec_status = ?
		WHERE item_number = ?`,
		product.Label, product.Category, product.Subcategory, product.Price, product.RecStatus, product.ItemNumber)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, itemNumber int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE item_number = ?`, itemNumber)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (bool, error) {
	if product.ItemNumber < 1 || product.Label == "" {
		return false, store.ErrInvalidInput
	}
	if product.RecStatus == "" {
		product.RecStatus = domain.RecStatusActive
	}

	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM products WHERE item_number = ?`, product.ItemNumber); err != nil {
		return false, fmt.Errorf("upsert product: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO products (item_number, label, category, subcategory, price, rec_status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_number) DO UPDATE
		SET label = excluded.label, category = excluded.category,
			subcategory = excluded.subcategory, price = excluded.price,
			rec_status = excluded.rec_status`,
		product.ItemNumber, product.Label, product.Category, product.Subcategory, product.Price, product.RecStatus)
	if err != nil {
		return false, fmt.Errorf("upsert product: %w", err)
	}
	return exists == 0, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.db.SelectContext(ctx, &categories, `SELECT id, category, subcategory FROM categories
		ORDER BY category, subcategory`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category, subcategory string) (*domain.Category, error) {
	if category == "" || subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (category, subcategory) VALUES (?, ?)`,
		category, subcategory); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	var entry domain.Category
	err := s.db.GetContext(ctx, &entry, `SELECT id, category, subcategory FROM categories
		WHERE category = ? AND subcategory = ?`, category, subcategory)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &entry, nil
}

func (s *Store) UpdateCategory(ctx context.Context, entry domain.Category) (*domain.Category, error) {
	if entry.Category == "" || entry.Subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `UPDATE categories SET category = ?, subcategory = ? WHERE id = ?`,
		entry.Category, entry.Subcategory, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListStores(ctx context.Context) ([]domain.StoreLocation, error) {
	var stores []domain.StoreLocation
	err := s.db.SelectContext(ctx, &stores, `SELECT id, store_name, location FROM stores ORDER BY store_name`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	if stores == nil {
		stores = []domain.StoreLocation{}
	}
	return stores, nil
}

func (s *Store) CreateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO stores (store_name, location) VALUES (?, ?)`,
		entry.Name, entry.Location)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	entry.ID = int(id)
	created := entry
	return &created, nil
}

func (s *Store) UpdateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `UPDATE stores SET store_name = ?, location = ? WHERE id = ?`,
		entry.Name, entry.Location, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteStore(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	var rows []struct {
		ItemNumber int     `db:"item_number"`
		Quantity   int     `db:"quantity"`
		Price      float64 `db:"price"`
		FromDate   string  `db:"from_date"`
		ToDate     string  `db:"to_date"`
		Store      string  `db:"store"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT item_number, quantity, price, from_date, to_date, store
		FROM sales WHERE from_date >= ? AND to_date <= ?
		ORDER BY from_date, item_number`, dateText(from), dateText(to))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, domain.Sale{
			ItemNumber: row.ItemNumber,
			Quantity:   row.Quantity,
			Price:      row.Price,
			FromDate:   parseDate(row.FromDate),
			ToDate:     parseDate(row.ToDate),
			Store:      row.Store,
		})
	}
	return sales, nil
}

func (s *Store) InsertSales(ctx context.Context, sales []domain.Sale) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert sales: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, sale := range sales {
		if sale.ItemNumber < 1 || sale.Quantity < 0 || sale.ToDate.Before(sale.FromDate) {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO sales (item_number, quantity, price, from_date, to_date, store)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sale.ItemNumber, sale.Quantity, sale.Price, dateText(sale.FromDate), dateText(sale.ToDate), sale.Store)
		if err != nil {
			return 0, fmt.Errorf("insert sale %d: %w", sale.ItemNumber, err)
		}
		added++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert sales: %w", err)
	}
	return added, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (username, password, role, active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		username, user.Password, user.Role, user.Active, user.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if affected == 0 {
		return store.ErrConflict
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	var rows []struct {
		Username  string `db:"username"`
		Password  string `db:"password"`
		Role      string `db:"role"`
		Active    bool   `db:"active"`
		CreatedAt string `db:"created_at"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT username, password, role, active, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.UserAccount, 0, len(rows))
	for _, row := range rows {
		created, _ := time.Parse(time.RFC3339, row.CreatedAt)
		users = append(users, domain.UserAccount{
			Username:  row.Username,
			Password:  row.Password,
			Role:      row.Role,
			Active:    row.Active,
			CreatedAt: created,
		})
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	result, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE username = ?`, password, username)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
