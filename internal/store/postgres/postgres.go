package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/domain"
	"scottys/backend/internal/store"
)

// Store is the PostgreSQL-backed Repository.
type Store struct {
	db *sql.DB
}

func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			item_number INTEGER PRIMARY KEY,
			label       TEXT NOT NULL,
			category    TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			price       DOUBLE PRECISION NOT NULL DEFAULT 0,
			rec_status  TEXT NOT NULL DEFAULT 'Active'
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id          SERIAL PRIMARY KEY,
			category    TEXT NOT NULL,
			subcategory TEXT NOT NULL,
			UNIQUE (category, subcategory)
		)`,
		`CREATE TABLE IF NOT EXISTS stores (
			id         SERIAL PRIMARY KEY,
			store_name TEXT NOT NULL,
			location   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id          SERIAL PRIMARY KEY,
			item_number INTEGER NOT NULL,
			quantity    INTEGER NOT NULL,
			price       DOUBLE PRECISION NOT NULL,
			from_date   DATE NOT NULL,
			to_date     DATE NOT NULL,
			store       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_window ON sales (from_date, to_date)`,
		`CREATE TABLE IF NOT EXISTS users (
			username   TEXT PRIMARY KEY,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL,
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// predicateSQL translates an analytics predicate into a WHERE fragment against
// the aliased products table, with placeholders numbered from next. MatchAll
// yields an empty fragment; MatchNone must be short-circuited by the caller.
func predicateSQL(p analytics.Predicate, next int) (string, []any) {
	switch p.Kind {
	case analytics.CategoryIn:
		placeholders := make([]string, len(p.Values))
		args := make([]any, len(p.Values))
		for i, v := range p.Values {
			placeholders[i] = fmt.Sprintf("$%d", next+i)
			args[i] = v
		}
		return fmt.Sprintf(" AND p.category IN (%s)", strings.Join(placeholders, ", ")), args
	case analytics.SubcategoryIn:
		placeholders := make([]string, len(p.Values))
		args := make([]any, len(p.Values))
		for i, v := range p.Values {
			placeholders[i] = fmt.Sprintf("$%d", next+i)
			args[i] = v
		}
		return fmt.Sprintf(" AND p.subcategory IN (%s)", strings.Join(placeholders, ", ")), args
	case analytics.PairsAnyOf:
		clauses := make([]string, len(p.Pairs))
		args := make([]any, 0, 2*len(p.Pairs))
		for i, pair := range p.Pairs {
			clauses[i] = fmt.Sprintf("(p.category = $%d AND p.subcategory = $%d)", next, next+1)
			args = append(args, pair.Category, pair.Subcategory)
			next += 2
		}
		return fmt.Sprintf(" AND (%s)", strings.Join(clauses, " OR ")), args
	}
	return "", nil
}

func (s *Store) AggregateSales(ctx context.Context, q analytics.SalesQuery) ([]domain.ItemAggregate, error) {
	query := `SELECT p.item_number, p.label, p.category, p.subcategory,
		p.price AS unit_cost, MIN(s.price) AS unit_retail,
		SUM(s.quantity) AS total_quantity,
		ROUND(SUM(s.quantity * p.price)::numeric, 2) AS total_cost,
		ROUND(SUM(s.quantity * s.price)::numeric, 2) AS total_retail
	FROM sales s
	JOIN products p ON p.item_number = s.item_number
	JOIN categories c ON c.category = p.category AND c.subcategory = p.subcategory
	WHERE s.from_date >= $1 AND s.to_date <= $2`
	args := []any{q.From, q.To}

	clause, clauseArgs := predicateSQL(q.Filter, len(args)+1)
	query += clause
	args = append(args, clauseArgs...)
	query += ` GROUP BY p.item_number, p.label, p.category, p.subcategory, p.price
	ORDER BY total_quantity DESC, p.label, p.category, p.subcategory`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	defer rows.Close()

	aggregates := make([]domain.ItemAggregate, 0)
	for rows.Next() {
		var agg domain.ItemAggregate
		if err := rows.Scan(&agg.ItemNumber, &agg.Label, &agg.Category, &agg.Subcategory,
			&agg.UnitCost, &agg.UnitRetail, &agg.TotalQuantity, &agg.TotalCost, &agg.TotalRetail); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

func (s *Store) ListSaleLines(ctx context.Context, q analytics.SalesQuery) ([]domain.SaleLine, error) {
	query := `SELECT p.item_number, p.label, p.category, p.subcategory,
		p.price AS unit_cost, s.price AS unit_retail,
		s.quantity, s.from_date, s.to_date
	FROM sales s
	JOIN products p ON p.item_number = s.item_number
	WHERE EXISTS (SELECT 1 FROM categories c WHERE c.category = p.category)
	AND s.from_date >= $1 AND s.to_date <= $2`
	args := []any{q.From, q.To}

	clause, clauseArgs := predicateSQL(q.Filter, len(args)+1)
	query += clause
	args = append(args, clauseArgs...)
	query += ` ORDER BY s.from_date, p.item_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0)
	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ItemNumber, &line.Label, &line.Category, &line.Subcategory,
			&line.UnitCost, &line.UnitRetail, &line.Quantity, &line.FromDate, &line.ToDate); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		line.FromDate = analytics.Midnight(line.FromDate)
		line.ToDate = analytics.Midnight(line.ToDate)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_number, label, category, subcategory, price, rec_status
		FROM products ORDER BY item_number`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ItemNumber, &p.Label, &p.Category, &p.Subcategory, &p.Price, &p.RecStatus); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, itemNumber int) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `SELECT item_number, label, category, subcategory, price, rec_status
		FROM products WHERE item_number = $1`, itemNumber).
		Scan(&p.ItemNumber, &p.Label, &p.Category, &p.Subcategory, &p.Price, &p.RecStatus)
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

	result, err := s.db.ExecContext(ctx, `INSERT INTO products (item_number, label, category, subcategory, price, rec_status)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (item_number) DO NOTHING`,
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
		SET label = $2, category = $3, subcategory = $4, price = $5, rec_status = $6
		WHERE item_number = $1`,
		product.ItemNumber, product.Label, product.Category, product.Subcategory, product.Price, product.RecStatus)
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE item_number = $1`, itemNumber)
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

	// xmax = 0 distinguishes a fresh insert from an upsert-update.
	var inserted bool
	err := s.db.QueryRowContext(ctx, `INSERT INTO products (item_number, label, category, subcategory, price, rec_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_number) DO UPDATE
		SET label = EXCLUDED.label, category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory, price = EXCLUDED.price,
			rec_status = EXCLUDED.rec_status
		RETURNING (xmax = 0)`,
		product.ItemNumber, product.Label, product.Category, product.Subcategory, product.Price, product.RecStatus).
		Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert product: %w", err)
	}
	return inserted, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, category, subcategory FROM categories
		ORDER BY category, subcategory`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Category, &c.Subcategory); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, category, subcategory string) (*domain.Category, error) {
	if category == "" || subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	var entry domain.Category
	err := s.db.QueryRowContext(ctx, `INSERT INTO categories (category, subcategory)
		VALUES ($1, $2)
		ON CONFLICT (category, subcategory) DO UPDATE SET category = EXCLUDED.category
		RETURNING id, category, subcategory`, category, subcategory).
		Scan(&entry.ID, &entry.Category, &entry.Subcategory)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &entry, nil
}

func (s *Store) UpdateCategory(ctx context.Context, entry domain.Category) (*domain.Category, error) {
	if entry.Category == "" || entry.Subcategory == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `UPDATE categories SET category = $2, subcategory = $3 WHERE id = $1`,
		entry.ID, entry.Category, entry.Subcategory)
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
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
	rows, err := s.db.QueryContext(ctx, `SELECT id, store_name, location FROM stores ORDER BY store_name`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := make([]domain.StoreLocation, 0)
	for rows.Next() {
		var entry domain.StoreLocation
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Location); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, entry)
	}
	return stores, rows.Err()
}

func (s *Store) CreateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `INSERT INTO stores (store_name, location) VALUES ($1, $2) RETURNING id`,
		entry.Name, entry.Location).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	created := entry
	return &created, nil
}

func (s *Store) UpdateStore(ctx context.Context, entry domain.StoreLocation) (*domain.StoreLocation, error) {
	if entry.Name == "" || entry.Location == "" {
		return nil, store.ErrInvalidInput
	}

	result, err := s.db.ExecContext(ctx, `UPDATE stores SET store_name = $2, location = $3 WHERE id = $1`,
		entry.ID, entry.Name, entry.Location)
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
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
	rows, err := s.db.QueryContext(ctx, `SELECT item_number, quantity, price, from_date, to_date, store
		FROM sales WHERE from_date >= $1 AND to_date <= $2
		ORDER BY from_date, item_number`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ItemNumber, &sale.Quantity, &sale.Price, &sale.FromDate, &sale.ToDate, &sale.Store); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sale.FromDate = analytics.Midnight(sale.FromDate)
		sale.ToDate = analytics.Midnight(sale.ToDate)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) InsertSales(ctx context.Context, sales []domain.Sale) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert sales: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sales (item_number, quantity, price, from_date, to_date, store)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return 0, fmt.Errorf("insert sales: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, sale := range sales {
		if sale.ItemNumber < 1 || sale.Quantity < 0 || sale.ToDate.Before(sale.FromDate) {
			continue
		}
		if _, err := stmt.ExecContext(ctx, sale.ItemNumber, sale.Quantity, sale.Price, sale.FromDate, sale.ToDate, sale.Store); err != nil {
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

	result, err := s.db.ExecContext(ctx, `INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (username) DO NOTHING`,
		username, user.Password, user.Role, user.Active, user.CreatedAt)
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
	rows, err := s.db.QueryContext(ctx, `SELECT username, password, role, active, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	result, err := s.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, password)
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
