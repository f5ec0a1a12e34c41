package domain

import "time"

// DateFormat is the wire format for all report dates.
const DateFormat = "2006-01-02"

// SelectionAll is the selection value meaning "no restriction on this
// dimension". It is distinct from an empty selection, which matches nothing.
const SelectionAll = "ALL"

const (
	RecStatusActive   = "Active"
	RecStatusInactive = "Inactive"
)

// Product is one row of the product master. ItemNumber is the natural key;
// Price is the unit cost price (retail price lives on the sale record).
type Product struct {
	ItemNumber  int     `json:"item_number" db:"item_number"`
	Label       string  `json:"label" db:"label"`
	Category    string  `json:"category" db:"category"`
	Subcategory string  `json:"subcategory" db:"subcategory"`
	Price       float64 `json:"price" db:"price"`
	RecStatus   string  `json:"rec_status" db:"rec_status"`
}

type ProductCreateRequest struct {
	ItemNumber  int     `json:"item_number"`
	Label       string  `json:"label"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Price       float64 `json:"price"`
}

type ProductUpdateRequest struct {
	Label       *string  `json:"label,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	RecStatus   *string  `json:"rec_status,omitempty"`
}

// Sale is one imported sale transaction. Price is the unit retail price.
// FromDate/ToDate span the (inclusive) selling period the quantity covers.
type Sale struct {
	ItemNumber int       `json:"item_number" db:"item_number"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      float64   `json:"price" db:"price"`
	FromDate   time.Time `json:"from_date" db:"from_date"`
	ToDate     time.Time `json:"to_date" db:"to_date"`
	Store      string    `json:"store,omitempty" db:"store"`
}

// Category is a registered (category, subcategory) pair. Products reference
// pairs by value; the primary report only sees sales whose product pair is
// registered.
type Category struct {
	ID          int    `json:"id" db:"id"`
	Category    string `json:"category" db:"category"`
	Subcategory string `json:"subcategory" db:"subcategory"`
}

type CategoryRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

type StoreLocation struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"store_name"`
	Location string `json:"location" db:"location"`
}

type StoreLocationRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// ItemAggregate is a per-item join/aggregate row produced by the storage
// layer: SUM(quantity) and the rounded cost/retail totals within the report
// window, one row per distinct item number.
type ItemAggregate struct {
	ItemNumber    int
	Label         string
	Category      string
	Subcategory   string
	UnitCost      float64
	UnitRetail    float64
	TotalQuantity int
	TotalCost     float64
	TotalRetail   float64
}

// SaleLine is a per-transaction join row: one sale record annotated with its
// product's label, category pair and cost price.
type SaleLine struct {
	ItemNumber  int
	Label       string
	Category    string
	Subcategory string
	UnitCost    float64
	UnitRetail  float64
	Quantity    int
	FromDate    time.Time
	ToDate      time.Time
}

// SubtotalItemNumber marks synthetic subtotal rows in a report sequence.
const SubtotalItemNumber = -1

// SubtotalLabel is the label carried by every subtotal row.
const SubtotalLabel = "Sub Total"

// AnalyticsRow is one line of the item+subtotal report. Subtotal rows carry
// SubtotalItemNumber, the SubtotalLabel, zero unit prices and the group's
// category/subcategory.
type AnalyticsRow struct {
	ItemNumber    int     `json:"item_number"`
	Label         string  `json:"label"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	UnitCost      float64 `json:"unit_cost"`
	UnitRetail    float64 `json:"unit_retail"`
	TotalQuantity int     `json:"total_quantity"`
	TotalCost     float64 `json:"total_cost"`
	TotalRetail   float64 `json:"total_retail"`
}

// IsSubtotal reports whether the row is a synthetic group subtotal.
func (r AnalyticsRow) IsSubtotal() bool {
	return r.ItemNumber == SubtotalItemNumber
}

// WeeklyRow is an item row annotated with the quantity allocated to each
// week bucket, keyed by the bucket label ("YYYY-MM-DD to YYYY-MM-DD").
type WeeklyRow struct {
	AnalyticsRow
	WeeklySales map[string]int `json:"weekly_sales"`
}

type ReportRequest struct {
	FromDate      string   `json:"from_date"`
	ToDate        string   `json:"to_date"`
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
}

type ReportResponse struct {
	FromDate string         `json:"from_date"`
	ToDate   string         `json:"to_date"`
	Rows     []AnalyticsRow `json:"rows"`
}

type WeeklyReportRequest struct {
	FromDate   string   `json:"from_date"`
	ToDate     string   `json:"to_date"`
	Categories []string `json:"categories"`
}

type WeeklyReportResponse struct {
	FromDate string      `json:"from_date"`
	ToDate   string      `json:"to_date"`
	Weeks    []string    `json:"weeks"`
	Rows     []WeeklyRow `json:"rows"`
}

type DistributionRequest struct {
	FromDate  string   `json:"from_date"`
	ToDate    string   `json:"to_date"`
	Dimension string   `json:"dimension"`
	Selection []string `json:"selection"`
}

type DistributionResponse struct {
	Dimension    string         `json:"dimension"`
	Distribution map[string]int `json:"distribution"`
}

type TrendRequest struct {
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	Dimension string `json:"dimension"`
	Key       string `json:"key"`
}

type TrendResponse struct {
	Dimension string                    `json:"dimension"`
	Key       string                    `json:"key"`
	Series    map[string]map[string]int `json:"series"`
}

// ImportSummary reports the outcome of a CSV import.
type ImportSummary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type AnalystCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AnalystUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
