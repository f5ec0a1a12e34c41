package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/cache"
	"scottys/backend/internal/csvio"
	"scottys/backend/internal/domain"
	"scottys/backend/internal/store"
)

// ErrForbidden is returned when the acting user lacks the role an operation
// requires.
var ErrForbidden = errors.New("forbidden")

type actorKey struct{}

// WithActor attaches the authenticated actor to the request context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrForbidden
	}
	return nil
}

// Service wires the repository, the analytics engine and the report cache
// behind one application-facing API.
type Service struct {
	repo     store.Repository
	engine   *analytics.Engine
	cache    cache.ReportCache
	cacheTTL time.Duration
}

func New(repo store.Repository, engine *analytics.Engine, reportCache cache.ReportCache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		cache:    reportCache,
		cacheTTL: cacheTTL,
	}
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(domain.DateFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", value, store.ErrInvalidInput)
	}
	return t, nil
}

func parseWindow(fromDate, toDate string) (time.Time, time.Time, error) {
	from, err := parseDate(fromDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(toDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// cacheKey digests an operation name plus its request payload.
func cacheKey(op string, request any) string {
	payload, err := json.Marshal(request)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(append([]byte(op+":"), payload...))
	return hex.EncodeToString(sum[:])
}

func (s *Service) cachedResponse(ctx context.Context, key string, out any) bool {
	if key == "" {
		return false
	}
	payload, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Printf("[service] dropping bad cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (s *Service) storeResponse(ctx context.Context, key string, response any) {
	if key == "" {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload, s.cacheTTL)
}

// AnalyticsReport computes the item+subtotal report for the request window
// and category filter. Responses are cached.
func (s *Service) AnalyticsReport(ctx context.Context, req domain.ReportRequest) (*domain.ReportResponse, error) {
	key := cacheKey("report", req)
	var cached domain.ReportResponse
	if s.cachedResponse(ctx, key, &cached) {
		return &cached, nil
	}

	from, to, err := parseWindow(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}
	spec, err := analytics.NewFilterSpec(from, to, req.Categories, req.Subcategories)
	if err != nil {
		return nil, err
	}

	rows, err := s.engine.Report(ctx, spec)
	if err != nil {
		return nil, err
	}

	response := &domain.ReportResponse{
		FromDate: spec.From.Format(domain.DateFormat),
		ToDate:   spec.To.Format(domain.DateFormat),
		Rows:     rows,
	}
	s.storeResponse(ctx, key, response)
	return response, nil
}

// WeeklyReport computes per-item weekly allocations across the window's week
// buckets. Responses are cached.
func (s *Service) WeeklyReport(ctx context.Context, req domain.WeeklyReportRequest) (*domain.WeeklyReportResponse, error) {
	key := cacheKey("weekly", req)
	var cached domain.WeeklyReportResponse
	if s.cachedResponse(ctx, key, &cached) {
		return &cached, nil
	}

	from, to, err := parseWindow(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}
	spec, err := analytics.NewFilterSpec(from, to, req.Categories, nil)
	if err != nil {
		return nil, err
	}
	buckets, err := analytics.WeekBuckets(spec.From, spec.To)
	if err != nil {
		return nil, err
	}

	rows, err := s.engine.WeeklyReport(ctx, spec, buckets)
	if err != nil {
		return nil, err
	}

	response := &domain.WeeklyReportResponse{
		FromDate: spec.From.Format(domain.DateFormat),
		ToDate:   spec.To.Format(domain.DateFormat),
		Weeks:    analytics.BucketLabels(buckets),
		Rows:     rows,
	}
	s.storeResponse(ctx, key, response)
	return response, nil
}

// Distribution totals quantity per dimension value over the window.
func (s *Service) Distribution(ctx context.Context, req domain.DistributionRequest) (*domain.DistributionResponse, error) {
	from, to, err := parseWindow(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}
	dim, err := analytics.ParseDimension(req.Dimension)
	if err != nil {
		return nil, err
	}

	distribution, err := s.engine.Distribution(ctx, from, to, dim, req.Selection)
	if err != nil {
		return nil, err
	}
	return &domain.DistributionResponse{Dimension: string(dim), Distribution: distribution}, nil
}

// Trend produces quantity-by-date series for one dimension key.
func (s *Service) Trend(ctx context.Context, req domain.TrendRequest) (*domain.TrendResponse, error) {
	from, to, err := parseWindow(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}
	dim, err := analytics.ParseDimension(req.Dimension)
	if err != nil {
		return nil, err
	}

	series, err := s.engine.Trend(ctx, from, to, dim, req.Key)
	if err != nil {
		return nil, err
	}
	return &domain.TrendResponse{Dimension: string(dim), Key: req.Key, Series: series}, nil
}

// ExportReport writes the report as CSV to w.
func (s *Service) ExportReport(ctx context.Context, req domain.ReportRequest, w io.Writer) error {
	response, err := s.AnalyticsReport(ctx, req)
	if err != nil {
		return err
	}
	return csvio.WriteReport(w, response.Rows)
}

// ExportWeeklyReport writes the weekly report as CSV to w.
func (s *Service) ExportWeeklyReport(ctx context.Context, req domain.WeeklyReportRequest, w io.Writer) error {
	response, err := s.WeeklyReport(ctx, req)
	if err != nil {
		return err
	}
	return csvio.WriteWeeklyReport(w, response.Weeks, response.Rows)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, itemNumber int) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, itemNumber)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	product, err := s.repo.CreateProduct(ctx, domain.Product{
		ItemNumber:  req.ItemNumber,
		Label:       strings.TrimSpace(req.Label),
		Category:    strings.TrimSpace(req.Category),
		Subcategory: strings.TrimSpace(req.Subcategory),
		Price:       req.Price,
		RecStatus:   domain.RecStatusActive,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, itemNumber int, req domain.ProductUpdateRequest) (*domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	current, err := s.repo.GetProduct(ctx, itemNumber)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		current.Label = strings.TrimSpace(*req.Label)
	}
	if req.Category != nil {
		current.Category = strings.TrimSpace(*req.Category)
	}
	if req.Subcategory != nil {
		current.Subcategory = strings.TrimSpace(*req.Subcategory)
	}
	if req.Price != nil {
		current.Price = *req.Price
	}
	if req.RecStatus != nil {
		if *req.RecStatus != domain.RecStatusActive && *req.RecStatus != domain.RecStatusInactive {
			return nil, fmt.Errorf("bad rec status %q: %w", *req.RecStatus, store.ErrInvalidInput)
		}
		current.RecStatus = *req.RecStatus
	}

	updated, err := s.repo.UpdateProduct(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, itemNumber int) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, itemNumber); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	entry, err := s.repo.CreateCategory(ctx, strings.TrimSpace(req.Category), strings.TrimSpace(req.Subcategory))
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return entry, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int, req domain.CategoryRequest) (*domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	entry, err := s.repo.UpdateCategory(ctx, domain.Category{
		ID:          id,
		Category:    strings.TrimSpace(req.Category),
		Subcategory: strings.TrimSpace(req.Subcategory),
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return entry, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *Service) ListStores(ctx context.Context) ([]domain.StoreLocation, error) {
	return s.repo.ListStores(ctx)
}

func (s *Service) CreateStore(ctx context.Context, req domain.StoreLocationRequest) (*domain.StoreLocation, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.CreateStore(ctx, domain.StoreLocation{
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
	})
}

func (s *Service) UpdateStore(ctx context.Context, id int, req domain.StoreLocationRequest) (*domain.StoreLocation, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.UpdateStore(ctx, domain.StoreLocation{
		ID:       id,
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
	})
}

func (s *Service) DeleteStore(ctx context.Context, id int) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteStore(ctx, id)
}

// ListSales returns the raw sale transactions fully inside the window.
func (s *Service) ListSales(ctx context.Context, fromDate, toDate string) ([]domain.Sale, error) {
	from, to, err := parseWindow(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, from, to)
}

// ImportProducts parses the product master CSV and add-or-updates each row.
// Categories referenced by the rows are registered as a side effect, matching
// the POS export workflow where the product file arrives first.
func (s *Service) ImportProducts(ctx context.Context, r io.Reader) (*domain.ImportSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	products, skipped, err := csvio.ParseProducts(r)
	if err != nil {
		return nil, fmt.Errorf("parse products csv: %w", err)
	}

	summary := &domain.ImportSummary{Skipped: skipped}
	for _, product := range products {
		if _, err := s.repo.CreateCategory(ctx, product.Category, product.Subcategory); err != nil {
			log.Printf("[service] register category %s/%s: %v", product.Category, product.Subcategory, err)
		}
		created, err := s.repo.UpsertProduct(ctx, product)
		if err != nil {
			summary.Skipped++
			continue
		}
		if created {
			summary.Added++
		} else {
			summary.Updated++
		}
	}
	s.cache.Invalidate(ctx)
	return summary, nil
}

// ImportSales parses the sales CSV and appends every valid row.
func (s *Service) ImportSales(ctx context.Context, r io.Reader) (*domain.ImportSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	sales, skipped, err := csvio.ParseSales(r)
	if err != nil {
		return nil, fmt.Errorf("parse sales csv: %w", err)
	}

	added, err := s.repo.InsertSales(ctx, sales)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return &domain.ImportSummary{Added: added, Skipped: skipped + len(sales) - added}, nil
}

// ImportCategories parses the category CSV and registers each pair. Already
// registered pairs count as updated.
func (s *Service) ImportCategories(ctx context.Context, r io.Reader) (*domain.ImportSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	categories, skipped, err := csvio.ParseCategories(r)
	if err != nil {
		return nil, fmt.Errorf("parse categories csv: %w", err)
	}

	existing, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.Category+"\x00"+c.Subcategory] = true
	}

	summary := &domain.ImportSummary{Skipped: skipped}
	for _, req := range categories {
		pair := req.Category + "\x00" + req.Subcategory
		if seen[pair] {
			summary.Updated++
			continue
		}
		if _, err := s.repo.CreateCategory(ctx, req.Category, req.Subcategory); err != nil {
			summary.Skipped++
			continue
		}
		seen[pair] = true
		summary.Added++
	}
	s.cache.Invalidate(ctx)
	return summary, nil
}
