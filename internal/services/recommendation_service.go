package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/util"
	"backoffice/internal/warehouse"
	"backoffice/pkg/cache"

	"go.uber.org/zap"
)

// ErrNoWarehouseMapping is returned for products whose SKU yields no valid
// warehouse id. Such products simply have no recommendations.
var ErrNoWarehouseMapping = errors.New("product has no warehouse mapping")

const (
	defaultTopN = 10
	maxTopN     = 50
)

// RecommendationService serves precomputed association rules from the
// analytical warehouse. Incoming product references are opaque tokens and go
// through the same resolution as order items.
type RecommendationService struct {
	products *ProductService
	source   warehouse.RuleSource
	cache    *cache.Client // may be nil; caching is then disabled
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(products *ProductService, source warehouse.RuleSource, cacheClient *cache.Client, cacheTTL time.Duration) *RecommendationService {
	return &RecommendationService{
		products: products,
		source:   source,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ProductRecommendations is the response shape for a single product.
type ProductRecommendations struct {
	ProductID   string                      `json:"product_id"`
	WarehouseID int64                       `json:"warehouse_product_id"`
	Rules       []warehouse.AssociationRule `json:"rules"`
}

// CartRecommendations is the response shape for a cart of products.
type CartRecommendations struct {
	WarehouseIDs []int64                     `json:"warehouse_product_ids"`
	Rules        []warehouse.AssociationRule `json:"rules"`
}

// ForProduct resolves the token, derives the product's warehouse id and
// returns the top association rules for it.
func (s *RecommendationService) ForProduct(ctx context.Context, token string, topN int) (*ProductRecommendations, error) {
	topN = clampTopN(topN)

	product, err := s.products.LookupByToken(token)
	if err != nil {
		return nil, err
	}
	warehouseID, ok := product.DeriveWarehouseID()
	if !ok {
		return nil, fmt.Errorf("product %s: %w", product.ID, ErrNoWarehouseMapping)
	}

	cacheKey := fmt.Sprintf("dwh:rules:product:%d:%d", warehouseID, topN)
	var rules []warehouse.AssociationRule
	if s.cacheGet(ctx, cacheKey, &rules) {
		return &ProductRecommendations{ProductID: product.ID, WarehouseID: warehouseID, Rules: rules}, nil
	}

	rules, err = s.queryRules(ctx, func() ([]warehouse.AssociationRule, error) {
		return s.source.RulesForProduct(ctx, warehouseID, topN)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, rules)
	return &ProductRecommendations{ProductID: product.ID, WarehouseID: warehouseID, Rules: rules}, nil
}

// ForCart resolves every token in the cart and returns the top rules whose
// antecedents overlap the cart. Resolution is sequential and the first
// failure aborts, mirroring order-item normalization.
func (s *RecommendationService) ForCart(ctx context.Context, tokens []string, topN int) (*CartRecommendations, error) {
	topN = clampTopN(topN)

	warehouseIDs := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		product, err := s.products.LookupByToken(token)
		if err != nil {
			return nil, err
		}
		warehouseID, ok := product.DeriveWarehouseID()
		if !ok {
			return nil, fmt.Errorf("product %s: %w", product.ID, ErrNoWarehouseMapping)
		}
		warehouseIDs = append(warehouseIDs, warehouseID)
	}

	cacheKey := fmt.Sprintf("dwh:rules:cart:%s:%d", joinIDs(warehouseIDs), topN)
	var rules []warehouse.AssociationRule
	if s.cacheGet(ctx, cacheKey, &rules) {
		return &CartRecommendations{WarehouseIDs: warehouseIDs, Rules: rules}, nil
	}

	rules, err := s.queryRules(ctx, func() ([]warehouse.AssociationRule, error) {
		return s.source.RulesForCart(ctx, warehouseIDs, topN)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, rules)
	return &CartRecommendations{WarehouseIDs: warehouseIDs, Rules: rules}, nil
}

// Stats reports summary statistics of the warehouse's active rule set.
func (s *RecommendationService) Stats(ctx context.Context) (*warehouse.Stats, error) {
	return s.source.Stats(ctx)
}

func (s *RecommendationService) queryRules(ctx context.Context, query func() ([]warehouse.AssociationRule, error)) ([]warehouse.AssociationRule, error) {
	start := time.Now()
	rules, err := query()
	util.WarehouseQueryLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("warehouse rule query failed: %w", err)
	}
	return rules, nil
}

// cacheGet reports whether the key was served from cache. Cache errors are
// logged and treated as misses.
func (s *RecommendationService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("rule cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *RecommendationService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("rule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func clampTopN(topN int) int {
	if topN <= 0 {
		return defaultTopN
	}
	if topN > maxTopN {
		return maxTopN
	}
	return topN
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
