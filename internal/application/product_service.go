package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	"github.com/oksasatya/greenloop/internal/observability"
)

// ProductClassifier is the AI half of product search.
type ProductClassifier interface {
	Classify(ctx context.Context, product string) (*ai.Classification, error)
}

type ProductOriginal struct {
	Name     string `json:"name"`
	EcoScore int    `json:"ecoScore,omitempty"`
	Category string `json:"category,omitempty"`
}

type ProductSwap struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	EcoScore    int    `json:"ecoScore"`
	SearchQuery string `json:"searchQuery,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ProductResult is the answer to a product search. Found=false means no
// more sustainable alternative is known.
type ProductResult struct {
	Found    bool             `json:"found"`
	Original *ProductOriginal `json:"original,omitempty"`
	Swap     *ProductSwap     `json:"swap,omitempty"`
	Source   string           `json:"source,omitempty"` // catalog, ai
}

// ProductService resolves a product name to a sustainable swap: catalog
// first, then the cache, then the model.
type ProductService struct {
	Classifier ProductClassifier
	Cache      ProductCache
	TTL        time.Duration
	Metrics    *observability.Metrics
	Logger     *logrus.Logger
}

func NewProductService(c ProductClassifier, cache ProductCache, ttl time.Duration, m *observability.Metrics, logger *logrus.Logger) *ProductService {
	return &ProductService{Classifier: c, Cache: cache, TTL: ttl, Metrics: m, Logger: logger}
}

// NormalizeQuery lowercases and collapses whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Search returns ErrAIUnavailable only when the model call itself fails.
func (s *ProductService) Search(ctx context.Context, query string) (*ProductResult, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return &ProductResult{Found: false}, nil
	}

	if e, ok := lookupCatalog(q); ok {
		s.Metrics.Classification("catalog")
		swap := e.Swap
		return &ProductResult{
			Found:    true,
			Original: &ProductOriginal{Name: e.Name, EcoScore: e.EcoScore, Category: string(e.Category)},
			Swap:     &swap,
			Source:   "catalog",
		}, nil
	}

	key := "product:classify:" + q
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached ProductResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.Metrics.Classification("cache")
				return &cached, nil
			}
		}
	}

	if s.Classifier == nil {
		return nil, ErrAIUnavailable
	}
	c, err := s.Classifier.Classify(ctx, q)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("query", q).Error("product classification failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	res := &ProductResult{Found: false}
	if c.HasSwap() {
		name := c.OriginalName
		if name == "" {
			name = query
		}
		res = &ProductResult{
			Found:    true,
			Original: &ProductOriginal{Name: name},
			Swap: &ProductSwap{
				Name:        c.Swap.Name,
				Description: c.Swap.Description,
				EcoScore:    clampScore(c.Swap.EcoScore),
				SearchQuery: c.Swap.SearchQuery,
			},
			Source: "ai",
		}
		s.Metrics.Classification("found")
	} else {
		s.Metrics.Classification("not_found")
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			s.Cache.Set(ctx, key, raw, s.TTL)
		}
	}
	return res, nil
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
