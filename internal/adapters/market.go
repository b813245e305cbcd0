package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptofunk/engine/internal/temporal"
)

// PriceSource implements temporal.PriceAdapter over a generic REST market
// data provider (CoinGecko/CCXT-shaped response assumed). Grounded on
// original_source/core/data/exchange_client.py's OHLCV fetch, re-expressed
// against the HTTPSource client.
type PriceSource struct {
	http *HTTPSource
}

// NewPriceSource constructs a PriceSource.
func NewPriceSource(http *HTTPSource) *PriceSource { return &PriceSource{http: http} }

type priceResponse struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *PriceSource) GetPrice(ctx context.Context, symbol string) (float64, time.Time, error) {
	var resp priceResponse
	if err := p.http.Get(ctx, "/price?symbol="+symbol, &resp); err != nil {
		return 0, time.Time{}, fmt.Errorf("adapters: price lookup for %s: %w", symbol, err)
	}
	return resp.Price, resp.Timestamp, nil
}

type ohlcvResponse struct {
	Bars []temporal.OHLCVBar `json:"bars"`
}

func (p *PriceSource) GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]temporal.OHLCVBar, error) {
	path := fmt.Sprintf("/ohlcv?symbol=%s&timeframe=%s&limit=%d", symbol, timeframe, limit)
	var resp ohlcvResponse
	if err := p.http.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("adapters: ohlcv lookup for %s: %w", symbol, err)
	}
	return resp.Bars, nil
}

// NewsSource implements temporal.NewsAdapter over a news-search API.
// Grounded on original_source/core/data/news_aggregator.py.
type NewsSource struct {
	http *HTTPSource
}

func NewNewsSource(http *HTTPSource) *NewsSource { return &NewsSource{http: http} }

type newsSearchResponse struct {
	Items []temporal.NewsItem `json:"items"`
}

func (n *NewsSource) Search(ctx context.Context, query string, symbols []string, limit int, publishedBefore time.Time) ([]temporal.NewsItem, error) {
	body := map[string]any{
		"query":            query,
		"symbols":          symbols,
		"limit":            limit,
		"published_before": publishedBefore,
	}
	var resp newsSearchResponse
	if err := n.http.Post(ctx, "/news/search", body, &resp); err != nil {
		return nil, fmt.Errorf("adapters: news search %q: %w", query, err)
	}
	return resp.Items, nil
}

// FinancialsSource implements temporal.FinancialsAdapter over a
// fundamentals/on-chain-metrics API. Grounded on
// original_source/core/data/onchain_client.py.
type FinancialsSource struct {
	http *HTTPSource
}

func NewFinancialsSource(http *HTTPSource) *FinancialsSource { return &FinancialsSource{http: http} }

type financialsResponse struct {
	Reports []temporal.FinancialReport `json:"reports"`
}

func (f *FinancialsSource) GetReports(ctx context.Context, symbol, reportType string, releasedBefore time.Time) ([]temporal.FinancialReport, error) {
	path := fmt.Sprintf("/financials?symbol=%s&type=%s&released_before=%s", symbol, reportType, releasedBefore.Format(time.RFC3339))
	var resp financialsResponse
	if err := f.http.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("adapters: financials lookup for %s: %w", symbol, err)
	}
	return resp.Reports, nil
}

// SentimentSource implements temporal.SentimentAdapter over a social/news
// sentiment aggregation API. Grounded on
// original_source/core/data/sentiment_aggregator.py.
type SentimentSource struct {
	http *HTTPSource
}

func NewSentimentSource(http *HTTPSource) *SentimentSource { return &SentimentSource{http: http} }

func (s *SentimentSource) GetSentiment(ctx context.Context, symbol string, asOf time.Time) (*temporal.SentimentReading, error) {
	path := fmt.Sprintf("/sentiment?symbol=%s&as_of=%s", symbol, asOf.Format(time.RFC3339))
	var reading temporal.SentimentReading
	if err := s.http.Get(ctx, path, &reading); err != nil {
		return nil, fmt.Errorf("adapters: sentiment lookup for %s: %w", symbol, err)
	}
	return &reading, nil
}
