// Package oracle performs cross-symbol value conversion between the
// native gas token and an ERC-20 fee token. Calls to the underlying
// Quoter are serialized behind a single exclusive lease — a plain
// sync.Mutex held across the whole provider call, since the I/O itself
// is the critical section, not a value it protects.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Quoter answers cross-symbol conversion queries. Implementations may be
// backed by a remote price service or, in tests, a fixed rate table.
type Quoter interface {
	// Rate returns how many units of toSymbol one unit of fromSymbol is
	// worth, as a float64 (market price providers speak in floats; the
	// fee guard that consumes this value keeps its own arithmetic in
	// integers, in internal/queue).
	Rate(ctx context.Context, fromSymbol, toSymbol string) (float64, error)
}

// Oracle serializes calls to a Quoter behind a single exclusive lease.
type Oracle struct {
	quoter Quoter
	mu     sync.Mutex
}

// New wraps a Quoter with the exclusive-lease discipline.
func New(q Quoter) *Oracle {
	return &Oracle{quoter: q}
}

// ErrPriceOracle wraps any failure from the underlying Quoter as a
// distinct, identifiable price-oracle error.
type ErrPriceOracle struct{ Err error }

func (e *ErrPriceOracle) Error() string { return fmt.Sprintf("price-oracle error: %v", e.Err) }
func (e *ErrPriceOracle) Unwrap() error { return e.Err }

// Swap converts amount (in from-units, at fromDecimals) into to-units at
// toDecimals, scaling by the oracle's from->to rate. When the symbols
// match, the rate is exactly 1 and the result is a pure decimal rescale.
func (o *Oracle) Swap(ctx context.Context, fromSymbol string, fromDecimals uint8, amount *big.Int, toSymbol string, toDecimals uint8) (*big.Int, error) {
	var rate float64 = 1
	if !strings.EqualFold(fromSymbol, toSymbol) {
		o.mu.Lock()
		r, err := o.quoter.Rate(ctx, fromSymbol, toSymbol)
		o.mu.Unlock()
		if err != nil {
			return nil, &ErrPriceOracle{Err: err}
		}
		rate = r
	}

	// Scale by the decimal delta first using exact integer arithmetic, then
	// apply the float rate as a single multiplication at the end — bounds
	// how much of the computation is float-tainted to just the market rate
	// itself.
	scaled := new(big.Int).Set(amount)
	if toDecimals > fromDecimals {
		diff := int(toDecimals - fromDecimals)
		scaled.Mul(scaled, pow10(diff))
	} else if fromDecimals > toDecimals {
		diff := int(fromDecimals - toDecimals)
		scaled.Div(scaled, pow10(diff))
	}

	if rate == 1 {
		return scaled, nil
	}
	scaledFloat := new(big.Float).SetInt(scaled)
	result := new(big.Float).Mul(scaledFloat, big.NewFloat(rate))
	out, _ := result.Int(nil)
	return out, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// StaticQuoter is a fixed from->to rate table, for tests and local
// development without a live price-service dependency.
type StaticQuoter struct {
	Rates map[string]float64 // key: "FROM/TO", upper-cased
}

func (s *StaticQuoter) Rate(_ context.Context, from, to string) (float64, error) {
	key := strings.ToUpper(from) + "/" + strings.ToUpper(to)
	r, ok := s.Rates[key]
	if !ok {
		return 0, fmt.Errorf("oracle: no static rate configured for %s", key)
	}
	return r, nil
}

// HTTPQuoter calls a configured token-price HTTP endpoint to answer
// cross-symbol conversion queries.
type HTTPQuoter struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPQuoter builds an HTTPQuoter with sane request timeouts.
func NewHTTPQuoter(baseURL, apiKey string) *HTTPQuoter {
	return &HTTPQuoter{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (h *HTTPQuoter) Rate(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s/v1/convert?from=%s&to=%s", h.BaseURL, strings.ToUpper(from), strings.ToUpper(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if h.APIKey != "" {
		req.Header.Set("X-CMC_PRO_API_KEY", h.APIKey)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("oracle: price service returned status %d", resp.StatusCode)
	}
	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := decodeJSON(resp.Body, &body); err != nil {
		return 0, err
	}
	return body.Rate, nil
}
