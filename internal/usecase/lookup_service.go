package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fridge/backend/internal/domain"
	"github.com/fridge/backend/internal/infrastructure/openfoodfacts"
)

// LookupService resolves a barcode to a canonical product record.
// Flow: try the optional local lookup tool first, fall back to the public
// REST API, normalize whichever payload arrived. A fresh result is built
// per call; nothing is cached or retried, a failed scan is simply
// rescanned by the user.
type LookupService struct {
	tool domain.LookupTool
	rest domain.FoodFactsClient
}

// NewLookupService creates a lookup service. tool may be nil when no
// local tool client was constructed at all.
func NewLookupService(tool domain.LookupTool, rest domain.FoodFactsClient) *LookupService {
	return &LookupService{
		tool: tool,
		rest: rest,
	}
}

// LookupBarcode fetches and normalizes product data for a barcode.
// Returns domain.ErrProductNotFound when no source has data (including
// REST timeouts), domain.ErrToolNotConfigured when opts.RequireLocalTool
// is set without a deployed tool, and domain.ErrLookupTransport when a
// required tool fails or for non-timeout network failures on the REST
// path.
func (s *LookupService) LookupBarcode(ctx context.Context, barcode string, opts domain.LookupOptions) (*domain.ProductLookupResult, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	if raw, ok, err := s.tryLocalTool(ctx, barcode, opts); err != nil {
		return nil, err
	} else if ok {
		return openfoodfacts.Normalize(raw, barcode), nil
	}

	raw, err := s.rest.FetchProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	return openfoodfacts.Normalize(raw, barcode), nil
}

// tryLocalTool attempts the local tool path. ok reports whether a payload
// was obtained; any tool failure other than a strict-mode configuration
// problem degrades silently to the REST fallback.
func (s *LookupService) tryLocalTool(ctx context.Context, barcode string, opts domain.LookupOptions) (map[string]interface{}, bool, error) {
	if s.tool == nil || !s.tool.Configured() {
		if opts.RequireLocalTool {
			return nil, false, domain.ErrToolNotConfigured
		}
		return nil, false, nil
	}

	raw, err := s.tool.GetProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrToolNotConfigured) {
			if opts.RequireLocalTool {
				return nil, false, err
			}
			return nil, false, nil
		}
		if opts.RequireLocalTool {
			// A deployed tool that fails is a transport problem, not a
			// configuration one.
			return nil, false, fmt.Errorf("%w: %v", domain.ErrLookupTransport, err)
		}
		log.Printf("[lookup] local tool failed for barcode %q, falling back to REST: %v", barcode, err)
		return nil, false, nil
	}

	return raw, true, nil
}
