package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/menu"
	"cafepos/backend/internal/store"
)

// Reset scopes. "all" expands to everything except stock; narrower scopes
// drag in what they depend on: a transactions wipe takes its voids, and a
// product or category wipe takes the order lines that reference the catalog.
// Stock is independent and only combines when asked for.
const (
	ScopeAll          = "all"
	ScopeTransactions = "transactions"
	ScopeVoids        = "voids"
	ScopeUsers        = "users"
	ScopeCategories   = "categories"
	ScopeProducts     = "products"
	ScopeStock        = "stock"
)

const defaultStockQty = 100

// normalizeScopes expands and validates the requested scope list. An empty
// list means a full reset.
func normalizeScopes(scopes []string) (map[string]bool, error) {
	resolved := make(map[string]bool)
	if len(scopes) == 0 {
		scopes = []string{ScopeAll}
	}

	for _, raw := range scopes {
		scope := strings.ToLower(strings.TrimSpace(raw))
		switch scope {
		case ScopeAll:
			for _, s := range []string{ScopeTransactions, ScopeVoids, ScopeUsers, ScopeCategories, ScopeProducts} {
				resolved[s] = true
			}
		case ScopeTransactions:
			resolved[ScopeTransactions] = true
			resolved[ScopeVoids] = true
		case ScopeCategories:
			resolved[ScopeCategories] = true
			resolved[ScopeProducts] = true
			resolved[ScopeTransactions] = true
			resolved[ScopeVoids] = true
		case ScopeProducts:
			resolved[ScopeProducts] = true
			resolved[ScopeTransactions] = true
			resolved[ScopeVoids] = true
		case ScopeVoids, ScopeUsers, ScopeStock:
			resolved[scope] = true
		case "":
			continue
		default:
			return nil, fmt.Errorf("%w: unknown reset scope %q", store.ErrValidation, raw)
		}
	}

	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: no reset scope given", store.ErrValidation)
	}
	return resolved, nil
}

// Reset wipes the requested scopes in one atomic unit. Super admin only; a
// users reset spares the acting account and every super admin.
func (s *Service) Reset(ctx context.Context, req domain.ResetRequest) (*domain.ResetResponse, error) {
	actor, err := s.requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	resolved, err := normalizeScopes(req.Scope)
	if err != nil {
		return nil, err
	}

	qty := defaultStockQty
	if req.Qty != nil {
		qty = *req.Qty
	}

	plan := store.ResetPlan{
		Transactions: resolved[ScopeTransactions],
		Voids:        resolved[ScopeVoids],
		Users:        resolved[ScopeUsers],
		Categories:   resolved[ScopeCategories],
		Products:     resolved[ScopeProducts],
		Stock:        resolved[ScopeStock],
		StockQty:     qty,
		KeepUserID:   actor.UserID,
		ActorID:      actorIDPtr(actor),
		Seed:         menu.Default(),
	}

	if err := s.repo.BulkReset(ctx, plan); err != nil {
		return nil, err
	}

	scopes := make([]string, 0, len(resolved))
	for scope := range resolved {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	s.logger.Info().Strs("scopes", scopes).Int64("actorId", actor.UserID).Msg("bulk reset executed")
	return &domain.ResetResponse{OK: true, Scopes: scopes}, nil
}
