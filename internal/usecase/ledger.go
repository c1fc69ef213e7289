package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/config"
)

// defaultPriceKey is the pricing-table entry used for model ids no
// other key matches.
const defaultPriceKey = "default"

// UsageStore persists per-call usage rows.
type UsageStore interface {
	InsertUsage(ctx context.Context, rec domain.UsageRecord) error
}

// Ledger prices model calls and records them. Pricing is a pure
// computation over configured per-model rates; persistence is
// best-effort and never blocks the chat flow.
type Ledger struct {
	store  UsageStore
	prices map[string]config.ModelPricing
	logger *slog.Logger
}

// NewLedger creates a usage ledger. store may be nil, in which case
// costs are computed but nothing is persisted.
func NewLedger(store UsageStore, pricing config.PricingConfig, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		prices: pricing.Models,
		logger: logger,
	}
}

// Record computes the cost of one model call and persists a usage row.
// The cost is always returned; a persistence failure is logged as a
// warning and otherwise ignored.
func (l *Ledger) Record(ctx context.Context, userID int64, model string, usage domain.Usage) float64 {
	cost := l.Cost(model, usage)

	if l.store == nil {
		return cost
	}
	err := l.store.InsertUsage(ctx, domain.UsageRecord{
		UserID:       userID,
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUSD:      cost,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		l.logger.Warn("usage record not persisted",
			"user_id", userID, "model", model, "error", err)
	}
	return cost
}

// Cost computes the USD cost of one model call from configured rates.
func (l *Ledger) Cost(model string, usage domain.Usage) float64 {
	p, ok := l.lookupPrice(model)
	if !ok {
		l.logger.Warn("no pricing configured for model, cost recorded as zero", "model", model)
		return 0
	}
	return float64(usage.InputTokens)/1e6*p.InputPerMTok +
		float64(usage.OutputTokens)/1e6*p.OutputPerMTok
}

// lookupPrice resolves the rate for a model id: exact match first, then
// the longest configured key that prefixes the id. Prefix matching lets
// one "claude-sonnet-4" entry cover dated releases. A "default" entry,
// when configured, catches everything else.
func (l *Ledger) lookupPrice(model string) (config.ModelPricing, bool) {
	if p, ok := l.prices[model]; ok {
		return p, true
	}
	var best string
	for key := range l.prices {
		if key != defaultPriceKey && strings.HasPrefix(model, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return l.prices[best], true
	}
	if p, ok := l.prices[defaultPriceKey]; ok {
		return p, true
	}
	return config.ModelPricing{}, false
}
