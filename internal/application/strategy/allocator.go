package strategy

import (
	"sort"

	"github.com/calcibot/calci/internal/domain"
)

const (
	defaultMaxPositionPct = 20 // per-market cap, % of balance
	defaultCashReservePct = 20 // never-deployed fraction, % of balance
)

// Config bounds how much of the bankroll a single cycle may commit.
type Config struct {
	MaxPositionPct int
	CashReservePct int
}

// Allocator turns scored opportunities into sized trade intents under the
// bankroll caps. It holds no state between cycles: every call sizes from the
// balance and positions it is given.
type Allocator struct {
	maxPositionPct int64
	cashReservePct int64
}

// New creates an Allocator. Zero or out-of-range percentages fall back to the
// defaults.
func New(cfg Config) *Allocator {
	maxPos := int64(cfg.MaxPositionPct)
	if maxPos <= 0 || maxPos > 100 {
		maxPos = defaultMaxPositionPct
	}
	reserve := int64(cfg.CashReservePct)
	if reserve < 0 || reserve >= 100 {
		reserve = defaultCashReservePct
	}
	return &Allocator{maxPositionPct: maxPos, cashReservePct: reserve}
}

// Select ranks opportunities by edge and sizes each into a buy intent until
// the deployable bankroll is spent. Markets already held are excluded so a
// position is never doubled. Opportunities that cannot afford a single
// contract are skipped, not partially filled.
func (a *Allocator) Select(opps []domain.Opportunity, balance int64, positions []domain.Position) []domain.TradeIntent {
	if balance <= 0 || len(opps) == 0 {
		return nil
	}

	held := make(map[string]bool, len(positions))
	for _, p := range positions {
		held[p.Ticker] = true
	}

	ranked := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if !held[opp.Ticker] {
			ranked = append(ranked, opp)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].EdgeScore != ranked[j].EdgeScore {
			return ranked[i].EdgeScore > ranked[j].EdgeScore
		}
		if ranked[i].Volume != ranked[j].Volume {
			return ranked[i].Volume > ranked[j].Volume
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	available := balance * (100 - a.cashReservePct) / 100
	maxPerMarket := balance * a.maxPositionPct / 100

	var intents []domain.TradeIntent
	var spent int64
	for _, opp := range ranked {
		if spent >= available {
			break
		}

		price := int64(opp.EntryPrice())
		budget := min(maxPerMarket, available-spent)
		qty := budget / price
		if qty < 1 {
			continue
		}

		intents = append(intents, domain.TradeIntent{
			Ticker:      opp.Ticker,
			EventTicker: opp.EventTicker,
			Side:        opp.Side(),
			Action:      domain.ActionBuy,
			Price:       int(price),
			Quantity:    int(qty),
		})
		spent += qty * price
	}
	return intents
}
