package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
)

const defaultPageSize = 1000

// Config controls the market scan.
type Config struct {
	PageSize int // markets per listing page, venue max 1000
}

// Result is the outcome of one full market scan.
type Result struct {
	Opportunities  []domain.Opportunity
	MarketsScanned int
	MarketsSkipped int // individual fetch failures, non-fatal
}

// Scanner pages through every open market and filters for favorite-longshot
// mispricings. It is a pure transform over fetched data: no writes anywhere.
type Scanner struct {
	gateway  ports.MarketGateway
	pageSize int
	now      func() time.Time
}

// New creates a Scanner over the given gateway.
func New(gateway ports.MarketGateway, cfg Config) *Scanner {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	return &Scanner{
		gateway:  gateway,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Scan paginates until the cursor is exhausted and returns every market that
// passes the mispricing + expiry filter, scored. A listing failure aborts the
// scan; a single market's orderbook failure only skips that market.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	var res Result
	now := s.now()
	cursor := ""

	for {
		page, err := s.gateway.GetMarkets(ctx, cursor, s.pageSize)
		if err != nil {
			return Result{}, fmt.Errorf("scanner.Scan: list markets: %w", err)
		}

		for _, m := range page.Markets {
			res.MarketsScanned++

			days := m.DaysToExpiry(now)
			if days < 0 || days > domain.MaxExpiryDays {
				continue
			}

			opp, ok, err := s.price(ctx, m, days)
			if err != nil {
				res.MarketsSkipped++
				slog.Debug("scanner: orderbook fetch failed, skipping market",
					"ticker", m.Ticker, "err", err)
				continue
			}
			if ok {
				res.Opportunities = append(res.Opportunities, opp)
			}
		}

		if page.Cursor == "" || len(page.Markets) == 0 {
			break
		}
		cursor = page.Cursor
	}

	return res, nil
}

// price derives both contract prices from the orderbook and applies the
// mispricing filter. A market missing bids on either side cannot be priced
// and is dropped without error.
func (s *Scanner) price(ctx context.Context, m domain.Market, days float64) (domain.Opportunity, bool, error) {
	book, err := s.gateway.GetOrderbook(ctx, m.Ticker)
	if err != nil {
		return domain.Opportunity{}, false, err
	}

	bestNo, okNo := book.BestNoBid()
	bestYes, okYes := book.BestYesBid()
	if !okNo || !okYes {
		return domain.Opportunity{}, false, nil
	}

	yesPrice := 100 - bestNo
	noPrice := 100 - bestYes
	if !domain.ValidPrice(yesPrice) || !domain.ValidPrice(noPrice) {
		return domain.Opportunity{}, false, nil
	}
	if yesPrice > domain.YesLowThreshold && yesPrice < domain.YesHighThreshold {
		return domain.Opportunity{}, false, nil
	}

	return domain.Opportunity{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		YesPrice:     yesPrice,
		NoPrice:      noPrice,
		CloseTime:    m.CloseTime,
		Volume:       m.Volume,
		DaysToExpiry: days,
		EdgeScore:    domain.EdgeScore(yesPrice, m.Volume, days),
	}, true, nil
}
