package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcibot/calci/internal/domain"
)

func opp(ticker string, yesPrice, edge int, volume int64) domain.Opportunity {
	return domain.Opportunity{
		Ticker:       ticker,
		EventTicker:  "EVT-" + ticker,
		YesPrice:     yesPrice,
		NoPrice:      100 - yesPrice,
		CloseTime:    time.Now().Add(48 * time.Hour),
		Volume:       volume,
		DaysToExpiry: 2,
		EdgeScore:    edge,
	}
}

func TestSelect_SizesLongshotFadeUnderCaps(t *testing.T) {
	a := New(Config{})

	// $1,000 bankroll, one sub-10c market: fade it by buying NO at 95.
	intents := a.Select([]domain.Opportunity{opp("KXRAIN-26", 5, 80, 1000)}, 100_000, nil)
	require.Len(t, intents, 1)

	got := intents[0]
	assert.Equal(t, domain.SideNo, got.Side)
	assert.Equal(t, domain.ActionBuy, got.Action)
	assert.Equal(t, 95, got.Price)
	// 20% per-market cap = $200 = 20000c; 20000/95 = 210 contracts.
	assert.Equal(t, 210, got.Quantity)
	assert.Equal(t, int64(19_950), got.Cost())
}

func TestSelect_FavoriteGetsYesSide(t *testing.T) {
	a := New(Config{})

	intents := a.Select([]domain.Opportunity{opp("KXFED-26", 90, 40, 1000)}, 100_000, nil)
	require.Len(t, intents, 1)
	assert.Equal(t, domain.SideYes, intents[0].Side)
	assert.Equal(t, 90, intents[0].Price)
}

func TestSelect_HeldMarketsExcluded(t *testing.T) {
	a := New(Config{})

	opps := []domain.Opportunity{
		opp("KXHELD-26", 5, 90, 1000),
		opp("KXFRESH-26", 7, 60, 1000),
	}
	positions := []domain.Position{{Ticker: "KXHELD-26", Quantity: 50}}

	intents := a.Select(opps, 100_000, positions)
	require.Len(t, intents, 1)
	assert.Equal(t, "KXFRESH-26", intents[0].Ticker)
}

func TestSelect_RanksByEdgeThenVolumeThenTicker(t *testing.T) {
	a := New(Config{})

	opps := []domain.Opportunity{
		opp("KXB-26", 5, 70, 100),
		opp("KXA-26", 5, 70, 500),
		opp("KXC-26", 8, 90, 50),
		opp("KXE-26", 5, 70, 100),
	}

	// Plenty of bankroll so ordering alone decides the intent order.
	intents := a.Select(opps, 10_000_000, nil)
	require.Len(t, intents, 4)
	assert.Equal(t, "KXC-26", intents[0].Ticker, "highest edge first")
	assert.Equal(t, "KXA-26", intents[1].Ticker, "volume breaks edge ties")
	assert.Equal(t, "KXB-26", intents[2].Ticker, "ticker breaks volume ties")
	assert.Equal(t, "KXE-26", intents[3].Ticker)
}

func TestSelect_RespectsCashReserve(t *testing.T) {
	a := New(Config{})

	opps := []domain.Opportunity{
		opp("KXA-26", 5, 90, 1000),
		opp("KXB-26", 5, 85, 1000),
		opp("KXC-26", 5, 80, 1000),
		opp("KXD-26", 5, 75, 1000),
		opp("KXE-26", 5, 70, 1000),
		opp("KXF-26", 5, 65, 1000),
	}

	intents := a.Select(opps, 100_000, nil)

	var total int64
	for _, in := range intents {
		total += in.Cost()
		assert.LessOrEqual(t, in.Cost(), int64(20_000), "per-market cap")
	}
	assert.LessOrEqual(t, total, int64(80_000), "20%% stays in reserve")
	// Four full positions fit (4 x 19950 = 79800); the fifth gets the scraps.
	assert.GreaterOrEqual(t, len(intents), 4)
}

func TestSelect_SkipsUnaffordableSingleContract(t *testing.T) {
	a := New(Config{})

	// 20% of 400c = 80c budget, below the 95c entry price.
	intents := a.Select([]domain.Opportunity{opp("KXA-26", 5, 90, 1000)}, 400, nil)
	assert.Empty(t, intents)
}

func TestSelect_EmptyInputs(t *testing.T) {
	a := New(Config{})
	assert.Empty(t, a.Select(nil, 100_000, nil))
	assert.Empty(t, a.Select([]domain.Opportunity{opp("KXA-26", 5, 90, 10)}, 0, nil))
}
