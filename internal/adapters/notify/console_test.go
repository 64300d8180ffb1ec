package notify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcibot/calci/internal/adapters/notify"
	"github.com/calcibot/calci/internal/domain"
)

func makeOpp(ticker, title string, yesPrice, edge int) domain.Opportunity {
	return domain.Opportunity{
		Ticker:       ticker,
		EventTicker:  "EVT",
		Title:        title,
		YesPrice:     yesPrice,
		NoPrice:      100 - yesPrice,
		CloseTime:    time.Now().Add(48 * time.Hour),
		Volume:       1000,
		DaysToExpiry: 2,
		EdgeScore:    edge,
	}
}

func TestConsole_Notify_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	opps := []domain.Opportunity{
		makeOpp("KXRAIN-26", "Rain in NYC tomorrow?", 5, 80),
		makeOpp("KXFED-26", "Fed holds rates?", 92, 30),
	}

	err := n.Notify(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "KXRAIN-26")
	assert.Contains(t, out, "KXFED-26")
	assert.Contains(t, out, "fade:1 back:1")
	assert.Contains(t, out, "NO", "longshot is faded by buying NO")
	assert.Contains(t, out, "95c", "entry price for the fade")
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Notify(context.Background(), []domain.Opportunity{
		makeOpp("KXRAIN-26", "Rain in NYC tomorrow?", 5, 80),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1 opps")
	assert.Contains(t, out, "edge:80")
}

func TestConsole_Notify_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.Notify(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no opportunities found")
}

func TestConsole_Notify_LongTitleTruncated(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	longTitle := strings.Repeat("A", 60)
	err := n.Notify(context.Background(), []domain.Opportunity{
		makeOpp("KXLONG-26", longTitle, 5, 70),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "...")
}
