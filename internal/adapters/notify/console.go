// Package notify prints scan results to the console.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/calcibot/calci/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify prints the cycle's opportunities in the configured mode.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}
	return nil
}

// printCompact prints the essentials on one line.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	longshots, favorites := countBySide(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d opps → fade:%d back:%d", now, len(opps), longshots, favorites)

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s@%dc edge:%d",
			truncate(opp.Ticker, 20), strings.ToUpper(string(opp.Side())),
			opp.EntryPrice(), opp.EdgeScore)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull prints the whole list as a table.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	longshots, favorites := countBySide(opps)

	fmt.Fprintf(c.out, "\n[%s] %d opportunities — fade:%d back:%d\n",
		now, len(opps), longshots, favorites)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "Title", "Yes", "Buy", "Entry", "Vol", "Expires", "Edge")

	for i, opp := range opps {
		title := opp.Title
		if title == "" {
			title = opp.EventTicker
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(opp.Ticker, 24),
			truncate(title, 38),
			fmt.Sprintf("%dc", opp.YesPrice),
			strings.ToUpper(string(opp.Side())),
			fmt.Sprintf("%dc", opp.EntryPrice()),
			fmt.Sprintf("%d", opp.Volume),
			fmt.Sprintf("%.1fd", opp.DaysToExpiry),
			fmt.Sprintf("%d", opp.EdgeScore),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Buy = side taken to fade the mispricing | Entry = cost per contract")
	fmt.Fprintln(c.out, "  Edge = 0-100 composite of extremity, volume and expiry proximity")
}

// PrintReport prints the aggregate performance report and the recent trade
// log. Used by the -report flag.
func (c *Console) PrintReport(stats domain.TradeStats, trades []domain.Trade, snap *domain.PortfolioSnapshot) {
	fmt.Fprintf(c.out, "\n=== PERFORMANCE REPORT ===\n")
	if snap != nil {
		fmt.Fprintf(c.out, "  Balance:        $%.2f (as of %s)\n",
			float64(snap.Balance)/100, snap.Timestamp.Format("2006-01-02 15:04"))
		fmt.Fprintf(c.out, "  Invested:       $%.2f\n", float64(snap.TotalInvested)/100)
	}
	fmt.Fprintf(c.out, "  Trades:         %d (%d wins / %d losses)\n",
		stats.Total, stats.Wins, stats.Losses)
	fmt.Fprintf(c.out, "  Win rate:       %.1f%%\n", stats.WinRate()*100)
	fmt.Fprintf(c.out, "  Realized P&L:   $%.2f\n\n", float64(stats.TotalPnL)/100)

	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  No trades recorded yet.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Side", "Price", "Qty", "Cost", "Status", "P&L", "Placed")
	for _, t := range trades {
		table.Append(
			truncate(t.MarketTicker, 24),
			strings.ToUpper(string(t.Side)),
			fmt.Sprintf("%dc", t.Price),
			fmt.Sprintf("%d", t.Quantity),
			fmt.Sprintf("$%.2f", float64(t.Cost())/100),
			string(t.Status),
			fmt.Sprintf("$%.2f", float64(t.PnL)/100),
			t.CreatedAt.Format("01-02 15:04"),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func countBySide(opps []domain.Opportunity) (longshots, favorites int) {
	for _, o := range opps {
		if o.Side() == domain.SideNo {
			longshots++
		} else {
			favorites++
		}
	}
	return
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
