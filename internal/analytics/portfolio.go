package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"minerva/internal/adapters/ai"
	"minerva/pkg/logger"
)

// SectorWeight is one sector's share of a portfolio, as a fraction in [0, 1]
type SectorWeight struct {
	Sector string
	Weight decimal.Decimal
}

// PortfolioNarrator renders the client-vs-peer allocation comparison
// as a single coherent paragraph
type PortfolioNarrator struct {
	chat ai.ChatProvider
	log  *logger.Logger
}

func NewPortfolioNarrator(chat ai.ChatProvider) *PortfolioNarrator {
	return &PortfolioNarrator{
		chat: chat,
		log:  logger.Get().With("component", "portfolio_narrator"),
	}
}

const portfolioSystemPrompt = "You are a financial advisor writing for a retail client. " +
	"Compare the client's sector allocation with the peer average and write " +
	"exactly one coherent paragraph in plain language. Mention the largest " +
	"overweights and underweights, avoid jargon, and do not use bullet points."

// Narrate compares client and peer sector weights and returns one
// paragraph. Chat failures degrade to a deterministic template.
func (n *PortfolioNarrator) Narrate(ctx context.Context, client, peers []SectorWeight) (string, error) {
	prompt := buildComparisonPrompt(client, peers)

	out, err := n.chat.Complete(ctx, ai.ChatRequest{
		System:      portfolioSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err != nil {
		n.log.Warnw("Portfolio narrative degraded to template", "error", err)
		return templateComparison(client, peers), nil
	}
	return strings.TrimSpace(out), nil
}

// buildComparisonPrompt lays the two allocations side by side, sectors
// sorted by the client's weight descending so the model sees the
// dominant positions first
func buildComparisonPrompt(client, peers []SectorWeight) string {
	peerByName := make(map[string]decimal.Decimal, len(peers))
	for _, p := range peers {
		peerByName[p.Sector] = p.Weight
	}

	sorted := make([]SectorWeight, len(client))
	copy(sorted, client)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Weight.GreaterThan(sorted[j].Weight)
	})

	var b strings.Builder
	b.WriteString("Client allocation vs peer average (percent):\n")
	for _, c := range sorted {
		peer := peerByName[c.Sector]
		fmt.Fprintf(&b, "- %s: client %s%%, peers %s%%\n",
			c.Sector, toPercent(c.Weight), toPercent(peer))
	}
	// peer-only sectors the client holds nothing of
	for _, p := range peers {
		if !hasSector(client, p.Sector) {
			fmt.Fprintf(&b, "- %s: client 0%%, peers %s%%\n", p.Sector, toPercent(p.Weight))
		}
	}
	b.WriteString("\nWrite one paragraph comparing the two allocations.")
	return b.String()
}

// templateComparison is the degraded path: name the single largest
// deviation in a fixed sentence shape
func templateComparison(client, peers []SectorWeight) string {
	peerByName := make(map[string]decimal.Decimal, len(peers))
	for _, p := range peers {
		peerByName[p.Sector] = p.Weight
	}

	var (
		topSector string
		topDiff   decimal.Decimal
	)
	for _, c := range client {
		diff := c.Weight.Sub(peerByName[c.Sector]).Abs()
		if topSector == "" || diff.GreaterThan(topDiff) {
			topSector = c.Sector
			topDiff = diff
		}
	}
	if topSector == "" {
		return "Your portfolio allocation broadly matches the peer average across sectors."
	}
	return fmt.Sprintf(
		"Compared with the peer average, the largest difference in your portfolio is in the %s sector, at %s percentage points. The remaining sectors are broadly in line with peers.",
		topSector, toPercent(topDiff))
}

func toPercent(w decimal.Decimal) string {
	return w.Mul(decimal.NewFromInt(100)).Round(1).String()
}

func hasSector(weights []SectorWeight, sector string) bool {
	for _, w := range weights {
		if w.Sector == sector {
			return true
		}
	}
	return false
}
