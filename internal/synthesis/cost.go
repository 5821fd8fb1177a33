// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import "strings"

// Price is a per-million-token rate in USD.
type Price struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// PriceTable maps model name prefixes to rates.
type PriceTable map[string]Price

// DefaultPrice applies to models with no matching prefix.
var DefaultPrice = Price{Input: 2.5, Output: 10}

// DefaultPrices lists the known synthesis models.
var DefaultPrices = PriceTable{
	"gpt-4o-mini":      {Input: 0.15, Output: 0.6},
	"gpt-4o":           {Input: 2.5, Output: 10},
	"gpt-5":            {Input: 3, Output: 12},
	"gemini-2.5-flash": {Input: 0.3, Output: 2.5},
	"gemini-2.5-pro":   {Input: 1.25, Output: 10},
}

// Lookup returns the rate for the longest prefix of model in t, ignoring case.
func (t PriceTable) Lookup(model string) Price {
	model = strings.ToLower(model)
	best, bestLen := DefaultPrice, -1
	for prefix, p := range t {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = p, len(prefix)
		}
	}
	return best
}

// Cost estimates the USD cost of tokens at the average of the input and
// output rates.
func (t PriceTable) Cost(model string, tokens int) float64 {
	p := t.Lookup(model)
	return float64(tokens) / 1_000_000 * (p.Input + p.Output) / 2
}
