package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Generated is the output of an attachment generator: file content plus an
// optional numeric fact (e.g. a column total) that briefs and checks may
// reference through the {result} placeholder.
type Generated struct {
	Content string
	Result  *float64
}

// GeneratorFunc produces attachment content as a pure function of the seed.
type GeneratorFunc func(seed string) Generated

func builtinGenerators() map[string]GeneratorFunc {
	return map[string]GeneratorFunc{
		"generate_sales_csv":        generateSalesCSV,
		"generate_currency_rates":   generateCurrencyRates,
		"generate_markdown_content": generateMarkdownContent,
	}
}

func generateSalesCSV(seed string) Generated {
	rng := NewRNG(seed)

	products := []string{"Widget A", "Widget B", "Widget C", "Widget D", "Gadget X", "Gadget Y"}
	regions := []string{"North", "South", "East", "West", "Central"}

	lines := []string{"product,sales,region"}
	total := 0.0

	rows := 4 + rng.Intn(5)
	for i := 0; i < rows; i++ {
		product := products[rng.Intn(len(products))]
		sales := roundTo(500+rng.Float64()*2500, 2)
		region := regions[rng.Intn(len(regions))]
		lines = append(lines, fmt.Sprintf("%s,%s,%s", product, formatFloat(sales), region))
		total += sales
	}

	total = roundTo(total, 2)
	return Generated{Content: strings.Join(lines, "\n"), Result: &total}
}

func generateCurrencyRates(seed string) Generated {
	rng := NewRNG(seed)

	// Draw order is fixed so the same seed always yields the same document.
	rates := struct {
		USD float64 `json:"USD"`
		EUR float64 `json:"EUR"`
		GBP float64 `json:"GBP"`
		JPY float64 `json:"JPY"`
		CAD float64 `json:"CAD"`
	}{
		USD: 1.0,
		EUR: roundTo(0.8+rng.Float64()*0.1, 4),
		GBP: roundTo(0.7+rng.Float64()*0.1, 4),
		JPY: roundTo(110+rng.Float64()*40, 2),
		CAD: roundTo(1.2+rng.Float64()*0.2, 4),
	}

	content, _ := json.MarshalIndent(rates, "", "  ")
	return Generated{Content: string(content)}
}

func generateMarkdownContent(seed string) Generated {
	rng := NewRNG(seed)

	topics := []string{"Technology", "Science", "History", "Literature", "Mathematics"}
	topic := topics[rng.Intn(len(topics))]
	lower := strings.ToLower(topic)

	content := fmt.Sprintf(`# %s Overview

## Introduction

This is a sample markdown document about **%s**. It contains various formatting elements to test the markdown parser.

### Code Example

`+"```python"+`
def hello_world():
    print("Hello, World!")
    return True
`+"```"+`

### List Items

- First item with *italic* text
- Second item with **bold** text
- Third item with `+"`inline code`"+`

### Important Note

> This is a blockquote that contains important information about %s.

## Conclusion

The study of %s continues to evolve and provide new insights.
`, topic, lower, lower, lower)

	return Generated{Content: content}
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

func formatFloat(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}
