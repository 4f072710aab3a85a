package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/recall-agent/recall/internal/core"
)

const productSearchSchema = `
{
  "type": "object",
  "properties": {
    "query": { "type": "string", "description": "Natural language product search, e.g. 'electronics under $100 in stock'" },
    "max_results": { "type": "integer", "description": "Maximum number of results (default 5)" }
  },
  "required": ["query"]
}
`

var productCategories = []string{
	"electronics", "clothing", "books", "toys", "sports",
	"health", "beauty", "home", "automotive", "garden",
	"jewelry", "music", "furniture", "kitchen", "outdoor",
}

var (
	priceUnderRe   = regexp.MustCompile(`(?i)(?:under|below|less than|<)\s*\$?(\d+(?:\.\d{2})?)`)
	priceOverRe    = regexp.MustCompile(`(?i)(?:over|above|more than|>)\s*\$?(\d+(?:\.\d{2})?)`)
	priceBetweenRe = regexp.MustCompile(`(?i)between\s*\$?(\d+(?:\.\d{2})?)\s*and\s*\$?(\d+(?:\.\d{2})?)`)
	priceCleanRe   = regexp.MustCompile(`(?i)(?:under|below|over|above|less than|more than|between)\s*\$?\d+(?:\.\d{2})?(?:\s*and\s*\$?\d+(?:\.\d{2})?)?`)
	availCleanRe   = regexp.MustCompile(`(?i)\b(?:in stock|out of stock|available|unavailable|inventory)\b`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// ProductSearch answers catalog questions by parsing price, category, and
// availability filters out of the natural-language query.
type ProductSearch struct {
	repo core.ProductRepository
}

func NewProductSearch(repo core.ProductRepository) *ProductSearch {
	return &ProductSearch{repo: repo}
}

func (p *ProductSearch) Search(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if input.MaxResults <= 0 {
		input.MaxResults = defaultMaxResults
	}

	filter := parseProductQuery(input.Query)
	results, err := p.repo.Search(ctx, filter, input.MaxResults)
	if err != nil {
		return "", fmt.Errorf("search products: %w", err)
	}
	if len(results) == 0 {
		return "No products found matching your criteria.", nil
	}
	return formatProductResults(results), nil
}

func parseProductQuery(query string) core.ProductFilter {
	var filter core.ProductFilter

	// Price: "between $X and $Y" wins over one-sided bounds.
	if m := priceBetweenRe.FindStringSubmatch(query); m != nil {
		filter.MinPrice, _ = strconv.ParseFloat(m[1], 64)
		filter.MaxPrice, _ = strconv.ParseFloat(m[2], 64)
		filter.HasMinPrice = true
		filter.HasMaxPrice = true
	} else if m := priceUnderRe.FindStringSubmatch(query); m != nil {
		filter.MaxPrice, _ = strconv.ParseFloat(m[1], 64)
		filter.HasMaxPrice = true
	} else if m := priceOverRe.FindStringSubmatch(query); m != nil {
		filter.MinPrice, _ = strconv.ParseFloat(m[1], 64)
		filter.HasMinPrice = true
	}

	lower := strings.ToLower(query)
	for _, category := range productCategories {
		if strings.Contains(lower, category) {
			filter.Category = category
			break
		}
	}

	switch {
	case strings.Contains(lower, "out of stock") || strings.Contains(lower, "unavailable"):
		filter.Availability = "out_of_stock"
	case strings.Contains(lower, "in stock") || strings.Contains(lower, "available") || strings.Contains(lower, "inventory"):
		filter.Availability = "in_stock"
	}

	filter.Text = cleanSearchText(query, filter.Category)
	return filter
}

// cleanSearchText strips the filter phrases so only free-text terms reach
// the LIKE match.
func cleanSearchText(query, category string) string {
	cleaned := priceCleanRe.ReplaceAllString(query, "")
	cleaned = availCleanRe.ReplaceAllString(cleaned, "")
	if category != "" {
		categoryRe := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(category) + `\b`)
		cleaned = categoryRe.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
}

func formatProductResults(products []core.Product) string {
	var b strings.Builder
	b.WriteString("PRODUCT SEARCH RESULTS:")

	for i, p := range products {
		availability := p.Availability
		switch {
		case p.Availability == "in_stock":
			availability = fmt.Sprintf("In Stock (%d available)", p.Quantity)
		case p.Availability == "out_of_stock":
			availability = "Out of Stock"
		}

		description := p.Description
		if len(description) > 100 {
			description = description[:100] + "..."
		}

		fmt.Fprintf(&b, "\n\n%d. %s\n   Price: $%.2f\n   Category: %s\n   Availability: %s\n   Description: %s",
			i+1, p.Name, p.Price, p.Category, availability, description)
	}
	return b.String()
}

func (p *ProductSearch) GetDefinitions() map[string]Definition {
	return map[string]Definition{
		"product_search": {
			Description: "Search for products, check prices, inventory, and product information",
			Schema:      productSearchSchema,
			Handler:     p.Search,
		},
	}
}
