// Package label extracts routing fields from shipping-label text and groups
// pages by (invoice date, courier, SKU).
package label

import (
	"regexp"
	"strings"
	"time"

	"github.com/jsk-labs/label-sorter/constants"
)

// ParsedPage holds one source page's extracted facts. Missing fields are
// sentinels (CourierUnknown / empty string), never errors: upstream label
// layout is not a contract we control, so extraction degrades instead of
// raising.
type ParsedPage struct {
	PageIndex   int    `json:"page_index"`
	Courier     string `json:"courier"`      // canonical courier or constants.CourierUnknown
	SKU         string `json:"sku"`          // whitespace-normalized, "" when not found
	InvoiceDate string `json:"invoice_date"` // YYYY-MM-DD, "" when not found
	RawText     string `json:"-"`            // retained for diagnostics only
	MultiSKU    bool   `json:"multi_sku"`    // more than one SKU token on the page
}

// Flags reports the review flags this page should carry in the run summary.
func (p ParsedPage) Flags() []string {
	var flags []string
	if p.Courier == constants.CourierUnknown {
		flags = append(flags, constants.FlagUnknownCourier)
	}
	if p.MultiSKU {
		flags = append(flags, constants.FlagMultiItem)
	}
	if p.SKU == "" {
		flags = append(flags, constants.FlagMissingSKU)
	}
	if p.InvoiceDate == "" {
		flags = append(flags, constants.FlagMissingDate)
	}
	return flags
}

// CourierRule maps a text pattern to a canonical courier name.
type CourierRule struct {
	Pattern *regexp.Regexp
	Courier string
}

// builtinRules is the recognition table, evaluated top to bottom with first
// match winning. Order matters: some brand strings are near-substrings of
// others, and product-line variants ("Delhivery Surface", "Delhivery Air")
// must all collapse to one canonical name.
var builtinRules = []CourierRule{
	{regexp.MustCompile(`(?i)ekart`), constants.CourierEkart},
	{regexp.MustCompile(`(?i)delhivery`), constants.CourierDelhivery},
	{regexp.MustCompile(`(?i)xpressbees`), constants.CourierXpressbees},
	{regexp.MustCompile(`(?i)bluedart`), constants.CourierBlueDart},
	{regexp.MustCompile(`(?i)dtdc`), constants.CourierDTDC},
	{regexp.MustCompile(`(?i)shadowfax`), constants.CourierShadowfax},
	{regexp.MustCompile(`(?i)ecom\s*express`), constants.CourierEcomExpress},
}

var (
	skuRe      = regexp.MustCompile(`(?i)\bSKU\b\s*:?\s*([^\n]+)`)
	dateLineRe = regexp.MustCompile(`(?i)invoice\s*date\s*:?\s*(\d{4}-\d{2}-\d{2})`)
	bareDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Parser extracts label fields from page text. Pure: no state is shared
// across Parse calls.
type Parser struct {
	rules []CourierRule
}

// NewParser builds a parser. Custom rules are evaluated before the built-in
// table, so operators can override or extend courier recognition.
func NewParser(custom []CourierRule) *Parser {
	rules := make([]CourierRule, 0, len(custom)+len(builtinRules))
	rules = append(rules, custom...)
	rules = append(rules, builtinRules...)
	return &Parser{rules: rules}
}

// Parse extracts courier, SKU, and invoice date from one page's text.
func (p *Parser) Parse(pageIndex int, text string) ParsedPage {
	page := ParsedPage{
		PageIndex: pageIndex,
		Courier:   constants.CourierUnknown,
		RawText:   text,
	}

	for _, rule := range p.rules {
		if rule.Pattern.MatchString(text) {
			page.Courier = rule.Courier
			break
		}
	}

	// First SKU token wins; more than one marks the page multi-item so
	// multi-SKU orders are never silently merged under a single key.
	skus := skuRe.FindAllStringSubmatch(text, 2)
	if len(skus) > 0 {
		page.SKU = normalizeSKU(skus[0][1])
		page.MultiSKU = len(skus) > 1
	}

	page.InvoiceDate = extractDate(text)
	return page
}

// normalizeSKU collapses interior whitespace to single spaces and trims.
func normalizeSKU(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// extractDate prefers an "Invoice Date:" line and falls back to the first
// bare YYYY-MM-DD token, the one format family the source system emits.
func extractDate(text string) string {
	var candidate string
	if m := dateLineRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		candidate = bareDateRe.FindString(text)
	}
	if candidate == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", candidate); err != nil {
		return ""
	}
	return candidate
}
