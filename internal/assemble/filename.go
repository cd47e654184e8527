package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jsk-labs/label-sorter/constants"
	"github.com/jsk-labs/label-sorter/internal/label"
)

// Placeholders substituted for empty key fields. File names keep every
// segment so different sentinel combinations stay distinguishable.
const (
	PlaceholderNoDate = "NoDate"
	PlaceholderNoSKU  = "NoSKU"
)

const (
	maxCourierLen = 30
	maxSKULen     = 50
)

var unsafeChars = regexp.MustCompile(`[^\w\-]`)

// FileName builds the deterministic output name for a group key:
// {invoice_date}_{courier}_{sku}.pdf with sentinel substitution.
func FileName(key label.GroupKey) string {
	date := key.InvoiceDate
	if date == "" {
		date = PlaceholderNoDate
	}
	courier := key.Courier
	if courier == "" {
		courier = constants.CourierUnknown
	}
	sku := key.SKU
	if sku == "" {
		sku = PlaceholderNoSKU
	}
	return fmt.Sprintf("%s_%s_%s.pdf", date, sanitize(courier, maxCourierLen), sanitize(sku, maxSKULen))
}

// sanitize makes a key segment file-system safe: spaces become hyphens,
// anything outside [A-Za-z0-9_-] is stripped, and the result is capped.
func sanitize(s string, max int) string {
	s = unsafeChars.ReplaceAllString(strings.ReplaceAll(s, " ", "-"), "")
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// Namer hands out unique file names for one run. Sanitization can make two
// distinct keys collide; collisions are resolved deterministically with a
// numeric suffix in emission order.
type Namer struct {
	used map[string]struct{}
}

func NewNamer() *Namer {
	return &Namer{used: make(map[string]struct{})}
}

// Name returns a unique file name for the key and whether it had to be
// disambiguated.
func (n *Namer) Name(key label.GroupKey) (string, bool) {
	base := FileName(key)
	if _, taken := n.used[base]; !taken {
		n.used[base] = struct{}{}
		return base, false
	}
	stem := strings.TrimSuffix(base, ".pdf")
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d.pdf", stem, i)
		if _, taken := n.used[name]; !taken {
			n.used[name] = struct{}{}
			return name, true
		}
	}
}
