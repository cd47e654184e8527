package label

// GroupKey is the partition key (invoice date, courier, SKU). Equality is
// exact string equality after normalization; sentinel values participate like
// any other value, so incomplete pages route into their own bucket instead of
// being dropped.
type GroupKey struct {
	InvoiceDate string `json:"invoice_date"`
	Courier     string `json:"courier"`
	SKU         string `json:"sku"`
}

// Group is an ordered set of page indexes sharing one key. Pages are in
// first-seen order, which equals ascending page index since grouping scans
// sequentially.
type Group struct {
	Key   GroupKey `json:"key"`
	Pages []int    `json:"pages"`
}

// Key computes the page's grouping key.
func (p ParsedPage) Key() GroupKey {
	return GroupKey{InvoiceDate: p.InvoiceDate, Courier: p.Courier, SKU: p.SKU}
}

// GroupPages partitions parsed pages into groups in a single forward pass.
// Group emission order is the first-occurrence order of each distinct key,
// which makes output ordering deterministic and run-reproducible. Callers
// must pass pages in ascending page-index order.
func GroupPages(pages []ParsedPage) []Group {
	index := make(map[GroupKey]int, len(pages))
	var groups []Group
	for _, page := range pages {
		key := page.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Pages = append(groups[i].Pages, page.PageIndex)
	}
	return groups
}
