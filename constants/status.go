package constants

// Page flags raised during parsing. A flagged page is still grouped; the flag
// only marks it for review in the run summary.
const (
	FlagUnknownCourier = "unknown-courier"
	FlagMultiItem      = "multi-item"
	FlagMissingSKU     = "missing-sku"
	FlagMissingDate    = "missing-date"
)

// Reasons recorded for pages excluded from grouping.
const (
	ReasonUnreadablePage = "UnreadablePage"
)

// Run statuses persisted in the history store.
const (
	RunStatusCompleted = "COMPLETED"
	RunStatusPartial   = "PARTIAL" // completed with unparsed pages
)
