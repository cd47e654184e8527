package constants

// Canonical courier identifiers. Every recognized courier brand string
// normalizes to exactly one of these.
const (
	CourierEkart       = "Ekart"
	CourierDelhivery   = "Delhivery"
	CourierXpressbees  = "Xpressbees"
	CourierBlueDart    = "BlueDart"
	CourierDTDC        = "DTDC"
	CourierShadowfax   = "Shadowfax"
	CourierEcomExpress = "EcomExpress"

	// CourierUnknown is the sentinel for pages with no recognizable courier.
	CourierUnknown = "Unknown"
)

// Couriers holds the canonical set in recognition priority order.
var Couriers = []string{
	CourierEkart,
	CourierDelhivery,
	CourierXpressbees,
	CourierBlueDart,
	CourierDTDC,
	CourierShadowfax,
	CourierEcomExpress,
}
