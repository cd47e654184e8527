package shiprocket

// Order statuses accepted by the orders listing filter.
const (
	StatusNew            = "NEW"
	StatusReadyToShip    = "READY_TO_SHIP"
	StatusPickupSchedule = "PICKUP_SCHEDULED"
)

// Shipment is the shipment block embedded in an order.
type Shipment struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Courier string `json:"courier"`
	AWB     string `json:"awb"`
	Status  string `json:"status"`
}

// Order is one order row from the listing endpoint. The API is loosely
// typed; only the fields the sorter workflow needs are modeled.
type Order struct {
	ID           int64      `json:"id"`
	ChannelID    int64      `json:"channel_id"`
	Status       string     `json:"status"`
	CustomerName string     `json:"customer_name"`
	Total        string     `json:"total"`
	Shipments    []Shipment `json:"shipments"`
}

// OrdersResponse wraps the paginated orders listing.
type OrdersResponse struct {
	Data []Order `json:"data"`
	Meta struct {
		Pagination struct {
			Total       int `json:"total"`
			PerPage     int `json:"per_page"`
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

// AWBResponse is the courier assignment response.
type AWBResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
			CourierID   int64  `json:"courier_company_id"`
		} `json:"data"`
	} `json:"response"`
}

// ShipResult is the outcome of shipping one shipment during a bulk run.
type ShipResult struct {
	ShipmentID int64  `json:"shipment_id"`
	Success    bool   `json:"success"`
	AWBCode    string `json:"awb_code,omitempty"`
	Err        string `json:"error,omitempty"`
}

// CourierOption is one serviceable courier for a route.
type CourierOption struct {
	CourierCompanyID int64   `json:"courier_company_id"`
	CourierName      string  `json:"courier_name"`
	Rate             float64 `json:"rate"`
	EstimatedDays    string  `json:"etd"`
}

// ServiceabilityResponse lists available couriers for a shipment.
type ServiceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []CourierOption `json:"available_courier_companies"`
	} `json:"data"`
}

// TrackingActivity is one scan event in a tracking response.
type TrackingActivity struct {
	Date     string `json:"date"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

// TrackingResponse wraps shipment tracking data.
type TrackingResponse struct {
	TrackingData struct {
		TrackStatus    int                `json:"track_status"`
		ShipmentStatus int                `json:"shipment_status"`
		Activities     []TrackingActivity `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

// WalletBalanceResponse wraps the account wallet balance.
type WalletBalanceResponse struct {
	Data struct {
		BalanceAmount float64 `json:"balance_amount"`
	} `json:"data"`
}
