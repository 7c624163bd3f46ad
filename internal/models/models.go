package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscriber is this participant's identity on the ONDC network.
// One row per tenant; keys are re-issued, never deleted.
type Subscriber struct {
	ID                   string     `db:"id" json:"id"`
	TenantID             string     `db:"tenant_id" json:"tenant_id"`
	SubscriberID         string     `db:"subscriber_id" json:"subscriber_id"`
	SubscriberURL        string     `db:"subscriber_url" json:"subscriber_url"`
	Environment          string     `db:"environment" json:"environment"`
	SigningPublicKey     string     `db:"signing_public_key" json:"signing_public_key"`
	SigningPrivateKey    string     `db:"signing_private_key" json:"-"`
	EncryptionPublicKey  string     `db:"encryption_public_key" json:"encryption_public_key"`
	EncryptionPrivateKey string     `db:"encryption_private_key" json:"-"`
	UniqueKeyID          string     `db:"unique_key_id" json:"unique_key_id"`
	Domain               string     `db:"domain" json:"domain"`
	CityCodes            string     `db:"city_codes" json:"city_codes"`
	RegistrationStatus   string     `db:"registration_status" json:"registration_status"`
	LastSubscribeAt      *time.Time `db:"last_subscribe_at" json:"last_subscribe_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Provider is one seller storefront visible on the network.
type Provider struct {
	ID                  string    `db:"id" json:"id"`
	TenantID            string    `db:"tenant_id" json:"tenant_id"`
	ProviderID          string    `db:"provider_id" json:"provider_id"`
	Name                string    `db:"name" json:"name"`
	ShortDesc           string    `db:"short_desc" json:"short_desc"`
	LongDesc            string    `db:"long_desc" json:"long_desc"`
	LogoURL             string    `db:"logo_url" json:"logo_url"`
	GPSCoordinates      string    `db:"gps_coordinates" json:"gps_coordinates"`
	AddressStreet       string    `db:"address_street" json:"address_street"`
	AddressCity         string    `db:"address_city" json:"address_city"`
	AddressState        string    `db:"address_state" json:"address_state"`
	AddressAreaCode     string    `db:"address_area_code" json:"address_area_code"`
	AddressCountry      string    `db:"address_country" json:"address_country"`
	ContactPhone        string    `db:"contact_phone" json:"contact_phone"`
	ContactEmail        string    `db:"contact_email" json:"contact_email"`
	SupportPhone        string    `db:"support_phone" json:"support_phone"`
	SupportEmail        string    `db:"support_email" json:"support_email"`
	StoreTimingStart    string    `db:"store_timing_start" json:"store_timing_start"`
	StoreTimingEnd      string    `db:"store_timing_end" json:"store_timing_end"`
	StoreDays           string    `db:"store_days" json:"store_days"`
	Holidays            string    `db:"holidays" json:"holidays"`
	DefaultTimeToShip   string    `db:"default_time_to_ship" json:"default_time_to_ship"`
	DefaultReturnable   bool      `db:"default_returnable" json:"default_returnable"`
	DefaultCancellable  bool      `db:"default_cancellable" json:"default_cancellable"`
	DefaultReturnWindow string    `db:"default_return_window" json:"default_return_window"`
	DefaultCODAvailable bool      `db:"default_cod_available" json:"default_cod_available"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ProductConfig holds the per-product network metadata. A product without a
// config is invisible to the network regardless of catalog status.
type ProductConfig struct {
	ID                 string     `db:"id" json:"id"`
	ProductID          string     `db:"product_id" json:"product_id"`
	TenantID           string     `db:"tenant_id" json:"tenant_id"`
	Domain             string     `db:"domain" json:"domain"`
	CategoryID         string     `db:"category_id" json:"category_id"`
	TimeToShip         string     `db:"time_to_ship" json:"time_to_ship"`
	Returnable         *bool      `db:"returnable" json:"returnable,omitempty"`
	Cancellable        *bool      `db:"cancellable" json:"cancellable,omitempty"`
	ReturnWindow       string     `db:"return_window" json:"return_window"`
	SellerPickupReturn bool       `db:"seller_pickup_return" json:"seller_pickup_return"`
	CODAvailable       *bool      `db:"cod_available" json:"cod_available,omitempty"`
	MaxOrderQuantity   int        `db:"max_order_quantity" json:"max_order_quantity"`
	CountryOfOrigin    string     `db:"country_of_origin" json:"country_of_origin"`
	IsVeg              *bool      `db:"is_veg" json:"is_veg,omitempty"`
	IsNonVeg           *bool      `db:"is_non_veg" json:"is_non_veg,omitempty"`
	IsEgg              *bool      `db:"is_egg" json:"is_egg,omitempty"`
	StatutoryInfo      string     `db:"statutory_info" json:"statutory_info"`
	Published          bool       `db:"published" json:"published"`
	LastPublishedAt    *time.Time `db:"last_published_at" json:"last_published_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Product is the read-only catalog view consumed by the network core.
type Product struct {
	ID             string          `db:"id" json:"id"`
	TenantID       string          `db:"tenant_id" json:"tenant_id"`
	Name           string          `db:"name" json:"name"`
	Brand          string          `db:"brand" json:"brand"`
	ShortDesc      string          `db:"short_desc" json:"short_desc"`
	LongDesc       string          `db:"long_desc" json:"long_desc"`
	SellingPrice   decimal.Decimal `db:"selling_price" json:"selling_price"`
	MRP            decimal.Decimal `db:"mrp" json:"mrp"`
	GSTRate        int             `db:"gst_rate" json:"gst_rate"`
	Unit           string          `db:"unit" json:"unit"`
	CurrentStock   decimal.Decimal `db:"current_stock" json:"current_stock"`
	TrackInventory bool            `db:"track_inventory" json:"track_inventory"`
	Status         string          `db:"status" json:"status"`
	ImageURLs      string          `db:"image_urls" json:"image_urls"`
}

// Order is the central aggregate. The items/billing/fulfillment/payment/quote
// columns keep the protocol payload verbatim while the billing_* columns are
// normalized for fast listing.
type Order struct {
	ID                 string    `db:"id" json:"id"`
	TenantID           string    `db:"tenant_id" json:"tenant_id"`
	ProviderID         string    `db:"provider_id" json:"provider_id"`
	BecknOrderID       string    `db:"beckn_order_id" json:"beckn_order_id"`
	TransactionID      string    `db:"transaction_id" json:"transaction_id"`
	BapID              string    `db:"bap_id" json:"bap_id"`
	BapURI             string    `db:"bap_uri" json:"bap_uri"`
	Domain             string    `db:"domain" json:"domain"`
	State              string    `db:"state" json:"state"`
	Items              []byte    `db:"items" json:"items,omitempty"`
	Billing            []byte    `db:"billing" json:"billing,omitempty"`
	Fulfillment        []byte    `db:"fulfillment" json:"fulfillment,omitempty"`
	Payment            []byte    `db:"payment" json:"payment,omitempty"`
	Quote              []byte    `db:"quote" json:"quote,omitempty"`
	CancellationReason string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledBy        string    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	BillingName        string    `db:"billing_name" json:"billing_name,omitempty"`
	BillingPhone       string    `db:"billing_phone" json:"billing_phone,omitempty"`
	BillingEmail       string    `db:"billing_email" json:"billing_email,omitempty"`
	BillingAddress     []byte    `db:"billing_address" json:"billing_address,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a normalized line item owned by exactly one order. Quantity
// changes post-creation are not supported; replace the row instead.
type OrderItem struct {
	ID           string          `db:"id" json:"id"`
	OrderID      string          `db:"order_id" json:"order_id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	ReturnStatus string          `db:"return_status" json:"return_status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Fulfillment is the delivery/pickup record for an order.
type Fulfillment struct {
	ID                   string     `db:"id" json:"id"`
	OrderID              string     `db:"order_id" json:"order_id"`
	Type                 string     `db:"type" json:"type"`
	State                string     `db:"state" json:"state"`
	TrackingURL          string     `db:"tracking_url" json:"tracking_url,omitempty"`
	AgentName            string     `db:"agent_name" json:"agent_name,omitempty"`
	AgentPhone           string     `db:"agent_phone" json:"agent_phone,omitempty"`
	DeliveryAddress      []byte     `db:"delivery_address" json:"delivery_address,omitempty"`
	DeliveryGPS          string     `db:"delivery_gps" json:"delivery_gps,omitempty"`
	PromisedDeliveryFrom *time.Time `db:"promised_delivery_from" json:"promised_delivery_from,omitempty"`
	PromisedDeliveryTo   *time.Time `db:"promised_delivery_to" json:"promised_delivery_to,omitempty"`
	ActualDeliveryAt     *time.Time `db:"actual_delivery_at" json:"actual_delivery_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Payment is the settlement record for an order.
type Payment struct {
	ID               string          `db:"id" json:"id"`
	OrderID          string          `db:"order_id" json:"order_id"`
	Type             string          `db:"type" json:"type"`
	CollectedBy      string          `db:"collected_by" json:"collected_by"`
	FinderFeeType    string          `db:"finder_fee_type" json:"finder_fee_type,omitempty"`
	FinderFeeAmount  decimal.Decimal `db:"finder_fee_amount" json:"finder_fee_amount"`
	SettlementBasis  string          `db:"settlement_basis" json:"settlement_basis,omitempty"`
	SettlementWindow string          `db:"settlement_window" json:"settlement_window,omitempty"`
	SettlementAmount decimal.Decimal `db:"settlement_amount" json:"settlement_amount"`
	SettlementStatus string          `db:"settlement_status" json:"settlement_status"`
	ProviderTxID     string          `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// APILogEntry is the append-only audit record of one protocol call.
type APILogEntry struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenant_id"`
	Direction     string    `db:"direction" json:"direction"`
	Action        string    `db:"action" json:"action"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	MessageID     string    `db:"message_id" json:"message_id,omitempty"`
	BapID         string    `db:"bap_id" json:"bap_id,omitempty"`
	RequestBody   string    `db:"request_body" json:"request_body,omitempty"`
	ResponseBody  string    `db:"response_body" json:"response_body,omitempty"`
	HTTPStatus    int       `db:"http_status" json:"http_status"`
	ErrorMessage  string    `db:"error_message" json:"error_message,omitempty"`
	DurationMs    int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Order lifecycle states. CREATED -> ACCEPTED -> IN_PROGRESS -> COMPLETED;
// CREATED|ACCEPTED -> CANCELLED; any non-terminal -> RETURNED.
const (
	OrderStateCreated    = "CREATED"
	OrderStateAccepted   = "ACCEPTED"
	OrderStateInProgress = "IN_PROGRESS"
	OrderStateCompleted  = "COMPLETED"
	OrderStateCancelled  = "CANCELLED"
	OrderStateReturned   = "RETURNED"
)

// Fulfillment states
const (
	FulfillmentStatePending        = "PENDING"
	FulfillmentStatePacked         = "PACKED"
	FulfillmentStateAgentAssigned  = "AGENT_ASSIGNED"
	FulfillmentStatePickedUp       = "PICKED_UP"
	FulfillmentStateOutForDelivery = "OUT_FOR_DELIVERY"
	FulfillmentStateOrderDelivered = "ORDER_DELIVERED"
	FulfillmentStateCancelled      = "CANCELLED"
	FulfillmentStateRTOInitiated   = "RTO_INITIATED"
	FulfillmentStateRTODelivered   = "RTO_DELIVERED"
)

// Fulfillment types
const (
	FulfillmentTypeDelivery   = "DELIVERY"
	FulfillmentTypeSelfPickup = "SELF_PICKUP"
)

// Payment types
const (
	PaymentTypePrePaid         = "PRE_PAID"
	PaymentTypeOnDelivery      = "ON_DELIVERY"
	PaymentTypePostFulfillment = "POST_FULFILLMENT"
)

// Settlement statuses
const (
	SettlementStatusPending = "PENDING"
	SettlementStatusSettled = "SETTLED"
	SettlementStatusFailed  = "FAILED"
)

// Registration statuses
const (
	RegistrationStatusPending    = "PENDING"
	RegistrationStatusInitiated  = "INITIATED"
	RegistrationStatusSubscribed = "SUBSCRIBED"
	RegistrationStatusFailed     = "FAILED"
)

// Return statuses
const (
	ReturnStatusNone      = "NONE"
	ReturnStatusRequested = "REQUESTED"
	ReturnStatusApproved  = "APPROVED"
	ReturnStatusRejected  = "REJECTED"
	ReturnStatusCompleted = "COMPLETED"
)

// Environments
const (
	EnvironmentStaging    = "STAGING"
	EnvironmentPreProd    = "PRE_PROD"
	EnvironmentProduction = "PRODUCTION"
)

// Product statuses
const (
	ProductStatusActive   = "ACTIVE"
	ProductStatusInactive = "INACTIVE"
)

// Audit directions
const (
	DirectionIncoming = "INCOMING"
	DirectionOutgoing = "OUTGOING"
)

// ValidOrderTransition reports whether moving an order between lifecycle
// states is allowed. Terminal states reject everything.
func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderStateCreated:
		return to == OrderStateAccepted || to == OrderStateCancelled || to == OrderStateReturned
	case OrderStateAccepted:
		return to == OrderStateInProgress || to == OrderStateCancelled || to == OrderStateReturned
	case OrderStateInProgress:
		return to == OrderStateCompleted || to == OrderStateReturned
	default:
		return false
	}
}
