package beckn

import "encoding/json"

// Descriptor names a thing on the network.
type Descriptor struct {
	Name      string   `json:"name,omitempty"`
	ShortDesc string   `json:"short_desc,omitempty"`
	LongDesc  string   `json:"long_desc,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Price values are decimal strings on the wire, never numbers.
type Price struct {
	Currency     string `json:"currency,omitempty"`
	Value        string `json:"value,omitempty"`
	MaximumValue string `json:"maximum_value,omitempty"`
}

// Quantity carries availability plus the unitized measure of one item.
type Quantity struct {
	Available *QuantityCount `json:"available,omitempty"`
	Maximum   *QuantityCount `json:"maximum,omitempty"`
	Unitized  *Unitized      `json:"unitized,omitempty"`
	Count     int            `json:"count,omitempty"`
}

type QuantityCount struct {
	Count string `json:"count,omitempty"`
}

type Unitized struct {
	Measure *Measure `json:"measure,omitempty"`
}

type Measure struct {
	Unit  string `json:"unit,omitempty"`
	Value string `json:"value,omitempty"`
}

// TagItem is one code/value pair inside a Tag group.
type TagItem struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
}

type Tag struct {
	Code string    `json:"code,omitempty"`
	List []TagItem `json:"list,omitempty"`
}

// Item is a catalog entry plus the ONDC extension attributes.
type Item struct {
	ID            string     `json:"id,omitempty"`
	Descriptor    *Descriptor `json:"descriptor,omitempty"`
	Price         *Price      `json:"price,omitempty"`
	CategoryID    string     `json:"category_id,omitempty"`
	FulfillmentID string     `json:"fulfillment_id,omitempty"`
	LocationID    string     `json:"location_id,omitempty"`
	Quantity      *Quantity   `json:"quantity,omitempty"`

	Returnable         *bool             `json:"@ondc/org/returnable,omitempty"`
	Cancellable        *bool             `json:"@ondc/org/cancellable,omitempty"`
	ReturnWindow       string            `json:"@ondc/org/return_window,omitempty"`
	SellerPickupReturn *bool             `json:"@ondc/org/seller_pickup_return,omitempty"`
	TimeToShip         string            `json:"@ondc/org/time_to_ship,omitempty"`
	AvailableOnCOD     *bool             `json:"@ondc/org/available_on_cod,omitempty"`
	ConsumerCare       string            `json:"@ondc/org/contact_details_consumer_care,omitempty"`
	Statutory          map[string]string `json:"@ondc/org/statutory_reqs_packaged_commodities,omitempty"`
	Tags               []Tag             `json:"tags,omitempty"`
}

type Address struct {
	Name     string `json:"name,omitempty"`
	Building string `json:"building,omitempty"`
	Street   string `json:"street,omitempty"`
	Locality string `json:"locality,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
	AreaCode string `json:"area_code,omitempty"`
}

type TimeRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// LocationTime models the store-hours schedule block.
type LocationTime struct {
	Label string     `json:"label,omitempty"`
	Days  string     `json:"days,omitempty"`
	Range *TimeRange `json:"range,omitempty"`
}

type Location struct {
	ID      string        `json:"id,omitempty"`
	GPS     string        `json:"gps,omitempty"`
	Address *Address      `json:"address,omitempty"`
	Time    *LocationTime `json:"time,omitempty"`
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type FulfillmentState struct {
	Descriptor *CodeDescriptor `json:"descriptor,omitempty"`
}

type CodeDescriptor struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

type FulfillmentEnd struct {
	Location *Location `json:"location,omitempty"`
	Contact  *Contact  `json:"contact,omitempty"`
}

type Fulfillment struct {
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	State    *FulfillmentState `json:"state,omitempty"`
	Tracking bool              `json:"tracking,omitempty"`
	Contact  *Contact          `json:"contact,omitempty"`
	Start    *FulfillmentEnd   `json:"start,omitempty"`
	End      *FulfillmentEnd   `json:"end,omitempty"`
}

type Provider struct {
	ID           string        `json:"id,omitempty"`
	Descriptor   *Descriptor   `json:"descriptor,omitempty"`
	Locations    []Location    `json:"locations,omitempty"`
	Fulfillments []Fulfillment `json:"fulfillments,omitempty"`
	Items        []Item        `json:"items,omitempty"`
}

type Catalog struct {
	BppDescriptor *Descriptor `json:"bpp/descriptor,omitempty"`
	Providers     []Provider  `json:"bpp/providers,omitempty"`
}

type Billing struct {
	Name    string   `json:"name,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Email   string   `json:"email,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type PaymentParams struct {
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type Payment struct {
	Type            string         `json:"type,omitempty"`
	CollectedBy     string         `json:"collected_by,omitempty"`
	Status          string         `json:"status,omitempty"`
	URI             string         `json:"uri,omitempty"`
	Params          *PaymentParams `json:"params,omitempty"`
	FinderFeeType   string         `json:"@ondc/org/buyer_app_finder_fee_type,omitempty"`
	FinderFeeAmount string         `json:"@ondc/org/buyer_app_finder_fee_amount,omitempty"`
	SettlementBasis string         `json:"@ondc/org/settlement_basis,omitempty"`
	SettlementWindow string        `json:"@ondc/org/settlement_window,omitempty"`
}

type BreakupItem struct {
	ItemID    string    `json:"@ondc/org/item_id,omitempty"`
	TitleType string    `json:"@ondc/org/title_type,omitempty"`
	Title     string    `json:"title,omitempty"`
	Price     *Price    `json:"price,omitempty"`
	Item      *Quantity `json:"item,omitempty"`
}

type Quote struct {
	Price   *Price        `json:"price,omitempty"`
	Breakup []BreakupItem `json:"breakup,omitempty"`
	TTL     string        `json:"ttl,omitempty"`
}

type CancelReason struct {
	ID string `json:"id,omitempty"`
}

type Cancellation struct {
	CancelledBy string        `json:"cancelled_by,omitempty"`
	Reason      *CancelReason `json:"reason,omitempty"`
}

// Order is the protocol-level order draft exchanged during select/init/
// confirm and echoed back by the on_ callbacks. Item and fulfillment blocks
// are kept as raw JSON where the BPP only snapshots and echoes them.
type Order struct {
	ID           string          `json:"id,omitempty"`
	State        string          `json:"state,omitempty"`
	Provider     *Provider       `json:"provider,omitempty"`
	Items        json.RawMessage `json:"items,omitempty"`
	Billing      *Billing        `json:"billing,omitempty"`
	Fulfillment  json.RawMessage `json:"fulfillment,omitempty"`
	Payment      *Payment        `json:"payment,omitempty"`
	Quote        *Quote          `json:"quote,omitempty"`
	Cancellation *Cancellation   `json:"cancellation,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
	UpdatedAt    string          `json:"updated_at,omitempty"`
}

// OrderMessage wraps an order for the on_select/on_init/on_confirm/on_status/
// on_update/on_cancel callbacks.
type OrderMessage struct {
	Order *Order `json:"order"`
}

// CatalogMessage wraps the catalog for on_search.
type CatalogMessage struct {
	Catalog *Catalog `json:"catalog"`
}

// Callback is a fully assembled outbound payload.
type Callback struct {
	Context *Context    `json:"context"`
	Message interface{} `json:"message"`
}

// MapState translates an internal order state to protocol vocabulary.
func MapState(internal string) string {
	switch internal {
	case "CREATED":
		return "Created"
	case "ACCEPTED":
		return "Accepted"
	case "IN_PROGRESS":
		return "In-progress"
	case "COMPLETED":
		return "Completed"
	case "CANCELLED":
		return "Cancelled"
	case "RETURNED":
		return "Returned"
	default:
		return internal
	}
}
