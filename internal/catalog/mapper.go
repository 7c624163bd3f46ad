// Package catalog maps tenant products onto the Beckn catalog wire format.
package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"
	"ondc-seller/internal/util"

	"go.uber.org/zap"
)

const (
	defaultLocationID    = "loc-1"
	defaultFulfillmentID = "ful-1"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

var unitNames = map[string]string{
	"KG":    "kilogram",
	"GM":    "gram",
	"LTR":   "litre",
	"ML":    "millilitre",
	"MTR":   "metre",
	"CM":    "centimetre",
	"DOZEN": "dozen",
}

// MapUnit translates an internal unit code to the network measure unit.
func MapUnit(unit string) string {
	if name, ok := unitNames[strings.ToUpper(unit)]; ok {
		return name
	}
	return "unit"
}

// StripHTML removes markup from rich-text descriptions. Buyer apps render
// catalog text verbatim, so tags must never leak onto the network.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// MapProductToItem builds one catalog item from a product and its network
// config, with the provider supplying defaults for unset config fields.
func MapProductToItem(product *models.Product, config *models.ProductConfig, provider *models.Provider) beckn.Item {
	item := beckn.Item{
		ID:            product.ID,
		CategoryID:    config.CategoryID,
		FulfillmentID: defaultFulfillmentID,
		LocationID:    defaultLocationID,
	}

	descriptor := &beckn.Descriptor{
		Name:      product.Name,
		ShortDesc: product.ShortDesc,
		LongDesc:  StripHTML(product.LongDesc),
	}
	images := splitImageURLs(product.ImageURLs)
	descriptor.Images = images
	if len(images) > 0 {
		descriptor.Symbol = images[0]
	}
	item.Descriptor = descriptor

	// Wire prices are plain decimal strings, never numbers.
	price := &beckn.Price{
		Currency: "INR",
		Value:    product.SellingPrice.String(),
	}
	if product.MRP.IsPositive() {
		price.MaximumValue = product.MRP.String()
	} else {
		price.MaximumValue = price.Value
	}
	item.Price = price

	quantity := &beckn.Quantity{
		Available: &beckn.QuantityCount{Count: availabilityCount(product)},
		Unitized: &beckn.Unitized{
			Measure: &beckn.Measure{Unit: MapUnit(product.Unit), Value: "1"},
		},
	}
	if config.MaxOrderQuantity > 0 {
		quantity.Maximum = &beckn.QuantityCount{Count: strconv.Itoa(config.MaxOrderQuantity)}
	}
	item.Quantity = quantity

	returnable := provider.DefaultReturnable
	if config.Returnable != nil {
		returnable = *config.Returnable
	}
	cancellable := provider.DefaultCancellable
	if config.Cancellable != nil {
		cancellable = *config.Cancellable
	}
	codAvailable := provider.DefaultCODAvailable
	if config.CODAvailable != nil {
		codAvailable = *config.CODAvailable
	}
	item.Returnable = &returnable
	item.Cancellable = &cancellable
	item.AvailableOnCOD = &codAvailable
	item.SellerPickupReturn = &config.SellerPickupReturn

	item.ReturnWindow = config.ReturnWindow
	if item.ReturnWindow == "" {
		item.ReturnWindow = provider.DefaultReturnWindow
	}
	item.TimeToShip = config.TimeToShip
	if item.TimeToShip == "" {
		item.TimeToShip = provider.DefaultTimeToShip
	}

	item.ConsumerCare = consumerCare(provider)
	item.Statutory = parseStatutoryInfo(product.ID, config.StatutoryInfo)
	item.Tags = buildTags(config)

	return item
}

// MapProvider builds the network-facing storefront block: descriptor,
// location with store hours, and the default delivery fulfillment.
func MapProvider(provider *models.Provider) beckn.Provider {
	bp := beckn.Provider{ID: provider.ProviderID}

	descriptor := &beckn.Descriptor{
		Name:      provider.Name,
		ShortDesc: provider.ShortDesc,
		LongDesc:  provider.LongDesc,
	}
	if provider.LogoURL != "" {
		descriptor.Symbol = provider.LogoURL
		descriptor.Images = []string{provider.LogoURL}
	}
	bp.Descriptor = descriptor

	location := beckn.Location{
		ID:  defaultLocationID,
		GPS: provider.GPSCoordinates,
		Address: &beckn.Address{
			Street:   provider.AddressStreet,
			City:     provider.AddressCity,
			State:    provider.AddressState,
			AreaCode: provider.AddressAreaCode,
			Country:  provider.AddressCountry,
		},
	}
	if provider.StoreTimingStart != "" && provider.StoreTimingEnd != "" {
		location.Time = &beckn.LocationTime{
			Label: "enable",
			Days:  provider.StoreDays,
			Range: &beckn.TimeRange{
				Start: strings.ReplaceAll(provider.StoreTimingStart, ":", ""),
				End:   strings.ReplaceAll(provider.StoreTimingEnd, ":", ""),
			},
		}
	}
	bp.Locations = []beckn.Location{location}

	bp.Fulfillments = []beckn.Fulfillment{{
		ID:   defaultFulfillmentID,
		Type: "Delivery",
		Contact: &beckn.Contact{
			Phone: provider.ContactPhone,
			Email: provider.ContactEmail,
		},
	}}

	return bp
}

// BuildCatalog assembles the on_search catalog for one provider. Products
// without a config entry are skipped; they are not published.
func BuildCatalog(provider *models.Provider, products []models.Product, configs []models.ProductConfig) *beckn.Catalog {
	catalog := &beckn.Catalog{}

	bppDescriptor := &beckn.Descriptor{
		Name:      provider.Name,
		ShortDesc: provider.ShortDesc,
	}
	if provider.LogoURL != "" {
		bppDescriptor.Symbol = provider.LogoURL
		bppDescriptor.Images = []string{provider.LogoURL}
	}
	catalog.BppDescriptor = bppDescriptor

	configByProduct := make(map[string]*models.ProductConfig, len(configs))
	for i := range configs {
		configByProduct[configs[i].ProductID] = &configs[i]
	}

	bp := MapProvider(provider)
	items := make([]beckn.Item, 0, len(products))
	for i := range products {
		config, ok := configByProduct[products[i].ID]
		if !ok {
			continue
		}
		items = append(items, MapProductToItem(&products[i], config, provider))
	}
	bp.Items = items

	catalog.Providers = []beckn.Provider{bp}
	return catalog
}

func availabilityCount(product *models.Product) string {
	if product.CurrentStock.IsPositive() {
		return "99"
	}
	return "0"
}

func consumerCare(provider *models.Provider) string {
	email := provider.SupportEmail
	if email == "" {
		email = provider.ContactEmail
	}
	phone := provider.SupportPhone
	if phone == "" {
		phone = provider.ContactPhone
	}
	return fmt.Sprintf("%s,%s,%s", provider.Name, email, phone)
}

func parseStatutoryInfo(productID, raw string) map[string]string {
	if raw == "" || raw == "{}" {
		return nil
	}
	var statutory map[string]string
	if err := json.Unmarshal([]byte(raw), &statutory); err != nil {
		util.GetLogger().Warn("Failed to parse statutory info",
			zap.String("product_id", productID), zap.Error(err))
		return nil
	}
	return statutory
}

func buildTags(config *models.ProductConfig) []beckn.Tag {
	origin := config.CountryOfOrigin
	if origin == "" {
		origin = "IND"
	}
	tags := []beckn.Tag{{
		Code: "origin",
		List: []beckn.TagItem{{Code: "country", Value: origin}},
	}}

	if config.IsVeg != nil || config.IsNonVeg != nil {
		var list []beckn.TagItem
		if config.IsVeg != nil && *config.IsVeg {
			list = append(list, beckn.TagItem{Code: "veg", Value: "yes"})
		}
		if config.IsNonVeg != nil && *config.IsNonVeg {
			list = append(list, beckn.TagItem{Code: "non_veg", Value: "yes"})
		}
		if config.IsEgg != nil && *config.IsEgg {
			list = append(list, beckn.TagItem{Code: "egg", Value: "yes"})
		}
		tags = append(tags, beckn.Tag{Code: "veg_nonveg", List: list})
	}

	return tags
}

func splitImageURLs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
