package mockapi

import (
	"strings"
)

// mccCategories maps a few merchant category codes to category names.
var mccCategories = map[string][]string{
	"5411": {"Groceries", "Food & Drink"},
	"5812": {"Restaurants", "Food & Drink"},
	"5541": {"Fuel", "Transport"},
	"4121": {"Taxi", "Transport"},
}

// CannedResponse builds a deterministic enrichment document for a request
// payload.
func CannedResponse(payload map[string]any) map[string]any {
	id, _ := payload["transaction_id"].(string)
	name, _ := payload["merchant_name"].(string)
	clean := strings.TrimSpace(name)
	slug := strings.ToLower(strings.Join(strings.Fields(clean), "-"))

	doc := map[string]any{
		"transaction_id": id,
		"visual_enrichments": map[string]any{
			"merchant_clean_name": clean,
			"merchant_category":   "Shopping",
			"merchant_logo_link":  "https://logos.example.com/" + slug + ".png",
			"brand_id":            "brand-" + slug,
			"default_logo":        false,
		},
		"fraud": map[string]any{
			"enabled":          true,
			"merchant_flagged": false,
		},
		"co2_footprint": map[string]any{
			"enabled":   true,
			"emissions": 1.25,
		},
		"subscriptions": map[string]any{
			"enabled":      true,
			"is_recurring": false,
		},
	}

	city, _ := payload["merchant_city"].(string)
	country, _ := payload["merchant_country"].(string)
	if city != "" || country != "" {
		address := map[string]any{}
		if city != "" {
			address["city"] = city
		}
		if country != "" {
			address["country"] = country
		}
		doc["merchant_location"] = map[string]any{
			"enabled":     true,
			"location_id": "loc-" + slug,
			"address":     address,
		}
	}

	if mcc, ok := payload["merchant_category_code"]; ok {
		names := mccCategories[strings.TrimSpace(toString(mcc))]
		cats := make([]any, 0, len(names))
		for _, n := range names {
			cats = append(cats, map[string]any{"name": n})
		}
		doc["categories"] = cats
	}
	return doc
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case interface{ String() string }:
		return x.String()
	default:
		return ""
	}
}
