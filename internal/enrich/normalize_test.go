package enrich_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/transaction-enricher/internal/enrich"
)

const fullResponse = `{
  "transaction_id": "tx-1",
  "visual_enrichments": {
    "merchant_clean_name": "ACME Coffee",
    "merchant_category": "Coffee Shops",
    "merchant_logo_link": "https://cdn.example/acme.png",
    "brand_id": "b-1",
    "default_logo": false
  },
  "merchant_location": {
    "enabled": true,
    "location_id": "loc-9",
    "address": {"country": "DEU", "city": "Berlin", "street": "Hauptstr. 1", "zip_code": "10115"},
    "coordinates": {"lat": 52.520008, "lon": 13.404954}
  },
  "subscriptions": {"enabled": true, "is_recurring": false},
  "co2_footprint": {"enabled": true, "emissions": 0.42},
  "fraud": {"enabled": true, "merchant_flagged": false},
  "categories": [{"name": "Food"}, {"name": ""}, {"id": 3}, {"name": "Coffee"}],
  "contact": {"enabled": true, "email": "hi@acme.example", "phone": "+49 30 1234", "website": "https://acme.example"},
  "payment_processor": {"enabled": true, "name": "PayCo", "logo_url": "https://cdn.example/payco.png", "brand_id": "p-1"}
}`

func TestDecodeAndFlatten_FullDocument(t *testing.T) {
	t.Parallel()

	doc, err := enrich.DecodeResponse(fullResponse)
	require.NoError(t, err)

	got := enrich.Flatten(doc)
	want := map[string]any{
		"transaction_id":         "tx-1",
		"clean_name":             "ACME Coffee",
		"category":               "Coffee Shops",
		"logo_url":               "https://cdn.example/acme.png",
		"brand_id":               "b-1",
		"default_logo":           false,
		"location_enabled":       true,
		"location_id":            "loc-9",
		"location_country":       "DEU",
		"location_city":          "Berlin",
		"location_street":        "Hauptstr. 1",
		"location_zip":           "10115",
		"location_lat":           json.Number("52.520008"),
		"location_lon":           json.Number("13.404954"),
		"subscription_enabled":   true,
		"subscription_recurring": false,
		"co2_enabled":            true,
		"co2_emissions":          json.Number("0.42"),
		"fraud_enabled":          true,
		"fraud_flagged":          false,
		"all_categories":         "Food;Coffee",
		"contact_enabled":        true,
		"contact_email":          "hi@acme.example",
		"contact_phone":          "+49 30 1234",
		"contact_website":        "https://acme.example",
		"processor_enabled":      true,
		"processor_name":         "PayCo",
		"processor_logo":         "https://cdn.example/payco.png",
		"processor_brand_id":     "p-1",
	}
	assert.Equal(t, want, got)
}

func TestFlatten_MissingSectionsAreOmitted(t *testing.T) {
	t.Parallel()

	got := enrich.Flatten(map[string]any{
		"fraud": map[string]any{"enabled": true},
	})

	assert.Equal(t, map[string]any{
		"fraud_enabled": true,
		"fraud_flagged": nil,
	}, got)
}

func TestFlatten_EmptyAddressAndCoordinatesSkipped(t *testing.T) {
	t.Parallel()

	got := enrich.Flatten(map[string]any{
		"merchant_location": map[string]any{
			"enabled":     false,
			"address":     map[string]any{},
			"coordinates": nil,
		},
	})

	assert.Equal(t, map[string]any{
		"location_enabled": false,
		"location_id":      nil,
	}, got)
}

func TestFlatten_EmptyCategoriesOmitted(t *testing.T) {
	t.Parallel()

	got := enrich.Flatten(map[string]any{"categories": []any{}})
	assert.Empty(t, got)

	got = enrich.Flatten(map[string]any{"categories": []any{map[string]any{"id": 1}}})
	assert.Equal(t, map[string]any{"all_categories": ""}, got)
}

func TestDecodeResponse_RejectsBadShapes(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":          `<html>`,
		"array":             `[1,2]`,
		"section not obj":   `{"fraud": "yes"}`,
		"null section":      `{"contact": null}`,
		"address string":    `{"merchant_location": {"address": "Berlin"}}`,
		"category not obj":  `{"categories": ["Food"]}`,
		"categories string": `{"categories": "n/a"}`,
		"category name num": `{"categories": [{"name": 3}]}`,
	}
	for name, body := range cases {
		_, err := enrich.DecodeResponse(body)
		assert.Error(t, err, name)
	}
}

func TestDecodeResponse_AcceptsMinimal(t *testing.T) {
	t.Parallel()

	doc, err := enrich.DecodeResponse(`{}`)
	require.NoError(t, err)
	assert.Empty(t, enrich.Flatten(doc))

	doc, err = enrich.DecodeResponse(`{"categories": null, "merchant_location": {"address": null}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"location_enabled": nil, "location_id": nil}, enrich.Flatten(doc))
}
