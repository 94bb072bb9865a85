package enrich

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// leaf maps a nested source key to a flat output column.
type leaf struct {
	src string
	dst string
}

type section struct {
	key    string
	leaves []leaf
}

var sections = []section{
	{key: "visual_enrichments", leaves: []leaf{
		{"merchant_clean_name", "clean_name"},
		{"merchant_category", "category"},
		{"merchant_logo_link", "logo_url"},
		{"brand_id", "brand_id"},
		{"default_logo", "default_logo"},
	}},
	{key: "merchant_location", leaves: []leaf{
		{"enabled", "location_enabled"},
		{"location_id", "location_id"},
	}},
	{key: "subscriptions", leaves: []leaf{
		{"enabled", "subscription_enabled"},
		{"is_recurring", "subscription_recurring"},
	}},
	{key: "co2_footprint", leaves: []leaf{
		{"enabled", "co2_enabled"},
		{"emissions", "co2_emissions"},
	}},
	{key: "fraud", leaves: []leaf{
		{"enabled", "fraud_enabled"},
		{"merchant_flagged", "fraud_flagged"},
	}},
	{key: "contact", leaves: []leaf{
		{"enabled", "contact_enabled"},
		{"email", "contact_email"},
		{"phone", "contact_phone"},
		{"website", "contact_website"},
	}},
	{key: "payment_processor", leaves: []leaf{
		{"enabled", "processor_enabled"},
		{"name", "processor_name"},
		{"logo_url", "processor_logo"},
		{"brand_id", "processor_brand_id"},
	}},
}

var (
	addressLeaves = []leaf{
		{"country", "location_country"},
		{"city", "location_city"},
		{"street", "location_street"},
		{"zip_code", "location_zip"},
	}
	coordinateLeaves = []leaf{
		{"lat", "location_lat"},
		{"lon", "location_lon"},
	}
)

// Flatten extracts the known nested response fields into flat columns.
//
// Sections missing from doc are omitted; a present section with a missing
// leaf yields a nil value for that column.
func Flatten(doc map[string]any) map[string]any {
	out := make(map[string]any)

	if id, ok := doc["transaction_id"]; ok {
		out["transaction_id"] = id
	}

	for _, s := range sections {
		obj, ok := object(doc, s.key)
		if !ok {
			continue
		}
		copyLeaves(out, obj, s.leaves)

		if s.key != "merchant_location" {
			continue
		}
		if addr, ok := object(obj, "address"); ok && len(addr) > 0 {
			copyLeaves(out, addr, addressLeaves)
		}
		if coords, ok := object(obj, "coordinates"); ok && len(coords) > 0 {
			copyLeaves(out, coords, coordinateLeaves)
		}
	}

	if cats, ok := doc["categories"].([]any); ok && len(cats) > 0 {
		names := make([]string, 0, len(cats))
		for _, c := range cats {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := m["name"].(string); name != "" {
				names = append(names, name)
			}
		}
		out["all_categories"] = strings.Join(names, ";")
	}

	return out
}

func object(m map[string]any, key string) (map[string]any, bool) {
	obj, ok := m[key].(map[string]any)
	return obj, ok
}

func copyLeaves(dst, src map[string]any, leaves []leaf) {
	for _, l := range leaves {
		dst[l.dst] = src[l.src]
	}
}

// responseSchemaMap describes the response shape Flatten relies on.
func responseSchemaMap() map[string]any {
	props := map[string]any{
		"categories": map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": []string{"string", "null"}},
				},
			},
		},
	}
	for _, s := range sections {
		props[s.key] = map[string]any{"type": "object"}
	}
	props["merchant_location"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"address":     map[string]any{"type": []string{"object", "null"}},
			"coordinates": map[string]any{"type": []string{"object", "null"}},
		},
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(responseSchemaMap())
		if err != nil {
			schemaErr = eris.Wrap(err, "marshal response schema")
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", bytes.NewReader(b)); err != nil {
			schemaErr = eris.Wrap(err, "add response schema")
			return
		}
		schema, schemaErr = compiler.Compile("response.json")
	})
	return schema, schemaErr
}

// DecodeResponse parses a success body and checks it against the response
// shape. Numbers are kept as json.Number so their text survives unchanged.
func DecodeResponse(body string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}

	s, err := responseSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, eris.Wrap(err, "response does not match schema")
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return nil, eris.New("response is not a JSON object")
	}
	return m, nil
}
