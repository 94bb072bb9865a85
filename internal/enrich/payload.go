package enrich

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// BuildPayload builds the JSON request body for row.
//
// merchant_category_code is sent as an integer and transaction_amount as its
// string form so no precision is lost on the way out.
func BuildPayload(row dataset.Row) (map[string]any, error) {
	merchant, _ := row.Get(transaction.FieldMerchantName)
	txType, _ := row.Get(transaction.FieldTransactionType)

	payload := map[string]any{
		transaction.FieldMerchantName:    merchant,
		transaction.FieldTransactionType: txType,
		transaction.FieldTransactionID:   transaction.ID(row),
	}

	for _, field := range transaction.OptionalFields {
		v, ok := row.Get(field)
		if !ok {
			continue
		}
		switch field {
		case transaction.FieldTransactionAmount:
			payload[field] = row.Text(field)
		case transaction.FieldMerchantCategoryCode:
			raw := strings.TrimSpace(row.Text(field))
			if raw == "" {
				continue
			}
			code, err := strconv.Atoi(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "payload: merchant_category_code %q", raw)
			}
			payload[field] = code
		default:
			payload[field] = v
		}
	}
	return payload, nil
}
