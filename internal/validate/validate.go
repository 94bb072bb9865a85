// Package validate checks transaction rows before they are sent for enrichment.
package validate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

const (
	maxTextLen = 255
	maxVATLen  = 30
)

var (
	categoryCodeRe = regexp.MustCompile(`^\d{4}$`)
	amountRe       = regexp.MustCompile(`^-?\d{0,10}(\.\d{0,2})?$`)
	timestampRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,6})?Z$`)

	transactionTypes = []string{
		transaction.TypeBankTransfer,
		transaction.TypeCardTransaction,
		transaction.TypeInvoice,
	}
	channelTypes = []string{"ATM", "POS", "ECOMMERCE"}
)

// Result is the verdict for one row. Reason names the failing field.
type Result struct {
	Valid  bool
	Reason string
}

func ok() Result { return Result{Valid: true} }

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

type rule func(dataset.Row) Result

// rules run in order; the first failure wins.
var rules = []rule{
	required,
	checkTransactionType,
	checkMerchantCountry,
	checkCategoryCode,
	maxLength(transaction.FieldMerchantCity, maxTextLen),
	maxLength(transaction.FieldMerchantID, maxTextLen),
	checkTimestamp,
	checkAmount,
	checkCurrency,
	checkReferenceText,
	maxLength(transaction.FieldAccountID, maxTextLen),
	checkChannelType,
	maxLength(transaction.FieldVAT, maxVATLen),
}

// Validate checks row against the field constraints of the enrichment API.
// It does no I/O and never mutates the row.
func Validate(row dataset.Row) Result {
	for _, r := range rules {
		if res := r(row); !res.Valid {
			return res
		}
	}
	return ok()
}

func required(row dataset.Row) Result {
	for _, f := range transaction.RequiredFields {
		if !row.Present(f) {
			return fail("Missing required field: %s", f)
		}
	}
	return ok()
}

func checkTransactionType(row dataset.Row) Result {
	v, _ := row.Get(transaction.FieldTransactionType)
	s, isString := v.(string)
	if !isString || !slices.Contains(transactionTypes, s) {
		return fail("Invalid transaction_type: %s", dataset.FormatValue(v))
	}
	return ok()
}

func checkMerchantCountry(row dataset.Row) Result {
	return exactLength(row, transaction.FieldMerchantCountry, 3)
}

func checkCurrency(row dataset.Row) Result {
	return exactLength(row, transaction.FieldTransactionCurrency, 3)
}

func checkCategoryCode(row dataset.Row) Result {
	if !row.Present(transaction.FieldMerchantCategoryCode) {
		return ok()
	}
	raw := strings.TrimSpace(row.Text(transaction.FieldMerchantCategoryCode))
	if raw == "" {
		return ok()
	}
	if !categoryCodeRe.MatchString(raw) {
		return fail("Invalid merchant_category_code: %s (must be exactly 4 digits)", row.Text(transaction.FieldMerchantCategoryCode))
	}
	return ok()
}

func checkTimestamp(row dataset.Row) Result {
	if !row.Present(transaction.FieldTransactionTimestamp) {
		return ok()
	}
	s, isString := row.String(transaction.FieldTransactionTimestamp)
	if !isString {
		return fail("transaction_timestamp must be a string")
	}
	if !timestampRe.MatchString(s) {
		return fail("Invalid transaction_timestamp format (expected ISO8601 UTC)")
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		return fail("Invalid transaction_timestamp format (expected ISO8601 UTC)")
	}
	return ok()
}

func checkAmount(row dataset.Row) Result {
	if !row.Present(transaction.FieldTransactionAmount) {
		return ok()
	}
	raw := strings.TrimSpace(row.Text(transaction.FieldTransactionAmount))
	if !amountRe.MatchString(raw) {
		return fail("transaction_amount does not match expected decimal pattern")
	}
	return ok()
}

func checkReferenceText(row dataset.Row) Result {
	const f = transaction.FieldTransactionReferenceText
	if !row.Present(f) {
		return ok()
	}
	if res := maxLength(f, maxTextLen)(row); !res.Valid {
		return res
	}
	if t, _ := row.String(transaction.FieldTransactionType); t != transaction.TypeBankTransfer {
		return fail("transaction_reference_text is only valid for transaction_type == 'BANK_TRANSFER'")
	}
	return ok()
}

func checkChannelType(row dataset.Row) Result {
	const f = transaction.FieldChannelType
	if !row.Present(f) {
		return ok()
	}
	s, isString := row.String(f)
	if !isString {
		return fail("%s must be a string", f)
	}
	if !slices.Contains(channelTypes, s) {
		return fail("Invalid channel_type: %s", s)
	}
	return ok()
}

func exactLength(row dataset.Row, field string, n int) Result {
	if !row.Present(field) {
		return ok()
	}
	s, isString := row.String(field)
	if !isString {
		return fail("%s must be a string", field)
	}
	if l := utf8.RuneCountInString(s); l != n {
		return fail("Invalid %s length: %d (expected %d)", field, l, n)
	}
	return ok()
}

func maxLength(field string, max int) rule {
	return func(row dataset.Row) Result {
		if !row.Present(field) {
			return ok()
		}
		s, isString := row.String(field)
		if !isString {
			return fail("%s must be a string", field)
		}
		if utf8.RuneCountInString(s) > max {
			return fail("%s exceeds %d characters", field, max)
		}
		return ok()
	}
}
