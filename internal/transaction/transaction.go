// Package transaction holds the transaction record vocabulary shared by the
// validator, the enrichment client and the batch coordinator.
package transaction

import (
	"strings"

	"github.com/google/uuid"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// Input fields.
const (
	FieldTransactionID            = "transaction_id"
	FieldMerchantName             = "merchant_name"
	FieldTransactionType          = "transaction_type"
	FieldMerchantCountry          = "merchant_country"
	FieldMerchantCategoryCode     = "merchant_category_code"
	FieldMerchantCity             = "merchant_city"
	FieldMerchantID               = "merchant_id"
	FieldTransactionTimestamp     = "transaction_timestamp"
	FieldTransactionAmount        = "transaction_amount"
	FieldTransactionCurrency      = "transaction_currency"
	FieldTransactionReferenceText = "transaction_reference_text"
	FieldAccountID                = "account_id"
	FieldChannelType              = "channel_type"
	FieldVAT                      = "vat"
)

// Resumable state columns.
const (
	ColumnStatus = "enrichment_status"
	ColumnError  = "enrichment_error"
)

// Transaction types accepted by the enrichment service.
const (
	TypeBankTransfer    = "BANK_TRANSFER"
	TypeCardTransaction = "CARD_TRANSACTION"
	TypeInvoice         = "INVOICE"
)

// RequiredFields must be present on every row sent for enrichment.
var RequiredFields = []string{FieldMerchantName, FieldTransactionType, FieldTransactionID}

// OptionalFields are forwarded to the enrichment service when present.
var OptionalFields = []string{
	FieldMerchantCountry,
	FieldMerchantCategoryCode,
	FieldMerchantCity,
	FieldMerchantID,
	FieldTransactionTimestamp,
	FieldTransactionAmount,
	FieldTransactionCurrency,
	FieldTransactionReferenceText,
	FieldAccountID,
	FieldChannelType,
	FieldVAT,
}

// Status is the enrichment state of a row. The zero value means pending.
type Status string

const (
	StatusPending Status = ""
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// IsTerminal reports whether s is a status a processing pass can assign.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusSkipped:
		return true
	}
	return false
}

// Outcome is the result of processing one row in one pass.
type Outcome struct {
	RowID       string
	Status      Status
	ErrorDetail *string
	Fields      map[string]any
}

// StatusOf returns the enrichment status recorded on row.
func StatusOf(row dataset.Row) Status {
	return Status(strings.TrimSpace(row.Text(ColumnStatus)))
}

// ID returns the row's transaction_id as text.
func ID(row dataset.Row) string {
	return strings.TrimSpace(row.Text(FieldTransactionID))
}

// AssignMissingIDs gives every row without a usable transaction_id a fresh
// identifier and returns how many rows were assigned. newID defaults to a
// random UUID.
func AssignMissingIDs(ds *dataset.Dataset, newID func() string) int {
	if newID == nil {
		newID = uuid.NewString
	}
	ds.AddColumn(FieldTransactionID)

	assigned := 0
	for i, row := range ds.Rows {
		if ID(row) != "" {
			continue
		}
		ds.Set(i, FieldTransactionID, newID())
		assigned++
	}
	return assigned
}

// EnsureStateColumns adds the enrichment_status and enrichment_error columns
// when the dataset does not carry them yet.
func EnsureStateColumns(ds *dataset.Dataset) {
	ds.AddColumn(ColumnStatus)
	ds.AddColumn(ColumnError)
}
