package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/internal/validate"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/redact"
)

// maxErrorDetail caps error text stored in the enrichment_error column.
const maxErrorDetail = 1024

// Processor runs validation, the remote call and flattening for one row.
type Processor struct {
	client Client
}

// NewProcessor returns a row processor backed by client.
func NewProcessor(client Client) *Processor {
	return &Processor{client: client}
}

// Process returns the outcome for row. It never performs a network call for
// rows that fail validation.
func (p *Processor) Process(ctx context.Context, row dataset.Row) transaction.Outcome {
	id := transaction.ID(row)

	if res := validate.Validate(row); !res.Valid {
		return transaction.Outcome{
			RowID:       id,
			Status:      transaction.StatusSkipped,
			ErrorDetail: detail("Validation failed: " + res.Reason),
			Fields:      map[string]any{},
		}
	}

	zap.L().Debug("enriching transaction", zap.String("transaction_id", id))
	res := p.client.Call(ctx, row)
	if res.Kind != KindSuccess {
		return errorOutcome(id, res.StatusCode, res.Body)
	}

	doc, err := DecodeResponse(res.Body)
	if err != nil {
		return errorOutcome(id, res.StatusCode, err.Error())
	}
	return transaction.Outcome{
		RowID:  id,
		Status: transaction.StatusSuccess,
		Fields: Flatten(doc),
	}
}

func errorOutcome(id string, status int, msg string) transaction.Outcome {
	return transaction.Outcome{
		RowID:       id,
		Status:      transaction.StatusError,
		ErrorDetail: detail(FormatError(status, msg)),
		Fields:      map[string]any{},
	}
}

// FormatError renders "<status> <message>", leaving the status out when no
// HTTP response was received.
func FormatError(status int, msg string) string {
	if status == 0 {
		return msg
	}
	return fmt.Sprintf("%d %s", status, msg)
}

func detail(s string) *string {
	s = redact.Truncate(s, maxErrorDetail)
	return &s
}
