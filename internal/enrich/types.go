package enrich

import (
	"context"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// Kind classifies the result of one remote enrichment call.
type Kind int

const (
	KindSuccess Kind = iota
	KindRateLimited
	KindHTTPError
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindHTTPError:
		return "http_error"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// RemoteCallResult is the classified outcome of a call.
//
// Body holds the raw payload on success and the error text otherwise.
// StatusCode is 0 when no HTTP response was received.
type RemoteCallResult struct {
	Kind       Kind
	StatusCode int
	Body       string
}

// Client performs one enrichment call for a row, retries included.
type Client interface {
	Call(ctx context.Context, row dataset.Row) RemoteCallResult
}
