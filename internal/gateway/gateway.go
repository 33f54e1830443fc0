package gateway

import "context"

// StatusPaid is the charge status the provider reports once a QR code has
// been settled by the payer.
const StatusPaid = "paid"

// ChargeRequest asks the provider to issue a PIX QR charge.
type ChargeRequest struct {
	ValueCents        int64
	GeneratorName     string
	GeneratorDocument string
	ExpirationSeconds int
	ExternalReference string
}

// Charge is the issued QR charge. ImageBase64 may be empty; callers render
// Content locally in that case.
type Charge struct {
	Reference   string
	Content     string
	ImageBase64 string
}

// PayoutRequest submits an outbound PIX payment. IdempotentID must be
// fresh per attempt: a retry after failure is a new attempt to the provider.
type PayoutRequest struct {
	ValueCents       int64
	PixKey           string
	PixKeyType       string
	IdempotentID     string
	ReceiverName     string
	ReceiverDocument string
}

// PayoutReceipt acknowledges an accepted payout.
type PayoutReceipt struct {
	PaymentID string
}

// Client is the external PIX payment provider. Tokens are acquired once
// per pipeline tick and shared across the batch; no caching beyond that is
// assumed.
type Client interface {
	AcquireToken(ctx context.Context) (string, error)
	PaymentStatus(ctx context.Context, token, reference string) (string, error)
	CreateCharge(ctx context.Context, token string, req ChargeRequest) (*Charge, error)
	SubmitPayout(ctx context.Context, token string, req PayoutRequest) (*PayoutReceipt, error)
}
