package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Mock simulates the PIX provider for local runs. Charges are always
// reported paid and payouts fail randomly at FailureRate.
type Mock struct {
	// FailureRate is the payout failure probability (0.0 to 1.0).
	FailureRate float64
}

func NewMock() *Mock {
	return &Mock{FailureRate: 0.1}
}

func (m *Mock) AcquireToken(ctx context.Context) (string, error) {
	return fmt.Sprintf("mock-token-%d", time.Now().UnixNano()), nil
}

func (m *Mock) PaymentStatus(ctx context.Context, token, reference string) (string, error) {
	return StatusPaid, nil
}

func (m *Mock) CreateCharge(ctx context.Context, token string, req ChargeRequest) (*Charge, error) {
	ref := fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000))
	return &Charge{
		Reference: ref,
		Content:   fmt.Sprintf("00020126mock%s5204%d", ref, req.ValueCents),
	}, nil
}

func (m *Mock) SubmitPayout(ctx context.Context, token string, req PayoutRequest) (*PayoutReceipt, error) {
	if rand.Float64() < m.FailureRate {
		return nil, fmt.Errorf("gateway temporarily unavailable")
	}
	return &PayoutReceipt{
		PaymentID: fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000)),
	}, nil
}
