package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrMalformedResponse marks a 2xx reply whose body is missing the fields
// the caller needs; it is treated the same as a gateway rejection.
var ErrMalformedResponse = errors.New("malformed gateway response")

// PrimePag talks to the PrimePag PIX API. The request timeout bounds tick
// duration; the provider itself applies none.
type PrimePag struct {
	baseURL    string
	credential string
	client     *http.Client
}

func NewPrimePag(baseURL, clientID, clientSecret string, timeout time.Duration) *PrimePag {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PrimePag{
		baseURL:    baseURL,
		credential: base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret)),
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *PrimePag) AcquireToken(ctx context.Context) (string, error) {
	body := map[string]string{"grant_type": "client_credentials"}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := p.do(ctx, http.MethodPost, "/auth/generate_token", p.credential, body, &resp); err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("acquire token: %w", ErrMalformedResponse)
	}
	return resp.AccessToken, nil
}

func (p *PrimePag) PaymentStatus(ctx context.Context, token, reference string) (string, error) {
	var resp struct {
		QRCode struct {
			Status string `json:"status"`
		} `json:"qrcode"`
	}
	if err := p.do(ctx, http.MethodGet, "/v1/pix/qrcodes/"+reference, "Bearer "+token, nil, &resp); err != nil {
		return "", fmt.Errorf("payment status %s: %w", reference, err)
	}
	return resp.QRCode.Status, nil
}

func (p *PrimePag) CreateCharge(ctx context.Context, token string, req ChargeRequest) (*Charge, error) {
	body := map[string]any{
		"value_cents":        req.ValueCents,
		"generator_name":     req.GeneratorName,
		"generator_document": req.GeneratorDocument,
		"expiration_time":    strconv.Itoa(req.ExpirationSeconds),
		"external_reference": req.ExternalReference,
	}
	var resp struct {
		QRCode struct {
			ReferenceCode string `json:"reference_code"`
			Content       string `json:"content"`
			ImageBase64   string `json:"image_base64"`
		} `json:"qrcode"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/pix/qrcodes", "Bearer "+token, body, &resp); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	if resp.QRCode.ReferenceCode == "" {
		return nil, fmt.Errorf("create charge: %w", ErrMalformedResponse)
	}
	return &Charge{
		Reference:   resp.QRCode.ReferenceCode,
		Content:     resp.QRCode.Content,
		ImageBase64: resp.QRCode.ImageBase64,
	}, nil
}

func (p *PrimePag) SubmitPayout(ctx context.Context, token string, req PayoutRequest) (*PayoutReceipt, error) {
	body := map[string]any{
		"initiation_type":   "dict",
		"idempotent_id":     req.IdempotentID,
		"receiver_name":     req.ReceiverName,
		"receiver_document": req.ReceiverDocument,
		"value_cents":       req.ValueCents,
		"pix_key_type":      req.PixKeyType,
		"pix_key":           req.PixKey,
		"authorized":        true,
	}
	var resp struct {
		Payment *struct {
			ID string `json:"id"`
		} `json:"payment"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/pix/payments", "Bearer "+token, body, &resp); err != nil {
		return nil, fmt.Errorf("submit payout: %w", err)
	}
	if resp.Payment == nil {
		return nil, fmt.Errorf("submit payout: %w", ErrMalformedResponse)
	}
	return &PayoutReceipt{PaymentID: resp.Payment.ID}, nil
}

func (p *PrimePag) do(ctx context.Context, method, path, authorization string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
