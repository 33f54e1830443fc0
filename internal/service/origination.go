package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/gateway"
	"github.com/pixvest/settlement/internal/models"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	chargeExpirySeconds = 1800
	chargeReference     = "OWNER-PAYMENTS"
)

// OriginationService is the producer boundary: it issues a gateway QR
// charge and inserts the pending deposit that the reconciliation pipeline
// later takes over.
type OriginationService struct {
	store   OriginationStore
	gateway gateway.Client
}

func NewOriginationService(store OriginationStore, gw gateway.Client) *OriginationService {
	return &OriginationService{store: store, gateway: gw}
}

type CreateDepositRequest struct {
	AccountID  uuid.UUID
	ValueCents int64
	Document   string
	Method     int16
}

type DepositQRCode struct {
	DepositID   uuid.UUID `json:"deposit_id"`
	Reference   string    `json:"reference"`
	Content     string    `json:"content"`
	ImageBase64 string    `json:"image_base64"`
}

// CreateDeposit issues a PIX charge and records the pending deposit.
func (s *OriginationService) CreateDeposit(ctx context.Context, req CreateDepositRequest) (*DepositQRCode, error) {
	if req.ValueCents <= 0 {
		return nil, fmt.Errorf("invalid deposit value: %d", req.ValueCents)
	}
	method := req.Method
	if method == 0 {
		method = domain.MethodPix
	}

	account, err := s.resolveAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	token, err := s.gateway.AcquireToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire gateway token: %w", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, token, gateway.ChargeRequest{
		ValueCents:        req.ValueCents,
		GeneratorName:     account.Name,
		GeneratorDocument: req.Document,
		ExpirationSeconds: chargeExpirySeconds,
		ExternalReference: chargeReference,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway charge: %w", err)
	}

	image := charge.ImageBase64
	if image == "" {
		image, err = renderQRCode(charge.Content)
		if err != nil {
			zap.L().Warn("local qr render failed, returning content only",
				zap.String("reference", charge.Reference), zap.Error(err))
			image = ""
		}
	}

	deposit := &models.Deposit{
		ID:          uuid.New(),
		AccountID:   account.ID,
		ExternalRef: &charge.Reference,
		Value:       req.ValueCents,
		Method:      method,
		Status:      domain.DepositPending,
	}
	if err := s.store.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}

	zap.L().Info("deposit originated",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("external_ref", charge.Reference),
		zap.Int64("value_cents", req.ValueCents))

	return &DepositQRCode{
		DepositID:   deposit.ID,
		Reference:   charge.Reference,
		Content:     charge.Content,
		ImageBase64: image,
	}, nil
}

// resolveAccount tries the secondary user id first; the client-facing side
// sends that key, with the primary id kept as fallback.
func (s *OriginationService) resolveAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.store.AccountByUserID(ctx, id)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}
	return s.store.AccountByID(ctx, id)
}

func renderQRCode(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
