package payment

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// TransferInstructions are the static account details shown for a manual
// bank transfer.
type TransferInstructions struct {
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber"`
	BankName      string          `json:"bankName"`
	Amount        decimal.Decimal `json:"amount"`
	ProofFilename string          `json:"proofFilename,omitempty"`
}

const (
	transferAccountName   = "John Doe"
	transferAccountNumber = "123456789"
	transferBankName      = "Sample Bank"
)

func (s *Service) bankAttempt(ctx context.Context, sess *session.Session) (*Attempt, error) {
	a, err := s.Attempt(ctx, sess)
	if err != nil {
		return nil, err
	}
	if a.Method != MethodBankTransfer || a.Status != domain.PaymentAwaitingTransfer {
		return nil, ErrWrongMethod
	}
	return a, nil
}

// BankTransfer returns the transfer instructions for the current attempt.
func (s *Service) BankTransfer(ctx context.Context, sess *session.Session) (*TransferInstructions, error) {
	a, err := s.bankAttempt(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &TransferInstructions{
		AccountName:   transferAccountName,
		AccountNumber: transferAccountNumber,
		BankName:      transferBankName,
		Amount:        a.Total,
		ProofFilename: a.ProofFilename,
	}, nil
}

// Proof describes an uploaded proof-of-payment file. Only its metadata is
// kept; the content is not stored anywhere.
type Proof struct {
	Filename    string
	ContentType string
	Size        int64
}

// AttachProof accepts an image up to the configured size and records its
// filename on the attempt.
func (s *Service) AttachProof(ctx context.Context, sess *session.Session, proof Proof) (*Attempt, error) {
	if proof.Size > s.maxProofSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrProofTooLarge, proof.Size, s.maxProofSize)
	}
	mediaType, _, err := mime.ParseMediaType(proof.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: got %q", ErrProofType, proof.ContentType)
	}

	a, err := s.bankAttempt(ctx, sess)
	if err != nil {
		return nil, err
	}
	a.ProofFilename = proof.Filename
	if err := s.save(ctx, sess, a); err != nil {
		return nil, err
	}

	logger.Ctx(ctx, &s.log).Info().
		Str("session_id", sess.ID()).
		Str("filename", proof.Filename).
		Int64("size", proof.Size).
		Msg("proof of payment attached")
	return a, nil
}
