package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const (
	// proofFormField is the multipart field carrying the proof of payment.
	proofFormField = "proof"
	multipartSlack = 64 << 10
)

type PaymentService interface {
	SelectMethod(ctx context.Context, s *session.Session, method payment.Method) (*payment.Attempt, error)
	PayOnline(ctx context.Context, s *session.Session, req payment.PayOnlineRequest) (*domain.Order, error)
	BankTransfer(ctx context.Context, s *session.Session) (*payment.TransferInstructions, error)
	AttachProof(ctx context.Context, s *session.Session, proof payment.Proof) (*payment.Attempt, error)
}

type PaymentHandler struct {
	payments     PaymentService
	maxProofSize int64
	timeout      time.Duration
}

func NewPaymentHandler(payments PaymentService, maxProofSize int64, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		maxProofSize: maxProofSize,
		timeout:      timeout,
	}
}

type SelectMethodRequestDTO struct {
	Method payment.Method `json:"method"`
}

type ProofResponseDTO struct {
	Attempt *payment.Attempt `json:"attempt"`
	Notice  *Notice          `json:"notice,omitempty"`
}

type OrderResponseDTO struct {
	Order  *domain.Order `json:"order"`
	Notice *Notice       `json:"notice,omitempty"`
}

// POST /api/v1/payment/method
func (h *PaymentHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	var req SelectMethodRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	attempt, err := h.payments.SelectMethod(ctx, sess, req.Method)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, attempt)
}

// POST /api/v1/payment/card
func (h *PaymentHandler) PayCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	var req payment.PayOnlineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	o, err := h.payments.PayOnline(ctx, sess, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &OrderResponseDTO{
		Order:  o,
		Notice: newNotice("Payment successful! Thank you for your order."),
	})
}

// GET /api/v1/payment/bank-transfer
func (h *PaymentHandler) BankTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	instructions, err := h.payments.BankTransfer(ctx, sess)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, instructions)
}

// POST /api/v1/payment/bank-transfer/proof
func (h *PaymentHandler) AttachProof(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxProofSize+multipartSlack)
	if err := r.ParseMultipartForm(h.maxProofSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, r, payment.ErrProofTooLarge)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(proofFormField)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "proof file is required")
		return
	}
	file.Close()

	attempt, err := h.payments.AttachProof(ctx, sess, payment.Proof{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProofResponseDTO{
		Attempt: attempt,
		Notice:  newNotice("Proof of payment received: " + header.Filename),
	})
}
