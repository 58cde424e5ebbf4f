package worker

// email_worker.go
// Processes notification jobs from QueueEmail: order confirmation and
// payment-confirmed emails, with an optional PDF receipt attachment.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hpmarcas/internal/infra"
	"hpmarcas/internal/repository"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// SaleID, when set with AttachReceipt, makes the worker render and
	// attach the PDF receipt for that sale.
	SaleID        string `json:"sale_id,omitempty"`
	AttachReceipt bool   `json:"attach_receipt,omitempty"`
}

// EmailWorker delivers notification emails via SMTP.
type EmailWorker struct {
	mailer    *infra.Mailer
	saleRepo  repository.SaleRepository
	storeName string
	pdfPath   string
}

func NewEmailWorker(mailer *infra.Mailer, saleRepo repository.SaleRepository, storeName, pdfPath string) *EmailWorker {
	return &EmailWorker{mailer: mailer, saleRepo: saleRepo, storeName: storeName, pdfPath: pdfPath}
}

// Process sends one notification email. Returns an error only for genuine
// delivery failures — malformed payloads are logged and dropped.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return nil
	}

	attachment := ""
	if payload.AttachReceipt && payload.SaleID != "" {
		saleID, err := uuid.Parse(payload.SaleID)
		if err == nil {
			if sale, err := w.saleRepo.FindByID(ctx, saleID); err == nil {
				path, err := infra.GenerateReceiptPDF(sale, w.storeName, w.pdfPath)
				if err != nil {
					log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("email_worker: receipt render failed — sending without attachment")
				} else {
					attachment = path
				}
			}
		}
	}

	if err := w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, attachment); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return fmt.Errorf("send email to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: notification sent")
	return nil
}
