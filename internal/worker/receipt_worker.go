package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF and, when the
// customer left an email, sends it through the circuit-breaker-guarded
// mailer. Failed sends stay pending with a scheduled retry; the retry cron
// picks them up.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"posledger/internal/infra"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxReceiptRetries bounds delivery attempts before a receipt is marked
// failed and parked in the DLQ.
const MaxReceiptRetries = 5

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	SaleID        string  `json:"sale_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

type ReceiptWorker struct {
	receiptRepo    repository.ReceiptRepository
	saleRepo       repository.SaleRepository
	mailer         *infra.Mailer
	cb             *infra.CircuitBreaker
	rdb            *redis.Client
	pdfStoragePath string
	businessName   string
}

func NewReceiptWorker(
	receiptRepo repository.ReceiptRepository,
	saleRepo repository.SaleRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
	pdfStoragePath, businessName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		receiptRepo:    receiptRepo,
		saleRepo:       saleRepo,
		mailer:         mailer,
		cb:             cb,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
		businessName:   businessName,
	}
}

// Process handles a single receipt job:
//  1. Fetch the sale (with lines and charges)
//  2. Create the Receipt record as pending
//  3. Render the PDF
//  4. Mail it when an address was given, through the circuit breaker
//  5. Mark delivered, or schedule a retry on failure
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	receipt, err := w.receiptRepo.FindBySaleID(ctx, saleID)
	if err != nil {
		receipt = &model.Receipt{
			SaleID: saleID,
			Status: model.ReceiptPending,
			Email:  payload.CustomerEmail,
		}
		if err := w.receiptRepo.Create(ctx, receipt); err != nil {
			log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: failed to create receipt")
			return
		}
	}

	pdfPath, pdfErr := infra.GenerateReceiptPDF(sale, w.businessName, w.pdfStoragePath)
	if pdfErr != nil {
		w.scheduleRetry(ctx, receipt, fmt.Errorf("pdf: %w", pdfErr))
		return
	}
	receipt.PDFPath = &pdfPath

	if receipt.Email == nil || *receipt.Email == "" {
		receipt.Status = model.ReceiptDelivered
		receipt.NextRetryAt = nil
		receipt.LastError = nil
		_ = w.receiptRepo.Update(ctx, receipt)
		log.Info().Int("ticket", sale.TicketNumber).Str("pdf", pdfPath).Msg("receipt_worker: receipt generated")
		return
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendReceipt(
			*receipt.Email,
			fmt.Sprintf("%s — receipt #%d", w.businessName, sale.TicketNumber),
			fmt.Sprintf("Attached is your receipt.\nTotal: $%s", sale.Total.StringFixed(2)),
			pdfPath,
		)
	})
	if sendErr != nil {
		w.scheduleRetry(ctx, receipt, sendErr)
		return
	}

	receipt.Status = model.ReceiptDelivered
	receipt.NextRetryAt = nil
	receipt.LastError = nil
	_ = w.receiptRepo.Update(ctx, receipt)
	log.Info().Int("ticket", sale.TicketNumber).Str("to", *receipt.Email).Msg("receipt_worker: receipt delivered")
}

func (w *ReceiptWorker) scheduleRetry(ctx context.Context, receipt *model.Receipt, cause error) {
	receipt.RetryCount++
	msg := cause.Error()
	receipt.LastError = &msg

	if receipt.RetryCount >= MaxReceiptRetries {
		receipt.Status = model.ReceiptFailed
		receipt.NextRetryAt = nil
		_ = w.receiptRepo.Update(ctx, receipt)

		payload := fmt.Sprintf(`{"sale_id":"%s","receipt_id":"%s"}`, receipt.SaleID, receipt.ID)
		SendToDLQ(ctx, w.rdb, QueueReceipt, "receipt", []byte(payload),
			fmt.Sprintf("max retries (%d) exceeded: %s", MaxReceiptRetries, msg),
			receipt.RetryCount)
		return
	}

	next := time.Now().Add(retryBackoff(receipt.RetryCount))
	receipt.NextRetryAt = &next
	_ = w.receiptRepo.Update(ctx, receipt)
	log.Warn().
		Str("receipt_id", receipt.ID.String()).
		Int("retry_count", receipt.RetryCount).
		Time("next_retry_at", next).
		Msg("receipt_worker: delivery failed, scheduled retry")
}

// retryBackoff returns the wait before attempt n+1: 30s, 1m, 2m, 4m… capped
// at 30 minutes.
func retryBackoff(retryCount int) time.Duration {
	backoff := 30 * time.Second << uint(retryCount-1)
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}
