package worker

// alert_worker.go
// Processes low stock alert jobs from QueueAlert. Re-reads the product so
// the notification carries current numbers, then hands the mail off to
// QueueEmail.

import (
	"context"
	"encoding/json"
	"fmt"

	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AlertJobPayload is the job envelope sent to QueueAlert.
type AlertJobPayload struct {
	ProductID string `json:"product_id"`
}

type AlertWorker struct {
	productRepo repository.ProductRepository
	dispatcher  *Dispatcher
	alertEmail  string
}

func NewAlertWorker(productRepo repository.ProductRepository, dispatcher *Dispatcher, alertEmail string) *AlertWorker {
	return &AlertWorker{productRepo: productRepo, dispatcher: dispatcher, alertEmail: alertEmail}
}

func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}
	if w.alertEmail == "" {
		return // alerts not configured
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		log.Error().Str("product_id", payload.ProductID).Msg("alert_worker: invalid product_id")
		return
	}
	p, err := w.productRepo.FindByID(ctx, productID)
	if err != nil {
		log.Error().Err(err).Str("product_id", payload.ProductID).Msg("alert_worker: product not found")
		return
	}
	// The job raced with a restock; nothing to report.
	if p.Stock > p.MinStock {
		return
	}

	job := EmailJobPayload{
		ToEmail: w.alertEmail,
		Subject: fmt.Sprintf("Low stock: %s", p.Name),
		Body: fmt.Sprintf("Product %q (barcode %s) is at %d units, minimum is %d.",
			p.Name, p.Barcode, p.Stock, p.MinStock),
	}
	if err := w.dispatcher.EnqueueEmail(ctx, job); err != nil {
		log.Error().Err(err).Str("product_id", payload.ProductID).Msg("alert_worker: failed to enqueue email")
		return
	}
	log.Info().Str("product", p.Name).Int("stock", p.Stock).Msg("alert_worker: low stock alert queued")
}
