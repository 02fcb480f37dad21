package worker

// retry_cron.go
// Background goroutine that periodically re-attempts delivery of receipts
// stuck in status='pending' with a next_retry_at in the past. Goes through
// the circuit breaker so a downed SMTP relay is probed, not hammered.

import (
	"context"
	"fmt"
	"time"

	"posledger/internal/infra"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	ReceiptRepo  repository.ReceiptRepository
	SaleRepo     repository.SaleRepository
	Mailer       *infra.Mailer
	CB           *infra.CircuitBreaker
	RDB          *redis.Client
	BusinessName string
}

// StartRetryCron launches a goroutine that ticks every 30s, queries due
// receipts and re-attempts delivery. Respects the context for shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	receipts, err := cfg.ReceiptRepo.FindPendingDue(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending receipts")
		return
	}
	if len(receipts) == 0 {
		return
	}
	log.Info().Int("count", len(receipts)).Msg("retry_cron: processing pending receipts")

	for i := range receipts {
		receipt := &receipts[i]

		// The breaker may have tripped mid-batch.
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		sale, err := cfg.SaleRepo.FindByID(ctx, receipt.SaleID)
		if err != nil {
			log.Error().Err(err).Str("receipt_id", receipt.ID.String()).Msg("retry_cron: sale not found")
			continue
		}

		cbErr := cfg.CB.Execute(func() error {
			pdfPath := ""
			if receipt.PDFPath != nil {
				pdfPath = *receipt.PDFPath
			}
			email := ""
			if receipt.Email != nil {
				email = *receipt.Email
			}
			if email == "" {
				return nil // nothing left to deliver
			}
			return cfg.Mailer.SendReceipt(
				email,
				fmt.Sprintf("%s — receipt #%d", cfg.BusinessName, sale.TicketNumber),
				fmt.Sprintf("Attached is your receipt.\nTotal: $%s", sale.Total.StringFixed(2)),
				pdfPath,
			)
		})

		if cbErr != nil {
			receipt.RetryCount++
			errMsg := cbErr.Error()
			receipt.LastError = &errMsg

			if receipt.RetryCount >= MaxReceiptRetries {
				receipt.Status = model.ReceiptFailed
				receipt.NextRetryAt = nil
				log.Error().
					Str("receipt_id", receipt.ID.String()).
					Int("retries", receipt.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to DLQ")

				payload := fmt.Sprintf(`{"sale_id":"%s","receipt_id":"%s"}`, receipt.SaleID, receipt.ID)
				SendToDLQ(ctx, cfg.RDB, QueueReceipt, "receipt", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxReceiptRetries, errMsg),
					receipt.RetryCount)
			} else {
				next := time.Now().Add(retryBackoff(receipt.RetryCount))
				receipt.NextRetryAt = &next
				log.Warn().
					Str("receipt_id", receipt.ID.String()).
					Int("retry_count", receipt.RetryCount).
					Time("next_retry_at", next).
					Msg("retry_cron: delivery failed again, scheduled next attempt")
			}
			_ = cfg.ReceiptRepo.Update(ctx, receipt)
			continue
		}

		receipt.Status = model.ReceiptDelivered
		receipt.NextRetryAt = nil
		receipt.LastError = nil
		_ = cfg.ReceiptRepo.Update(ctx, receipt)
		log.Info().
			Str("receipt_id", receipt.ID.String()).
			Int("total_retries", receipt.RetryCount).
			Msg("retry_cron: receipt delivered after retry")
	}
}
