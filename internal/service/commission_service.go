package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"posledger/internal/dto"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionService computes the per-seller commission projection. Records
// are derived from the sales and returns tables on every call and never
// persisted, so rerunning the same period is idempotent by construction.
type CommissionService interface {
	Compute(ctx context.Context, businessID uuid.UUID, filter dto.CommissionFilter) ([]dto.CommissionRecord, error)
}

type commissionService struct {
	saleRepo   repository.SaleRepository
	returnRepo repository.ReturnRepository
	userRepo   repository.UserRepository
}

func NewCommissionService(
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
	userRepo repository.UserRepository,
) CommissionService {
	return &commissionService{saleRepo: saleRepo, returnRepo: returnRepo, userRepo: userRepo}
}

func (s *commissionService) Compute(ctx context.Context, businessID uuid.UUID, filter dto.CommissionFilter) ([]dto.CommissionRecord, error) {
	from, err := time.Parse("2006-01-02", filter.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", filter.From)
	}
	toDate, err := time.Parse("2006-01-02", filter.To)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", filter.To)
	}
	if toDate.Before(from) {
		return nil, fmt.Errorf("period end %s precedes start %s", filter.To, filter.From)
	}
	// Queries use [from, to): the end date is inclusive for callers, so push
	// the bound to the following midnight.
	to := toDate.AddDate(0, 0, 1)

	gross, err := s.saleRepo.TotalsBySeller(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	refunds, err := s.returnRepo.RefundTotalsBySeller(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	refundBySeller := make(map[uuid.UUID]decimal.Decimal, len(refunds))
	for _, r := range refunds {
		refundBySeller[r.SellerID] = r.Total
	}

	users, err := s.userRepo.List(ctx, businessID, true)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	rates := make(map[uuid.UUID]decimal.Decimal, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
		rates[u.ID] = u.CommissionRate
	}

	records := make([]dto.CommissionRecord, 0, len(gross))
	for _, g := range gross {
		refund := refundBySeller[g.SellerID]
		net := g.Total.Sub(refund)
		rate := rates[g.SellerID]
		records = append(records, dto.CommissionRecord{
			SellerID:    g.SellerID.String(),
			SellerName:  names[g.SellerID],
			PeriodStart: filter.From,
			PeriodEnd:   filter.To,
			GrossSales:  g.Total,
			Refunds:     refund,
			NetBasis:    net,
			Rate:        rate,
			Commission:  net.Mul(rate).Round(2),
		})
	}
	// TotalsBySeller already orders by seller id; keep the guarantee local.
	sort.Slice(records, func(i, j int) bool { return records[i].SellerID < records[j].SellerID })
	return records, nil
}
