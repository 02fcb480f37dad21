package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"posledger/internal/dto"
	"posledger/internal/model"
	"posledger/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const priceCacheTTL = 5 * time.Minute

type ProductService interface {
	Create(ctx context.Context, actorID, businessID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*dto.ProductResponse, error)
	GetByBarcode(ctx context.Context, businessID uuid.UUID, barcode string) (*dto.ProductResponse, error)
	List(ctx context.Context, businessID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, businessID, id uuid.UUID) error
	// PriceCheck serves the customer-facing price lookup through a short
	// Redis cache keyed by barcode.
	PriceCheck(ctx context.Context, businessID uuid.UUID, barcode string) (*dto.PriceCheckResponse, error)
}

type productService struct {
	repo      repository.ProductRepository
	auditRepo repository.AuditRepository
	ledger    LedgerService
	rdb       *redis.Client
}

func NewProductService(
	repo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	rdb *redis.Client,
) ProductService {
	return &productService{repo: repo, auditRepo: auditRepo, ledger: ledger, rdb: rdb}
}

// Create inserts the product and, when opening stock is given, the ledger's
// "initial" entry in the same transaction.
func (s *productService) Create(ctx context.Context, actorID, businessID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if existing, err := s.repo.FindByBarcode(ctx, req.Barcode); err == nil && existing.BusinessID == businessID {
		return nil, fmt.Errorf("barcode %s already registered", req.Barcode)
	}

	p := model.Product{
		BusinessID:  businessID,
		Barcode:     req.Barcode,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		CostPrice:   req.CostPrice,
		UnitPrice:   req.UnitPrice,
		Stock:       req.OpeningStock,
		MinStock:    req.MinStock,
		Active:      true,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if innerErr := s.repo.CreateTx(tx, &p); innerErr != nil {
			return innerErr
		}
		entityIDs := p.ID.String()
		if req.OpeningStock > 0 {
			mov, innerErr := s.ledger.SeedStockTx(tx, &p, req.OpeningStock, actorID)
			if innerErr != nil {
				return innerErr
			}
			entityIDs += "," + mov.ID.String()
		}
		return s.auditRepo.CreateTx(tx, &model.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Operation:  "product.create",
			EntityType: "product",
			EntityIDs:  entityIDs,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("product_id", p.ID.String()).Str("barcode", p.Barcode).Msg("product created")
	resp := productToResponse(&p)
	return &resp, nil
}

func (s *productService) GetByID(ctx context.Context, businessID, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil || p.BusinessID != businessID {
		return nil, fmt.Errorf("product %s not found", id)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) GetByBarcode(ctx context.Context, businessID uuid.UUID, barcode string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil || p.BusinessID != businessID {
		return nil, fmt.Errorf("product with barcode %s not found", barcode)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, businessID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.repo.List(ctx, businessID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update never touches stock; that column belongs to the ledger.
func (s *productService) Update(ctx context.Context, businessID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil || p.BusinessID != businessID {
		return nil, fmt.Errorf("product %s not found", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.UnitPrice != nil {
		p.UnitPrice = *req.UnitPrice
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidatePriceCache(ctx, p.Barcode)

	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, businessID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil || p.BusinessID != businessID {
		return fmt.Errorf("product %s not found", id)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidatePriceCache(ctx, p.Barcode)
	return nil
}

// ── Price check ───────────────────────────────────────────────────────────────

func priceCacheKey(businessID uuid.UUID, barcode string) string {
	return fmt.Sprintf("price:%s:%s", businessID, barcode)
}

func (s *productService) PriceCheck(ctx context.Context, businessID uuid.UUID, barcode string) (*dto.PriceCheckResponse, error) {
	key := priceCacheKey(businessID, barcode)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var resp dto.PriceCheckResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("price cache read failed, falling through to database")
		}
	}

	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil || p.BusinessID != businessID {
		return nil, fmt.Errorf("product with barcode %s not found", barcode)
	}
	resp := dto.PriceCheckResponse{
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Stock:     p.Stock,
		Category:  p.Category,
	}
	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, key, payload, priceCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("price cache write failed")
			}
		}
	}
	return &resp, nil
}

func (s *productService) invalidatePriceCache(ctx context.Context, barcode string) {
	if s.rdb == nil {
		return
	}
	// Barcodes are unique per business; scanning by suffix keeps the key
	// schema in one place.
	iter := s.rdb.Scan(ctx, 0, "price:*:"+barcode, 10).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("price cache invalidation failed")
		}
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID.String(),
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		CostPrice:   p.CostPrice,
		UnitPrice:   p.UnitPrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Frozen:      p.Frozen,
		Active:      p.Active,
	}
}
