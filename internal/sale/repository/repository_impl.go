package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/pdvlabs/fiscal/pkg/db"
	"github.com/pdvlabs/fiscal/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StoreParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

// Store persists the fiscal footprint of sales: the generated document and
// the coupon identifier returned by the printer.
type Store struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[saledomain.FiscalRecord]
}

func NewStore(p StoreParam) saledomain.Store {
	return &Store{
		db:    p.DB,
		log:   p.Log.Named("sale.store"),
		genID: p.GenID,
		repo:  repository.ProvideStore[saledomain.FiscalRecord](p.DB),
	}
}

func (s *Store) SaveDocument(ctx context.Context, saleID snowflake.ID, accessKey string, xml []byte) error {
	existing, err := s.repo.FindOne(ctx, &saledomain.FiscalRecord{SaleID: saleID})
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing != nil {
		return s.repo.Update(ctx, existing.ID.String(), map[string]any{
			"access_key": accessKey,
			"xml":        xml,
			"updated_at": now,
		})
	}
	err = s.repo.Create(ctx, &saledomain.FiscalRecord{
		ID:        s.genID.Generate(),
		SaleID:    saleID,
		AccessKey: accessKey,
		XML:       xml,
		Status:    saledomain.FiscalStatusEmitted,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if db.IsDuplicateKeyErr(err) {
		// Lost an insert race on the sale_id unique index; the retry takes
		// the update path.
		return s.SaveDocument(ctx, saleID, accessKey, xml)
	}
	return err
}

func (s *Store) SetCouponID(ctx context.Context, saleID snowflake.ID, couponID int64) error {
	record, err := s.repo.FindOne(ctx, &saledomain.FiscalRecord{SaleID: saleID})
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if record == nil {
		return s.repo.Create(ctx, &saledomain.FiscalRecord{
			ID:        s.genID.Generate(),
			SaleID:    saleID,
			CouponID:  &couponID,
			Status:    saledomain.FiscalStatusPrinted,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return s.repo.Update(ctx, record.ID.String(), map[string]any{
		"coupon_id":  couponID,
		"status":     saledomain.FiscalStatusPrinted,
		"updated_at": now,
	})
}

func (s *Store) MarkCancelled(ctx context.Context, saleID snowflake.ID) error {
	record, err := s.repo.FindOne(ctx, &saledomain.FiscalRecord{SaleID: saleID})
	if err != nil {
		return err
	}
	if record == nil {
		return saledomain.ErrSaleNotFound
	}
	// The coupon id is retained for audit; only the status flips.
	return s.repo.Update(ctx, record.ID.String(), map[string]any{
		"status":     saledomain.FiscalStatusCancelled,
		"updated_at": time.Now().UTC(),
	})
}

func (s *Store) Get(ctx context.Context, saleID snowflake.ID) (*saledomain.FiscalRecord, error) {
	return s.repo.FindOne(ctx, &saledomain.FiscalRecord{SaleID: saleID})
}

// Migrate creates the fiscal tables. Embedders without an external migration
// pipeline call this once at startup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&saledomain.FiscalRecord{})
}
