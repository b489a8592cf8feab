package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	paymentmethoddomain "github.com/pdvlabs/fiscal/internal/paymentmethod/domain"
	printerdomain "github.com/pdvlabs/fiscal/internal/printer/domain"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/pdvlabs/fiscal/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[paymentmethoddomain.MethodMapping]
}

func NewService(p ServiceParam) paymentmethoddomain.Service {
	return &Service{
		log:   p.Log.Named("paymentmethod.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[paymentmethoddomain.MethodMapping](p.DB),
	}
}

func (s *Service) Lookup(ctx context.Context, kind saledomain.PaymentKind) (*paymentmethoddomain.Mapping, error) {
	row, err := s.repo.FindOne(ctx, &paymentmethoddomain.MethodMapping{Kind: kind})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &paymentmethoddomain.Mapping{Method: row.Method, CustomCode: row.CustomCode}, nil
}

func (s *Service) Put(ctx context.Context, kind saledomain.PaymentKind, method printerdomain.PaymentMethod, customCode int) error {
	existing, err := s.repo.FindOne(ctx, &paymentmethoddomain.MethodMapping{Kind: kind})
	if err != nil {
		return err
	}
	if existing != nil {
		return s.repo.Update(ctx, existing.ID.String(), map[string]any{
			"method":      method,
			"custom_code": customCode,
		})
	}
	return s.repo.Create(ctx, &paymentmethoddomain.MethodMapping{
		ID:         s.genID.Generate(),
		Kind:       kind,
		Method:     method,
		CustomCode: customCode,
	})
}
