package domain

import (
	"context"

	"github.com/pdvlabs/fiscal/internal/accesskey"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
)

// Result carries the assembled document and its decomposed access key.
type Result struct {
	XML []byte
	Key accesskey.Key
}

type Service interface {
	Assemble(ctx context.Context, sale saledomain.Sale) (Result, error)
}
