package domain

import (
	"context"

	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
)

// StaticMap is an in-memory Map for embedders that configure the translation
// table in code instead of a database.
type StaticMap map[saledomain.PaymentKind]Mapping

func (m StaticMap) Lookup(_ context.Context, kind saledomain.PaymentKind) (*Mapping, error) {
	mapping, ok := m[kind]
	if !ok {
		return nil, nil
	}
	return &mapping, nil
}
