package service

import (
	"context"

	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"go.uber.org/zap"
)

// PrintSale runs a whole sale through the coupon lifecycle: open, optional
// customer identification, items, totalization, payments, close. Sales whose
// lines are all non-printable never touch the printer and report coupon id
// zero. Till withdrawals attached to the sale print as additional money
// payments so the coupon total matches the drawer.
func (s *Session) PrintSale(ctx context.Context, sale saledomain.Sale) (int64, error) {
	printable := false
	for _, item := range sale.Items {
		if item.Printable() {
			printable = true
			break
		}
	}
	if !printable {
		s.log.Info("sale has no printable lines, skipping coupon",
			zap.Int64("sale_id", int64(sale.ID)))
		return 0, nil
	}

	if err := s.Open(ctx, sale); err != nil {
		return 0, err
	}
	if sale.Customer != nil {
		if err := s.IdentifyCustomer(ctx, *sale.Customer); err != nil {
			return 0, err
		}
	}
	for _, item := range sale.Items {
		if _, err := s.AddItem(ctx, item); err != nil {
			return 0, err
		}
	}
	if err := s.Totalize(ctx, sale.DiscountPct, sale.SurchargePct); err != nil {
		return 0, err
	}
	for _, payment := range sale.Payments {
		if err := s.AddPayment(ctx, payment); err != nil {
			return 0, err
		}
	}
	for _, entry := range sale.TillEntries {
		payment := saledomain.Payment{Kind: saledomain.PaymentKindMoney, Value: entry.Value}
		if err := s.AddPayment(ctx, payment); err != nil {
			return 0, err
		}
	}

	couponID, err := s.Close(ctx)
	if err != nil {
		return 0, err
	}
	s.reset()
	return couponID, nil
}
