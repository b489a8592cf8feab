package service

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/pdvlabs/fiscal/internal/coupon/domain"
	paymentmethoddomain "github.com/pdvlabs/fiscal/internal/paymentmethod/domain"
	printerdomain "github.com/pdvlabs/fiscal/internal/printer/domain"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type printedItem struct {
	code     string
	desc     string
	quantity decimal.Decimal
	unit     printerdomain.Unit
	unitDesc string
}

type appliedPay struct {
	method printerdomain.PaymentMethod
	value  decimal.Decimal
	custom int
}

// fakeDriver records every call and pops scripted errors per operation.
type fakeDriver struct {
	calls []string

	openErrs    []error
	identifyErr error
	addItemErr  error
	totalizeErr error
	payErr      error
	closeErr    error
	cancelErr   error
	caps        printerdomain.Capabilities

	nextLine  int
	couponID  int64
	items     []printedItem
	cancelled []int
	payments  []appliedPay
	custName  string
	custAddr  string
	custDoc   string
	discount  decimal.Decimal
	surcharge decimal.Decimal
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{couponID: 7001}
}

func (d *fakeDriver) OpenCoupon() error {
	d.calls = append(d.calls, "open")
	if len(d.openErrs) > 0 {
		err := d.openErrs[0]
		d.openErrs = d.openErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDriver) IdentifyCustomer(name, address, doc string) error {
	d.calls = append(d.calls, "identify")
	if d.identifyErr != nil {
		return d.identifyErr
	}
	d.custName, d.custAddr, d.custDoc = name, address, doc
	return nil
}

func (d *fakeDriver) AddItem(code, desc string, _ decimal.Decimal, _ int, qty decimal.Decimal, unit printerdomain.Unit, unitDesc string) (int, error) {
	d.calls = append(d.calls, "add_item")
	if d.addItemErr != nil {
		return 0, d.addItemErr
	}
	d.nextLine++
	d.items = append(d.items, printedItem{code: code, desc: desc, quantity: qty, unit: unit, unitDesc: unitDesc})
	return d.nextLine, nil
}

func (d *fakeDriver) CancelItem(lineID int) error {
	d.calls = append(d.calls, "cancel_item")
	d.cancelled = append(d.cancelled, lineID)
	return nil
}

func (d *fakeDriver) Totalize(discountPct, surchargePct decimal.Decimal) error {
	d.calls = append(d.calls, "totalize")
	if d.totalizeErr != nil {
		return d.totalizeErr
	}
	d.discount, d.surcharge = discountPct, surchargePct
	return nil
}

func (d *fakeDriver) AddPayment(method printerdomain.PaymentMethod, value decimal.Decimal, customCode int) error {
	d.calls = append(d.calls, "add_payment")
	if d.payErr != nil {
		return d.payErr
	}
	d.payments = append(d.payments, appliedPay{method: method, value: value, custom: customCode})
	return nil
}

func (d *fakeDriver) CloseCoupon() (int64, error) {
	d.calls = append(d.calls, "close")
	if d.closeErr != nil {
		return 0, d.closeErr
	}
	return d.couponID, nil
}

func (d *fakeDriver) CancelCoupon() error {
	d.calls = append(d.calls, "cancel")
	return d.cancelErr
}

func (d *fakeDriver) Capabilities() printerdomain.Capabilities {
	return d.caps
}

type fakeNotifier struct {
	answer    bool
	questions []string
	warnings  []string
}

func (n *fakeNotifier) AskYesNo(short, _ string) bool {
	n.questions = append(n.questions, short)
	return n.answer
}

func (n *fakeNotifier) Warn(short, _ string) {
	n.warnings = append(n.warnings, short)
}

type fakeStore struct {
	couponIDs map[snowflake.ID]int64
	cancelled []snowflake.ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{couponIDs: map[snowflake.ID]int64{}}
}

func (s *fakeStore) SaveDocument(context.Context, snowflake.ID, string, []byte) error { return nil }

func (s *fakeStore) SetCouponID(_ context.Context, saleID snowflake.ID, couponID int64) error {
	s.couponIDs[saleID] = couponID
	return nil
}

func (s *fakeStore) MarkCancelled(_ context.Context, saleID snowflake.ID) error {
	s.cancelled = append(s.cancelled, saleID)
	return nil
}

func (s *fakeStore) Get(context.Context, snowflake.ID) (*saledomain.FiscalRecord, error) {
	return nil, nil
}

func newTestSession(d *fakeDriver, n *fakeNotifier, st *fakeStore) *Session {
	p := SessionParam{
		Log:      zap.NewNop(),
		Driver:   d,
		Notifier: n,
		Methods: paymentmethoddomain.StaticMap{
			saledomain.PaymentKindCard: {Method: printerdomain.PaymentCustom, CustomCode: 3},
		},
	}
	if st != nil {
		p.Store = st
	}
	return NewSession(p)
}

func couponSale() saledomain.Sale {
	return saledomain.Sale{
		ID:     snowflake.ID(555),
		Number: 1,
		Items: []saledomain.Item{
			{
				Code: "P001", Description: "Produto Um", Kind: saledomain.ItemKindProduct,
				Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("10.00"),
				PrinterTaxCode: 1,
			},
			{
				Code: "S001", Description: "Servico", Kind: saledomain.ItemKindService,
				Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("5.00"),
			},
		},
		Payments: []saledomain.Payment{{
			Kind: saledomain.PaymentKindMoney, Value: decimal.RequireFromString("10.00"),
		}},
	}
}

func TestPrintSale_MinimalCoupon(t *testing.T) {
	driver := newFakeDriver()
	store := newFakeStore()
	session := newTestSession(driver, &fakeNotifier{}, store)

	couponID, err := session.PrintSale(context.Background(), couponSale())
	require.NoError(t, err)
	assert.Equal(t, int64(7001), couponID)

	// Service line never reached the printer.
	assert.Equal(t, []string{"open", "add_item", "totalize", "add_payment", "close"}, driver.calls)
	require.Len(t, driver.items, 1)
	assert.Equal(t, "P001", driver.items[0].code)

	assert.Equal(t, int64(7001), store.couponIDs[snowflake.ID(555)])
	assert.Equal(t, coupondomain.StateIdle, session.State())
}

func TestPrintSale_ServiceOnlySkipsPrinter(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)

	sale := couponSale()
	sale.Items = sale.Items[1:]

	couponID, err := session.PrintSale(context.Background(), sale)
	require.NoError(t, err)
	assert.Zero(t, couponID)
	assert.Empty(t, driver.calls)
	assert.Equal(t, coupondomain.StateIdle, session.State())
}

func TestPrintSale_TillEntriesPrintAsMoney(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)

	sale := couponSale()
	sale.TillEntries = []saledomain.TillEntry{{Description: "Sangria", Value: decimal.RequireFromString("2.00")}}

	_, err := session.PrintSale(context.Background(), sale)
	require.NoError(t, err)

	require.Len(t, driver.payments, 2)
	assert.Equal(t, printerdomain.PaymentMoney, driver.payments[1].method)
	assert.Equal(t, "2.00", driver.payments[1].value.StringFixed(2))
}

func TestOpen_RecoversFromCouponLeftOpen(t *testing.T) {
	driver := newFakeDriver()
	driver.openErrs = []error{printerdomain.ErrCouponAlreadyOpen}
	session := newTestSession(driver, &fakeNotifier{}, nil)

	err := session.Open(context.Background(), couponSale())
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "cancel", "open"}, driver.calls)
	assert.Equal(t, coupondomain.StateOpen, session.State())
}

func TestOpen_OutOfPaperIsTransient(t *testing.T) {
	driver := newFakeDriver()
	driver.openErrs = []error{printerdomain.ErrOutOfPaper}
	session := newTestSession(driver, &fakeNotifier{}, nil)

	err := session.Open(context.Background(), couponSale())

	var transient *coupondomain.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, coupondomain.StepOpen, transient.Step)
	assert.ErrorIs(t, err, printerdomain.ErrOutOfPaper)
	assert.Equal(t, coupondomain.StateIdle, session.State())

	// Operator reloads paper; the same call succeeds.
	require.NoError(t, session.Open(context.Background(), couponSale()))
	assert.Equal(t, coupondomain.StateOpen, session.State())
}

func TestSequencing_RejectedWithoutDriverCalls(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	err := session.AddPayment(ctx, saledomain.Payment{Kind: saledomain.PaymentKindMoney, Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)

	_, err = session.Close(ctx)
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)

	err = session.Totalize(ctx, decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)

	err = session.CancelItem(ctx, 1)
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)
	assert.ErrorContains(t, err, "cancel_item")

	assert.Empty(t, driver.calls)
}

func TestIdentifyCustomer_OnceAndTruncated(t *testing.T) {
	driver := newFakeDriver()
	driver.caps = printerdomain.Capabilities{
		printerdomain.CapCustomerName:    10,
		printerdomain.CapCustomerAddress: 12,
	}
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))

	party := saledomain.Party{
		Doc:  "529.982.247-25",
		Name: "Fulano de Tal e Silva",
		Address: saledomain.Address{
			Street: "Avenida Brasil", Number: "1500", City: "Rio de Janeiro",
		},
	}
	require.NoError(t, session.IdentifyCustomer(ctx, party))

	assert.Equal(t, "Fulano de ", driver.custName)
	assert.Len(t, driver.custAddr, 12)
	assert.Equal(t, "52998224725", driver.custDoc)
	assert.Equal(t, coupondomain.StateCustomerIdentified, session.State())

	err := session.IdentifyCustomer(ctx, party)
	assert.ErrorIs(t, err, coupondomain.ErrAlreadyIdentified)
}

func TestIdentifyCustomer_AccentedNamesCutOnRuneBoundary(t *testing.T) {
	driver := newFakeDriver()
	driver.caps = printerdomain.Capabilities{
		printerdomain.CapCustomerName:    7,
		printerdomain.CapCustomerAddress: 11,
	}
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))

	// A byte cut at either limit would land inside "ã".
	party := saledomain.Party{
		Doc:  "529.982.247-25",
		Name: "João da Conceição",
		Address: saledomain.Address{
			Street: "Avenida São João", Number: "45",
		},
	}
	require.NoError(t, session.IdentifyCustomer(ctx, party))

	assert.Equal(t, "João da", driver.custName)
	assert.Equal(t, "Avenida São", driver.custAddr)
	assert.True(t, utf8.ValidString(driver.custName))
	assert.True(t, utf8.ValidString(driver.custAddr))
}

func TestAddItem_FailureLosesOnlyThatLine(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))

	item := couponSale().Items[0]
	lineID, err := session.AddItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, 1, lineID)

	driver.addItemErr = printerdomain.ErrOutOfPaper
	_, err = session.AddItem(ctx, item)
	var transient *coupondomain.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, coupondomain.StepAddItem, transient.Step)
	assert.Equal(t, coupondomain.StateOpen, session.State())

	driver.addItemErr = nil
	_, err = session.AddItem(ctx, item)
	require.NoError(t, err)
	assert.Len(t, session.Coupon().Items, 2)
}

func TestCancelItem_RemovesHandle(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	lineID, err := session.AddItem(ctx, couponSale().Items[0])
	require.NoError(t, err)

	require.NoError(t, session.CancelItem(ctx, lineID))
	assert.Equal(t, []int{lineID}, driver.cancelled)
	assert.Empty(t, session.Coupon().Items)
}

func TestTotalize_RequiresPrintableItems(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	err := session.Totalize(ctx, decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, coupondomain.ErrCannotTotalize)
	assert.NotContains(t, driver.calls, "totalize")
}

func TestTotalize_DiscountWinsOverSurcharge(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	_, err := session.AddItem(ctx, couponSale().Items[0])
	require.NoError(t, err)

	require.NoError(t, session.Totalize(ctx, decimal.NewFromInt(5), decimal.NewFromInt(3)))
	assert.Equal(t, "5.00", driver.discount.StringFixed(2))
	assert.True(t, driver.surcharge.IsZero())
}

func TestTotalize_DriverFaultIsFatal(t *testing.T) {
	driver := newFakeDriver()
	driver.totalizeErr = printerdomain.ErrPrinterOffline
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	_, err := session.AddItem(ctx, couponSale().Items[0])
	require.NoError(t, err)

	err = session.Totalize(ctx, decimal.Zero, decimal.Zero)
	var fatal *coupondomain.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, coupondomain.StepTotalize, fatal.Step)
	assert.Equal(t, coupondomain.StateFailed, session.State())
	// The coupon in progress was voided on the device.
	assert.Contains(t, driver.calls, "cancel")
}

func openTotalized(t *testing.T, session *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, session.Open(ctx, couponSale()))
	_, err := session.AddItem(ctx, couponSale().Items[0])
	require.NoError(t, err)
	require.NoError(t, session.Totalize(ctx, decimal.Zero, decimal.Zero))
}

func TestAddPayment_MappedKinds(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()
	openTotalized(t, session)

	require.NoError(t, session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindMoney, Value: decimal.RequireFromString("4.00"),
	}))
	require.NoError(t, session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindCheck, Value: decimal.RequireFromString("3.00"),
	}))
	require.NoError(t, session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindCard, Value: decimal.RequireFromString("3.00"),
	}))

	require.Len(t, driver.payments, 3)
	assert.Equal(t, printerdomain.PaymentMoney, driver.payments[0].method)
	assert.Equal(t, printerdomain.PaymentCheck, driver.payments[1].method)
	assert.Equal(t, printerdomain.PaymentCustom, driver.payments[2].method)
	assert.Equal(t, 3, driver.payments[2].custom)
	assert.Equal(t, coupondomain.StatePaymentsOpen, session.State())
}

func TestAddPayment_UnknownKindFallsBackToMoney(t *testing.T) {
	driver := newFakeDriver()
	notifier := &fakeNotifier{answer: true}
	session := newTestSession(driver, notifier, nil)
	ctx := context.Background()
	openTotalized(t, session)

	require.NoError(t, session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindStoreCredit, Value: decimal.RequireFromString("10.00"),
	}))

	require.Len(t, notifier.questions, 1)
	require.Len(t, driver.payments, 1)
	assert.Equal(t, printerdomain.PaymentMoney, driver.payments[0].method)
}

func TestAddPayment_UnknownKindDeclinedCancelsCoupon(t *testing.T) {
	driver := newFakeDriver()
	notifier := &fakeNotifier{answer: false}
	session := newTestSession(driver, notifier, nil)
	ctx := context.Background()
	openTotalized(t, session)

	err := session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindStoreCredit, Value: decimal.RequireFromString("10.00"),
	})
	assert.ErrorIs(t, err, coupondomain.ErrPaymentDeclined)
	assert.Contains(t, driver.calls, "cancel")
	assert.Equal(t, coupondomain.StateIdle, session.State())
}

func TestAddPayment_DriverFaultIsFatal(t *testing.T) {
	driver := newFakeDriver()
	driver.payErr = printerdomain.ErrPrinterOffline
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()
	openTotalized(t, session)

	err := session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindMoney, Value: decimal.NewFromInt(10),
	})
	var fatal *coupondomain.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, coupondomain.StateFailed, session.State())
}

func TestClose_RequiresPayment(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	openTotalized(t, session)

	_, err := session.Close(context.Background())
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)
	assert.NotContains(t, driver.calls, "close")
}

func TestClose_FaultLeavesSaleUntouched(t *testing.T) {
	driver := newFakeDriver()
	driver.closeErr = printerdomain.ErrPrinterOffline
	store := newFakeStore()
	session := newTestSession(driver, &fakeNotifier{}, store)
	ctx := context.Background()
	openTotalized(t, session)
	require.NoError(t, session.AddPayment(ctx, saledomain.Payment{
		Kind: saledomain.PaymentKindMoney, Value: decimal.NewFromInt(10),
	}))

	_, err := session.Close(ctx)
	var fatal *coupondomain.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, coupondomain.StepClose, fatal.Step)
	assert.Empty(t, store.couponIDs)
	assert.Empty(t, store.cancelled)
}

func TestCancel_IdleIsNoOp(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)

	require.NoError(t, session.Cancel(context.Background()))
	assert.Empty(t, driver.calls)
}

func TestCancel_VoidsOpenCoupon(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	require.NoError(t, session.Cancel(ctx))
	assert.Equal(t, coupondomain.StateIdle, session.State())
	assert.Contains(t, driver.calls, "cancel")
}

func TestCancelLast(t *testing.T) {
	driver := newFakeDriver()
	store := newFakeStore()
	session := newTestSession(driver, &fakeNotifier{}, store)
	ctx := context.Background()

	err := session.CancelLast(ctx)
	assert.ErrorIs(t, err, coupondomain.ErrNoLastCoupon)

	_, err = session.PrintSale(ctx, couponSale())
	require.NoError(t, err)

	require.NoError(t, session.CancelLast(ctx))
	assert.Equal(t, []snowflake.ID{snowflake.ID(555)}, store.cancelled)
	// The stored coupon id survives cancellation for audit.
	assert.Equal(t, int64(7001), store.couponIDs[snowflake.ID(555)])

	err = session.CancelLast(ctx)
	assert.ErrorIs(t, err, coupondomain.ErrNoLastCoupon)
}

func TestRecover_ClearsCouponLeftByCrash(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)

	require.NoError(t, session.Recover(context.Background()))
	assert.Equal(t, []string{"cancel"}, driver.calls)
	assert.Equal(t, coupondomain.StateIdle, session.State())
}

func TestRecover_OutOfPaperIsTransient(t *testing.T) {
	driver := newFakeDriver()
	driver.cancelErr = printerdomain.ErrOutOfPaper
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	err := session.Recover(ctx)
	var transient *coupondomain.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, coupondomain.StepCancel, transient.Step)
	assert.Equal(t, coupondomain.StateIdle, session.State())

	// Operator reloads paper; the same call succeeds.
	driver.cancelErr = nil
	require.NoError(t, session.Recover(ctx))
	assert.Equal(t, []string{"cancel", "cancel"}, driver.calls)
}

func TestRecover_RefusedMidCoupon(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, session.Open(ctx, couponSale()))
	err := session.Recover(ctx)
	assert.ErrorIs(t, err, coupondomain.ErrInvalidTransition)
}

func TestUnitTranslation(t *testing.T) {
	driver := newFakeDriver()
	session := newTestSession(driver, &fakeNotifier{}, nil)
	ctx := context.Background()
	require.NoError(t, session.Open(ctx, couponSale()))

	base := couponSale().Items[0]

	for _, tc := range []struct {
		unit     string
		unitDesc string
		want     printerdomain.Unit
		wantDesc string
	}{
		{"", "", printerdomain.UnitEmpty, ""},
		{"kg", "", printerdomain.UnitKilos, ""},
		{"l", "", printerdomain.UnitLiters, ""},
		{"m", "", printerdomain.UnitMeters, ""},
		{"cx", "Caixa", printerdomain.UnitCustom, "Caixa"},
		{"pc", "", printerdomain.UnitCustom, "pc"},
	} {
		item := base
		item.Unit = tc.unit
		item.UnitDesc = tc.unitDesc
		_, err := session.AddItem(ctx, item)
		require.NoError(t, err, tc.unit)

		printed := driver.items[len(driver.items)-1]
		assert.Equal(t, tc.want, printed.unit, tc.unit)
		assert.Equal(t, tc.wantDesc, printed.unitDesc, tc.unit)
	}
}
