package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/strategy"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns the customer and supplier debt ledgers.
//
// Payments are allocated oldest debt first inside a single transaction that
// holds the party row lock. The cached customer balance is re-derived from the
// ledger in that same transaction.
type LedgerService struct {
	txScope        appshared.TransactionScope
	allocator      strategy.PaymentAllocationStrategy
	locker         appshared.PartyLocker
	lockTTL        time.Duration
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	recorder       appshared.BusinessRecorder
	clock          appshared.Clock
	logger         *zap.Logger
}

// LedgerOption configures LedgerService
type LedgerOption func(*LedgerService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) LedgerOption {
	return func(s *LedgerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPartyLocker adds a cross-instance lock around payments
func WithPartyLocker(locker appshared.PartyLocker, ttl time.Duration) LedgerOption {
	return func(s *LedgerService) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithIdempotency enables Idempotency-Key handling for payments
func WithIdempotency(store shared.IdempotencyStore, ttl time.Duration) LedgerOption {
	return func(s *LedgerService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithRecorder sets the business metrics recorder
func WithRecorder(recorder appshared.BusinessRecorder) LedgerOption {
	return func(s *LedgerService) {
		s.recorder = recorder
	}
}

// WithClock overrides the payment timestamp source
func WithClock(clock appshared.Clock) LedgerOption {
	return func(s *LedgerService) {
		s.clock = clock
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope appshared.TransactionScope,
	allocator strategy.PaymentAllocationStrategy,
	opts ...LedgerOption,
) *LedgerService {
	s := &LedgerService{
		txScope:        txScope,
		allocator:      allocator,
		locker:         appshared.NoopLocker{},
		lockTTL:        5 * time.Second,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		recorder:       appshared.NoopRecorder{},
		clock:          appshared.SystemClock,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Parties =====================

// ContactInput carries the contact details of a new customer or supplier
type ContactInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (in ContactInput) contact() partner.Contact {
	return partner.Contact{Name: in.Name, Phone: in.Phone, Email: in.Email, Address: in.Address}
}

// CreateCustomer registers a customer with an empty ledger
func (s *LedgerService) CreateCustomer(ctx context.Context, shopID uuid.UUID, in ContactInput) (*partner.Customer, error) {
	customer, err := partner.NewCustomer(shopID, in.contact())
	if err != nil {
		return nil, err
	}
	if err := s.txScope.Repositories().Customers().Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	s.logger.Info("customer created",
		zap.String("shop_id", shopID.String()),
		zap.String("customer_id", customer.ID.String()),
	)
	return customer, nil
}

// GetCustomer returns a customer of the shop
func (s *LedgerService) GetCustomer(ctx context.Context, shopID, customerID uuid.UUID) (*partner.Customer, error) {
	return s.txScope.Repositories().Customers().FindByIDForShop(ctx, shopID, customerID)
}

// CreateSupplier registers a supplier
func (s *LedgerService) CreateSupplier(ctx context.Context, shopID uuid.UUID, in ContactInput) (*partner.Supplier, error) {
	supplier, err := partner.NewSupplier(shopID, in.contact())
	if err != nil {
		return nil, err
	}
	if err := s.txScope.Repositories().Suppliers().Save(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}
	s.logger.Info("supplier created",
		zap.String("shop_id", shopID.String()),
		zap.String("supplier_id", supplier.ID.String()),
	)
	return supplier, nil
}

// ===================== Debts =====================

// RecordSupplierDebtInput describes stock bought on credit
type RecordSupplierDebtInput struct {
	ShopID      uuid.UUID
	SupplierID  uuid.UUID
	Amount      decimal.Decimal
	Paid        decimal.Decimal
	DueDate     *time.Time
	ProductID   *uuid.UUID
	Description string
}

// RecordSupplierDebt opens a debt the shop owes a supplier
func (s *LedgerService) RecordSupplierDebt(ctx context.Context, in RecordSupplierDebtInput) (*finance.DebtToPay, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_supplier_debt")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, in.ShopID,
		telemetry.SpanAttrSupplierID, in.SupplierID,
		telemetry.SpanAttrAmount, in.Amount,
	)

	debt, err := finance.NewDebtToPay(in.ShopID, in.SupplierID, in.Amount, in.Paid)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	debt.ProductID = in.ProductID
	debt.Description = in.Description
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		debt.DueDate = &due
	}

	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.Suppliers().FindByIDForUpdate(ctx, in.ShopID, in.SupplierID); err != nil {
			return err
		}
		if in.ProductID != nil {
			if _, err := repos.Products().FindByIDForShop(ctx, in.ShopID, *in.ProductID); err != nil {
				return err
			}
		}
		return repos.SupplierDebts().Save(ctx, debt)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("supplier debt recorded",
		zap.String("shop_id", in.ShopID.String()),
		zap.String("supplier_id", in.SupplierID.String()),
		zap.String("debt_id", debt.ID.String()),
		zap.String("amount", in.Amount.String()),
	)
	telemetry.SetOK(span)
	return debt, nil
}

// ListCustomerDebts lists a customer's debts, oldest first
func (s *LedgerService) ListCustomerDebts(ctx context.Context, shopID, customerID uuid.UUID, filter finance.DebtFilter) ([]finance.DebtToBePaid, error) {
	repos := s.txScope.Repositories()
	if _, err := repos.Customers().FindByIDForShop(ctx, shopID, customerID); err != nil {
		return nil, err
	}
	return repos.CustomerDebts().FindByCustomer(ctx, shopID, customerID, filter)
}

// ListSupplierDebts lists a supplier's debts, oldest first
func (s *LedgerService) ListSupplierDebts(ctx context.Context, shopID, supplierID uuid.UUID, filter finance.DebtFilter) ([]finance.DebtToPay, error) {
	repos := s.txScope.Repositories()
	if _, err := repos.Suppliers().FindByIDForShop(ctx, shopID, supplierID); err != nil {
		return nil, err
	}
	return repos.SupplierDebts().FindBySupplier(ctx, shopID, supplierID, filter)
}

// RecalculateCustomerBalance re-derives the cached customer balance from the ledger
func (s *LedgerService) RecalculateCustomerBalance(ctx context.Context, shopID, customerID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		customer, err := repos.Customers().FindByIDForUpdate(ctx, shopID, customerID)
		if err != nil {
			return err
		}
		balance, err = appshared.RefreshCustomerBalance(ctx, repos, customer)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetSupplierBalance returns what the shop still owes a supplier
func (s *LedgerService) GetSupplierBalance(ctx context.Context, shopID, supplierID uuid.UUID) (decimal.Decimal, error) {
	repos := s.txScope.Repositories()
	if _, err := repos.Suppliers().FindByIDForShop(ctx, shopID, supplierID); err != nil {
		return decimal.Zero, err
	}
	return repos.SupplierDebts().SumOutstanding(ctx, shopID, supplierID)
}

// ===================== Payments =====================

// PaymentOptions carries optional payment metadata
type PaymentOptions struct {
	// IdempotencyKey makes retries of the same request apply at most once
	IdempotencyKey string
}

// AllocationLine is the part of a payment applied to one debt
type AllocationLine struct {
	DebtID          uuid.UUID          `json:"debt_id"`
	Amount          decimal.Decimal    `json:"amount"`
	RemainingBefore decimal.Decimal    `json:"remaining_before"`
	RemainingAfter  decimal.Decimal    `json:"remaining_after"`
	Status          finance.DebtStatus `json:"status"`
}

// PaymentResult reports how a payment was allocated
type PaymentResult struct {
	PartyID              uuid.UUID        `json:"party_id"`
	Applied              decimal.Decimal  `json:"applied"`
	RemainingUnallocated decimal.Decimal  `json:"remaining_unallocated"`
	NewBalance           decimal.Decimal  `json:"new_balance"`
	Allocations          []AllocationLine `json:"allocations"`
}

// ApplyCustomerPayment allocates amount across the customer's open debts, oldest first.
// Any amount left after every debt is settled is returned, never stored.
func (s *LedgerService) ApplyCustomerPayment(ctx context.Context, shopID, customerID uuid.UUID, amount decimal.Decimal, opts PaymentOptions) (*PaymentResult, error) {
	return s.applyPayment(ctx, shopID, appshared.PartyCustomer, customerID, amount, opts,
		func(ctx context.Context, repos appshared.TransactionalRepositories, now time.Time) (*PaymentResult, error) {
			customer, err := repos.Customers().FindByIDForUpdate(ctx, shopID, customerID)
			if err != nil {
				return nil, err
			}
			debts, err := repos.CustomerDebts().FindOpenByCustomer(ctx, shopID, customerID)
			if err != nil {
				return nil, fmt.Errorf("failed to load open customer debts: %w", err)
			}

			open := make([]strategy.OpenDebt, len(debts))
			byID := make(map[uuid.UUID]*finance.DebtToBePaid, len(debts))
			for i := range debts {
				open[i] = strategy.OpenDebt{ID: debts[i].ID, CreatedAt: debts[i].CreatedAt, Remaining: debts[i].RemainingAmount}
				byID[debts[i].ID] = &debts[i]
			}

			result, err := s.allocate(ctx, shopID, customerID, amount, now, open)
			if err != nil {
				return nil, err
			}
			for i, a := range result.Allocations {
				debt := byID[a.DebtID]
				if err := debt.ApplyPayment(a.AllocatedAmount, now); err != nil {
					return nil, err
				}
				if err := repos.CustomerDebts().Save(ctx, debt); err != nil {
					return nil, fmt.Errorf("failed to save customer debt: %w", err)
				}
				result.lines[i].Status = debt.Status
			}

			balance, err := appshared.RefreshCustomerBalance(ctx, repos, customer)
			if err != nil {
				return nil, err
			}
			return result.toPaymentResult(customerID, balance), nil
		})
}

// ApplySupplierPayment allocates a payment to a supplier across the shop's open debts, oldest first
func (s *LedgerService) ApplySupplierPayment(ctx context.Context, shopID, supplierID uuid.UUID, amount decimal.Decimal, opts PaymentOptions) (*PaymentResult, error) {
	return s.applyPayment(ctx, shopID, appshared.PartySupplier, supplierID, amount, opts,
		func(ctx context.Context, repos appshared.TransactionalRepositories, now time.Time) (*PaymentResult, error) {
			if _, err := repos.Suppliers().FindByIDForUpdate(ctx, shopID, supplierID); err != nil {
				return nil, err
			}
			debts, err := repos.SupplierDebts().FindOpenBySupplier(ctx, shopID, supplierID)
			if err != nil {
				return nil, fmt.Errorf("failed to load open supplier debts: %w", err)
			}

			open := make([]strategy.OpenDebt, len(debts))
			byID := make(map[uuid.UUID]*finance.DebtToPay, len(debts))
			for i := range debts {
				open[i] = strategy.OpenDebt{ID: debts[i].ID, CreatedAt: debts[i].CreatedAt, Remaining: debts[i].RemainingAmount}
				byID[debts[i].ID] = &debts[i]
			}

			result, err := s.allocate(ctx, shopID, supplierID, amount, now, open)
			if err != nil {
				return nil, err
			}
			for i, a := range result.Allocations {
				debt := byID[a.DebtID]
				if err := debt.ApplyPayment(a.AllocatedAmount, now); err != nil {
					return nil, err
				}
				if err := repos.SupplierDebts().Save(ctx, debt); err != nil {
					return nil, fmt.Errorf("failed to save supplier debt: %w", err)
				}
				result.lines[i].Status = debt.Status
			}

			balance, err := repos.SupplierDebts().SumOutstanding(ctx, shopID, supplierID)
			if err != nil {
				return nil, fmt.Errorf("failed to sum supplier debts: %w", err)
			}
			return result.toPaymentResult(supplierID, balance), nil
		})
}

type paymentFunc func(ctx context.Context, repos appshared.TransactionalRepositories, now time.Time) (*PaymentResult, error)

// applyPayment wraps a ledger payment with validation, idempotency, the party lock and telemetry
func (s *LedgerService) applyPayment(
	ctx context.Context,
	shopID uuid.UUID,
	party string,
	partyID uuid.UUID,
	amount decimal.Decimal,
	opts PaymentOptions,
	apply paymentFunc,
) (result *PaymentResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "apply_"+party+"_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, shopID,
		"party", party,
		"party_id", partyID,
		telemetry.SpanAttrAmount, amount,
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount.WithMessage("Payment amount must be positive")
	}
	if err := shared.CheckMoney("Payment amount", amount); err != nil {
		return nil, err
	}

	if opts.IdempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("%s:%s:%s:%s", shopID, party, partyID, opts.IdempotencyKey)
		claimed, claimErr := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
		if claimErr != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			return nil, shared.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if ferr := s.idempotency.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(ferr))
			}
		}()
	}

	release, lockErr := s.locker.Lock(ctx, fmt.Sprintf("%s:%s:%s", shopID, party, partyID), s.lockTTL)
	if lockErr != nil {
		s.logger.Warn("party lock failed, continuing on row lock",
			zap.String("party", party),
			zap.String("party_id", partyID.String()),
			zap.Error(lockErr),
		)
	} else {
		defer release()
	}

	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var txErr error
		result, txErr = apply(ctx, repos, s.clock())
		return txErr
	})
	if err != nil {
		if errors.Is(err, shared.ErrConsistencyViolation) {
			s.logger.Error("ledger consistency violation",
				zap.String("shop_id", shopID.String()),
				zap.String("party", party),
				zap.String("party_id", partyID.String()),
				zap.String("amount", amount.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.recorder.RecordPayment(ctx, shopID, party, result.Applied, result.RemainingUnallocated)
	telemetry.AddEvent(span, "payment_allocated",
		"applied", result.Applied,
		"remaining_unallocated", result.RemainingUnallocated,
		"new_balance", result.NewBalance,
		"debts", len(result.Allocations),
	)
	telemetry.SetOK(span)

	s.logger.Info("payment applied",
		zap.String("shop_id", shopID.String()),
		zap.String("party", party),
		zap.String("party_id", partyID.String()),
		zap.String("applied", result.Applied.String()),
		zap.String("remaining_unallocated", result.RemainingUnallocated.String()),
		zap.String("new_balance", result.NewBalance.String()),
		zap.String("strategy", s.allocator.Name()),
	)
	return result, nil
}

type allocationPlan struct {
	strategy.AllocationResult
	lines []AllocationLine
}

func (s *LedgerService) allocate(
	ctx context.Context,
	shopID, partyID uuid.UUID,
	amount decimal.Decimal,
	now time.Time,
	open []strategy.OpenDebt,
) (*allocationPlan, error) {
	res, err := s.allocator.Allocate(ctx, strategy.AllocationContext{
		ShopID:        shopID,
		PartyID:       partyID,
		PaymentAmount: amount,
		PaymentDate:   now,
	}, open)
	if err != nil {
		return nil, fmt.Errorf("payment allocation failed: %w", err)
	}
	if !res.TotalAllocated.Add(res.Remaining).Equal(amount) {
		return nil, shared.ErrConsistencyViolation.WithMessage(fmt.Sprintf(
			"allocated %s + unallocated %s does not equal payment %s",
			res.TotalAllocated.String(), res.Remaining.String(), amount.String()))
	}

	lines := make([]AllocationLine, len(res.Allocations))
	for i, a := range res.Allocations {
		lines[i] = AllocationLine{
			DebtID:          a.DebtID,
			Amount:          a.AllocatedAmount,
			RemainingBefore: a.RemainingBefore,
			RemainingAfter:  a.RemainingAfter,
		}
	}
	return &allocationPlan{AllocationResult: res, lines: lines}, nil
}

func (a *allocationPlan) toPaymentResult(partyID uuid.UUID, balance decimal.Decimal) *PaymentResult {
	return &PaymentResult{
		PartyID:              partyID,
		Applied:              a.TotalAllocated,
		RemainingUnallocated: a.Remaining,
		NewBalance:           balance,
		Allocations:          a.lines,
	}
}
