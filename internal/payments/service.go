package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyaltyhub-backend/internal/loyalty"
	"github.com/angelmondragon/loyaltyhub-backend/internal/transactions"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/pagination"
)

// Service runs purchases through a settlement rail and keeps the audit
// ledger in step. Points are never awarded before the charge settles.
type Service interface {
	Purchase(ctx context.Context, params PurchaseParams) (*PurchaseResult, error)
	CompleteTransaction(ctx context.Context, transactionID uuid.UUID) (*loyalty.EarnPointsResult, error)
	FailTransaction(ctx context.Context, transactionID uuid.UUID) error
	History(ctx context.Context, params HistoryParams) (*HistoryResult, error)
}

// ServiceParams wires the payments dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	Transactions transactions.Repository
	Loyalty      loyalty.Service
	Processors   Registry
}

type service struct {
	logg         *logger.Logger
	transactions transactions.Repository
	loyalty      loyalty.Service
	processors   Registry
}

// NewService builds the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	}
	if params.Loyalty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "loyalty service required")
	}
	if len(params.Processors) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment processors required")
	}
	return &service{
		logg:         params.Logger,
		transactions: params.Transactions,
		loyalty:      params.Loyalty,
		processors:   params.Processors,
	}, nil
}

// PurchaseParams describes one checkout.
type PurchaseParams struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Method      enums.PaymentMethod
	SourceID    string
	Description string
}

// PurchaseResult reports the charge outcome; Points is set only when
// the rail settled synchronously.
type PurchaseResult struct {
	Transaction  models.Transaction        `json:"transaction"`
	ProcessorRef string                    `json:"processorRef,omitempty"`
	Points       *loyalty.EarnPointsResult `json:"points,omitempty"`
}

// Purchase charges the amount through the method's processor and
// records a purchase transaction. Synchronous rails settle and award
// points immediately; manual rails leave the transaction pending until
// CompleteTransaction confirms the funds.
func (s *service) Purchase(ctx context.Context, params PurchaseParams) (*PurchaseResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !params.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	processor, err := s.processors.For(params.Method)
	if err != nil {
		return nil, err
	}

	// The transaction ID doubles as the processor reference so the
	// settlement confirmation can find its way back.
	transactionID := uuid.New()
	charge, err := processor.Charge(ctx, ChargeParams{
		Amount:      params.Amount,
		SourceID:    params.SourceID,
		ReferenceID: transactionID.String(),
		Note:        params.Description,
	})
	if err != nil {
		return nil, err
	}

	method := params.Method
	purchase := models.Transaction{
		ID:            transactionID,
		UserID:        params.UserID,
		Type:          enums.TransactionTypePurchase,
		Status:        enums.TransactionStatusPending,
		Amount:        params.Amount,
		PaymentMethod: &method,
	}
	if charge.Reference != "" {
		ref := charge.Reference
		purchase.ProcessorRef = &ref
	}
	if params.Description != "" {
		description := params.Description
		purchase.Description = &description
	}
	if err := s.transactions.Create(ctx, &purchase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record purchase")
	}

	result := &PurchaseResult{Transaction: purchase, ProcessorRef: charge.Reference}
	if charge.Settled {
		points, err := s.loyalty.EarnPoints(ctx, loyalty.EarnPointsParams{
			UserID:               params.UserID,
			Amount:               params.Amount,
			RelatedTransactionID: &transactionID,
		})
		if err != nil {
			return nil, err
		}
		result.Transaction.Status = enums.TransactionStatusCompleted
		result.Transaction.PointsEarned = points.PointsEarned
		result.Points = points
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":        params.UserID.String(),
		"transaction_id": transactionID.String(),
		"method":         params.Method.String(),
		"settled":        charge.Settled,
	}), "payments.purchase")
	return result, nil
}

// CompleteTransaction confirms an externally settled purchase and
// awards its points. Safe against replays: a transaction that already
// left pending is rejected with a state conflict.
func (s *service) CompleteTransaction(ctx context.Context, transactionID uuid.UUID) (*loyalty.EarnPointsResult, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	transaction, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if transaction.Type != enums.TransactionTypePurchase {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only purchases can be completed")
	}

	points, err := s.loyalty.EarnPoints(ctx, loyalty.EarnPointsParams{
		UserID:               transaction.UserID,
		Amount:               transaction.Amount,
		RelatedTransactionID: &transactionID,
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": transactionID.String(),
		"points_earned":  points.PointsEarned,
	}), "payments.completed")
	return points, nil
}

// FailTransaction marks a pending purchase failed without touching the
// points balance.
func (s *service) FailTransaction(ctx context.Context, transactionID uuid.UUID) error {
	if transactionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	failed, err := s.transactions.MarkFailed(ctx, transactionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction failed")
	}
	if !failed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not pending")
	}
	s.logg.Warn(s.logg.WithField(ctx, "transaction_id", transactionID.String()), "payments.failed")
	return nil
}

// HistoryParams configures one ledger page.
type HistoryParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// HistoryResult is a page of the user's ledger, newest first.
type HistoryResult struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"nextCursor,omitempty"`
}

// History lists the user's transactions newest first with cursor
// pagination.
func (s *service) History(ctx context.Context, params HistoryParams) (*HistoryResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.transactions.ListByUser(ctx, transactions.ListParams{
		UserID: params.UserID,
		Limit:  params.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	result := &HistoryResult{Transactions: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
