package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/square"
)

// ChargeParams is the uniform input every processor accepts.
type ChargeParams struct {
	Amount      decimal.Decimal
	SourceID    string
	ReferenceID string
	Note        string
}

// ChargeResult reports the processor-side outcome. Settled means the
// funds cleared synchronously; unsettled charges wait for an external
// confirmation before points are awarded.
type ChargeResult struct {
	Reference string
	Settled   bool
}

// Processor charges a purchase through one settlement rail.
type Processor interface {
	Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error)
}

// cardProcessor settles through Square synchronously.
type cardProcessor struct {
	client *square.Client
}

// NewCardProcessor wraps the shared Square client.
func NewCardProcessor(client *square.Client) (Processor, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square client required")
	}
	return &cardProcessor{client: client}, nil
}

func (p *cardProcessor) Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error) {
	if strings.TrimSpace(params.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card source id required")
	}
	payment, err := p.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: params.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:    "USD",
		SourceID:    params.SourceID,
		ReferenceID: params.ReferenceID,
		Note:        params.Note,
	})
	if err != nil {
		return nil, err
	}
	reference := ""
	settled := false
	if payment != nil {
		if id := payment.GetID(); id != nil {
			reference = *id
		}
		if status := payment.GetStatus(); status != nil {
			settled = *status == "COMPLETED"
		}
	}
	return &ChargeResult{Reference: reference, Settled: settled}, nil
}

// manualProcessor records a pending charge for rails settled outside
// the system (chime, cashapp, venmo, zelle, crypto). The returned
// reference is quoted back by the settlement confirmation.
type manualProcessor struct {
	method enums.PaymentMethod
}

// NewManualProcessor returns a pending-charge recorder for the method.
func NewManualProcessor(method enums.PaymentMethod) Processor {
	return &manualProcessor{method: method}
}

func (p *manualProcessor) Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error) {
	return &ChargeResult{
		Reference: fmt.Sprintf("%s-%s", p.method, uuid.NewString()),
		Settled:   false,
	}, nil
}

// Registry resolves the processor for a payment method.
type Registry map[enums.PaymentMethod]Processor

// NewRegistry wires the default processor set. The card and square
// methods share the Square processor; everything else settles manually.
func NewRegistry(card Processor) Registry {
	registry := Registry{}
	if card != nil {
		registry[enums.PaymentMethodCard] = card
		registry[enums.PaymentMethodSquare] = card
	}
	for _, method := range []enums.PaymentMethod{
		enums.PaymentMethodChime,
		enums.PaymentMethodCashApp,
		enums.PaymentMethodVenmo,
		enums.PaymentMethodZelle,
		enums.PaymentMethodCrypto,
	} {
		registry[method] = NewManualProcessor(method)
	}
	return registry
}

// For returns the processor handling the method.
func (r Registry) For(method enums.PaymentMethod) (Processor, error) {
	processor, ok := r[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"method": method.String()})
	}
	return processor, nil
}
