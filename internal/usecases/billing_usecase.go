package usecases

import (
	"errors"
	"fmt"
	"time"

	"ispagents/internal/entities"
)

var (
	ErrInvoiceNotFound   = errors.New("billing: invoice not found")
	ErrInvoiceNotPending = errors.New("billing: invoice is not pending")
	ErrUnknownPayMethod  = errors.New("billing: unknown payment method")
	ErrNothingToInvoice  = errors.New("billing: plan has no subscription fee")
)

// InvoiceStore is the persistence surface for billing.
type InvoiceStore interface {
	Create(inv *entities.Invoice) error
	GetByID(id int) (*entities.Invoice, error)
	ListByUser(userID int) ([]entities.Invoice, error)
	MarkPaid(id int, at time.Time) error
}

// PlanUpdater applies a paid-for plan to the user's account.
type PlanUpdater interface {
	UpdatePlan(userID int, plan string) error
}

// PixConfig identifies the platform as PIX merchant.
type PixConfig struct {
	Key          string
	MerchantName string
	MerchantCity string
}

type BillingUsecase struct {
	invoices InvoiceStore
	users    PlanUpdater
	pix      PixConfig
}

func NewBillingUsecase(invoices InvoiceStore, users PlanUpdater, pix PixConfig) *BillingUsecase {
	return &BillingUsecase{invoices: invoices, users: users, pix: pix}
}

// CreateSubscriptionInvoice opens a pending invoice for the requested
// plan; the plan is recorded on the invoice and applied to the account
// once payment confirms. PIX invoices carry a ready-to-scan payload;
// boleto invoices carry a reference line. Card charges stay with the
// external processor and get a bare record only.
func (uc *BillingUsecase) CreateSubscriptionInvoice(userID int, plan, method string) (*entities.Invoice, error) {
	amount := entities.MonthlyPriceCents(plan)
	if amount == 0 {
		return nil, ErrNothingToInvoice
	}

	inv := &entities.Invoice{
		UserID:      userID,
		Plan:        plan,
		AmountCents: amount,
		Currency:    "BRL",
		Method:      method,
		Status:      entities.InvoicePending,
		DueDate:     time.Now().AddDate(0, 0, 7),
	}

	switch method {
	case entities.MethodPix:
		txid := fmt.Sprintf("ISPAG%d%s", userID, time.Now().Format("20060102"))
		inv.PixPayload = BuildPixPayload(uc.pix.Key, uc.pix.MerchantName, uc.pix.MerchantCity, txid, amount)
	case entities.MethodBoleto:
		inv.BoletoLine = boletoReference(userID, amount)
	case entities.MethodCard:
	default:
		return nil, ErrUnknownPayMethod
	}

	if err := uc.invoices.Create(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ConfirmPayment marks a pending invoice paid and moves the account to
// the invoiced plan. Called by the payment webhook after signature
// validation.
func (uc *BillingUsecase) ConfirmPayment(invoiceID int) (*entities.Invoice, error) {
	inv, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	if inv.Status != entities.InvoicePending {
		return nil, ErrInvoiceNotPending
	}

	now := time.Now()
	if err := uc.invoices.MarkPaid(inv.ID, now); err != nil {
		return nil, err
	}
	if inv.Plan != "" {
		if err := uc.users.UpdatePlan(inv.UserID, inv.Plan); err != nil {
			return nil, fmt.Errorf("apply plan %s: %w", inv.Plan, err)
		}
	}
	inv.Status = entities.InvoicePaid
	inv.PaidAt = &now
	return inv, nil
}

func (uc *BillingUsecase) ListInvoices(userID int) ([]entities.Invoice, error) {
	return uc.invoices.ListByUser(userID)
}

func (uc *BillingUsecase) GetInvoice(userID, invoiceID int) (*entities.Invoice, error) {
	inv, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.UserID != userID {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// boletoReference builds the human-readable reference line stored with
// boleto invoices. Bank registration happens outside the platform.
func boletoReference(userID int, amountCents int64) string {
	return fmt.Sprintf("23790.00000 %05d.000000 00000.%06d 1 %014d",
		userID, userID, amountCents)
}
