package entities

import "time"

// Invoice statuses.
const (
	InvoicePending  = "pending"
	InvoicePaid     = "paid"
	InvoiceCanceled = "canceled"
)

// Payment methods.
const (
	MethodPix    = "pix"
	MethodBoleto = "boleto"
	MethodCard   = "card"
)

// Invoice is a local billing record. Card charges are handled by the
// external payment processor; PIX payloads and boleto lines are
// generated here.
type Invoice struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	Plan        string     `json:"plan"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PixPayload  string     `json:"pix_payload,omitempty"`
	BoletoLine  string     `json:"boleto_line,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MonthlyPriceCents returns the subscription price for a plan in BRL cents.
func MonthlyPriceCents(plan string) int64 {
	switch plan {
	case PlanBasic:
		return 9900
	case PlanPremium:
		return 24900
	case PlanEnterprise:
		return 79900
	default:
		return 0
	}
}
