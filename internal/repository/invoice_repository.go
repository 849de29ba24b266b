package repository

import (
	"context"
	"time"

	"ispagents/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository struct {
	db *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(inv *entities.Invoice) error {
	return r.db.QueryRow(context.Background(), `
		INSERT INTO invoices (user_id, plan, amount_cents, currency, method, status, pix_payload, boleto_line, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, inv.UserID, inv.Plan, inv.AmountCents, inv.Currency, inv.Method, inv.Status,
		inv.PixPayload, inv.BoletoLine, inv.DueDate).Scan(&inv.ID, &inv.CreatedAt)
}

func (r *InvoiceRepository) GetByID(id int) (*entities.Invoice, error) {
	var inv entities.Invoice
	err := r.db.QueryRow(context.Background(), `
		SELECT id, user_id, plan, amount_cents, currency, method, status, pix_payload, boleto_line, due_date, paid_at, created_at
		FROM invoices WHERE id = $1
	`, id).Scan(&inv.ID, &inv.UserID, &inv.Plan, &inv.AmountCents, &inv.Currency, &inv.Method,
		&inv.Status, &inv.PixPayload, &inv.BoletoLine, &inv.DueDate, &inv.PaidAt, &inv.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByUser(userID int) ([]entities.Invoice, error) {
	rows, err := r.db.Query(context.Background(), `
		SELECT id, user_id, plan, amount_cents, currency, method, status, pix_payload, boleto_line, due_date, paid_at, created_at
		FROM invoices WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []entities.Invoice{}
	for rows.Next() {
		var inv entities.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Plan, &inv.AmountCents, &inv.Currency,
			&inv.Method, &inv.Status, &inv.PixPayload, &inv.BoletoLine,
			&inv.DueDate, &inv.PaidAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) MarkPaid(id int, at time.Time) error {
	_, err := r.db.Exec(context.Background(), `
		UPDATE invoices SET status = 'paid', paid_at = $1 WHERE id = $2
	`, at, id)
	return err
}
