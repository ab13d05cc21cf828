package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fee"
)

const invoiceColumns = "id, student_id, title, amount_due, amount_paid, due_date, status, created_at, updated_at"

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *sqlx.DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) CreateInvoice(ctx context.Context, inv fee.Invoice) (fee.Invoice, error) {
	inv.ID = newID()
	q := `INSERT INTO fee_invoices (` + invoiceColumns + `)
		VALUES (:id, :student_id, :title, :amount_due, :amount_paid, :due_date, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, inv); err != nil {
		return fee.Invoice{}, core.NewStorageError("creating invoice", err)
	}
	return inv, nil
}

func (repo *feeRepository) GetInvoice(ctx context.Context, id string) (fee.Invoice, error) {
	if !validID(id) {
		return fee.Invoice{}, fee.ErrNotFound
	}
	var inv fee.Invoice
	if err := repo.db.GetContext(ctx, &inv, "SELECT "+invoiceColumns+" FROM fee_invoices WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return fee.Invoice{}, fee.ErrNotFound
		}
		return fee.Invoice{}, core.NewStorageError("getting invoice", err)
	}
	return inv, nil
}

func (repo *feeRepository) QueryStudentInvoices(ctx context.Context, studentID string, filter fee.Filter, ordering ...core.DBOrdering) ([]fee.Invoice, error) {
	invoices := make([]fee.Invoice, 0)
	if !validID(studentID) {
		return invoices, nil
	}

	var w where
	w.add("student_id = ?", studentID)
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}
	q, args, err := w.build(repo.db, "SELECT "+invoiceColumns+" FROM fee_invoices", orderBy(ordering, "due_date ASC"))
	if err != nil {
		return nil, core.NewStorageError("querying invoices", err)
	}
	if err = repo.db.SelectContext(ctx, &invoices, q, args...); err != nil {
		return nil, core.NewStorageError("querying invoices", err)
	}
	return invoices, nil
}

func (repo *feeRepository) QueryOutstandingInvoices(ctx context.Context, studentIDs ...string) ([]fee.Invoice, error) {
	invoices := make([]fee.Invoice, 0)
	ids := validIDs(studentIDs)
	if len(ids) == 0 {
		return invoices, nil
	}

	var w where
	w.add("student_id IN (?)", ids)
	w.add("status IN (?)", []fee.Status{fee.StatusPending, fee.StatusPartial})
	q, args, err := w.build(repo.db, "SELECT "+invoiceColumns+" FROM fee_invoices", " ORDER BY due_date ASC")
	if err != nil {
		return nil, core.NewStorageError("querying outstanding invoices", err)
	}
	if err = repo.db.SelectContext(ctx, &invoices, q, args...); err != nil {
		return nil, core.NewStorageError("querying outstanding invoices", err)
	}
	return invoices, nil
}

func (repo *feeRepository) ApplyPayment(ctx context.Context, p fee.Payment) (fee.Invoice, bool, error) {
	if !validID(p.InvoiceID) {
		return fee.Invoice{}, false, nil
	}
	q := `UPDATE fee_invoices SET
			amount_paid = amount_paid + $2,
			status = CASE WHEN amount_paid + $2 >= amount_due THEN 'paid' ELSE 'partial' END,
			updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'partial') AND amount_paid + $2 <= amount_due
		RETURNING ` + invoiceColumns

	var inv fee.Invoice
	if err := repo.db.GetContext(ctx, &inv, q, p.InvoiceID, p.Amount, p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return fee.Invoice{}, false, nil
		}
		return fee.Invoice{}, false, core.NewStorageError("applying payment", err)
	}
	return inv, true, nil
}

func (repo *feeRepository) CancelInvoice(ctx context.Context, id string, updatedAt time.Time) (fee.Invoice, bool, error) {
	if !validID(id) {
		return fee.Invoice{}, false, nil
	}
	q := `UPDATE fee_invoices SET status = 'cancelled', updated_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + invoiceColumns

	var inv fee.Invoice
	if err := repo.db.GetContext(ctx, &inv, q, id, updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return fee.Invoice{}, false, nil
		}
		return fee.Invoice{}, false, core.NewStorageError("cancelling invoice", err)
	}
	return inv, true, nil
}
