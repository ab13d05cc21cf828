package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) CreateInvoice(_ context.Context, inv fee.Invoice) (fee.Invoice, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkFault("creating invoice"); err != nil {
		return fee.Invoice{}, err
	}
	inv.ID = newID()
	repo.db.invoices[inv.ID] = inv
	return inv, nil
}

func (repo *feeRepository) GetInvoice(_ context.Context, id string) (fee.Invoice, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if inv, ok := repo.db.invoices[id]; ok {
		return inv, nil
	}
	return fee.Invoice{}, fee.ErrNotFound
}

func hasStatus(inv fee.Invoice, statuses []fee.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if inv.Status == s {
			return true
		}
	}
	return false
}

func (repo *feeRepository) sortByDueDate(invoices []fee.Invoice, ordering []core.DBOrdering) {
	sortRows(
		len(invoices),
		func(i, j int) { invoices[i], invoices[j] = invoices[j], invoices[i] },
		func(i, j int, field string) int {
			a, b := invoices[i], invoices[j]
			switch field {
			case "amount_due":
				return cmpDecimal(a.AmountDue, b.AmountDue)
			case "status":
				return cmpString(string(a.Status), string(b.Status))
			case "title":
				return cmpString(a.Title, b.Title)
			case "created_at":
				return cmpTime(a.CreatedAt, b.CreatedAt)
			default:
				return cmpTime(a.DueDate.Time, b.DueDate.Time)
			}
		},
		ordering,
		[]core.DBOrdering{{Field: "due_date", Ascending: true}},
	)
}

func (repo *feeRepository) QueryStudentInvoices(_ context.Context, studentID string, filter fee.Filter, ordering ...core.DBOrdering) ([]fee.Invoice, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	invoices := make([]fee.Invoice, 0)
	for _, inv := range repo.db.invoices {
		if inv.StudentID == studentID && hasStatus(inv, filter.Statuses) {
			invoices = append(invoices, inv)
		}
	}
	repo.sortByDueDate(invoices, ordering)
	return invoices, nil
}

func (repo *feeRepository) QueryOutstandingInvoices(_ context.Context, studentIDs ...string) ([]fee.Invoice, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	invoices := make([]fee.Invoice, 0)
	for _, inv := range repo.db.invoices {
		if wanted[inv.StudentID] && inv.Status.Outstanding() {
			invoices = append(invoices, inv)
		}
	}
	repo.sortByDueDate(invoices, nil)
	return invoices, nil
}

func (repo *feeRepository) ApplyPayment(_ context.Context, p fee.Payment) (fee.Invoice, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inv, ok := repo.db.invoices[p.InvoiceID]
	if !ok || !inv.Status.Outstanding() || p.Amount.GreaterThan(inv.Balance()) {
		return fee.Invoice{}, false, nil
	}
	if err := repo.db.checkFault("applying payment"); err != nil {
		return fee.Invoice{}, false, err
	}
	inv.AmountPaid = inv.AmountPaid.Add(p.Amount)
	inv.Status = fee.StatusPartial
	if inv.AmountPaid.GreaterThanOrEqual(inv.AmountDue) {
		inv.Status = fee.StatusPaid
	}
	inv.UpdatedAt = p.UpdatedAt
	repo.db.invoices[inv.ID] = inv
	return inv, true, nil
}

func (repo *feeRepository) CancelInvoice(_ context.Context, id string, updatedAt time.Time) (fee.Invoice, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inv, ok := repo.db.invoices[id]
	if !ok || inv.Status != fee.StatusPending {
		return fee.Invoice{}, false, nil
	}
	if err := repo.db.checkFault("cancelling invoice"); err != nil {
		return fee.Invoice{}, false, err
	}
	inv.Status = fee.StatusCancelled
	inv.UpdatedAt = updatedAt
	repo.db.invoices[id] = inv
	return inv, true, nil
}
