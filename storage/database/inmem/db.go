// Package inmemdb implements the core repositories in memory, for tests & local runs.
package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/fee"
	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

// DB holds every table behind a single lock, so multi-table writes are atomic.
type DB struct {
	mu sync.RWMutex

	users      map[string]user.User
	classes    map[string]school.Class
	students   map[string]school.Student
	attendance map[string]attendance.Record
	fines      map[string]fine.Fine
	invoices   map[string]fee.Invoice

	fault error // returned, once, by the next write
}

func NewDB() *DB {
	db := new(DB)
	db.reset()
	return db
}

func (db *DB) reset() {
	db.users = make(map[string]user.User)
	db.classes = make(map[string]school.Class)
	db.students = make(map[string]school.Student)
	db.attendance = make(map[string]attendance.Record)
	db.fines = make(map[string]fine.Fine)
	db.invoices = make(map[string]fee.Invoice)
	db.fault = nil
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

// FailNextWrite makes the next write fail with err, leaving all tables untouched.
func (db *DB) FailNextWrite(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fault = err
}

// checkFault must be called with the write lock held.
func (db *DB) checkFault(op string) error {
	if db.fault == nil {
		return nil
	}
	err := db.fault
	db.fault = nil
	return core.NewStorageError(op, err)
}

func newID() string {
	return uuid.New().String()
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func excluded(id string, excludedIDs []string) bool {
	for _, ex := range excludedIDs {
		if ex == id {
			return true
		}
	}
	return false
}

// compareFunc compares 2 rows on a field: <0, 0 or >0.
type compareFunc func(i, j int, field string) int

// sortRows sorts n rows on ordering, falling back to dflt.
func sortRows(n int, swap func(i, j int), cmp compareFunc, ordering []core.DBOrdering, dflt []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = dflt
	}
	sort.Sort(rowSorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}})
}

type rowSorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (s rowSorter) Len() int           { return s.n }
func (s rowSorter) Swap(i, j int)      { s.swap(i, j) }
func (s rowSorter) Less(i, j int) bool { return s.less(i, j) }

func cmpString(a, b string) int { return strings.Compare(a, b) }

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func cmpDecimal(a, b decimal.Decimal) int { return a.Cmp(b) }
