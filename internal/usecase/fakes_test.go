package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

const testUser = "user-1"

var testNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

type passRetrier struct{}

func (passRetrier) Retry(_ context.Context, op func() error) error { return op() }

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxManager struct {
	mu  sync.Mutex
	txs []*fakeTx
}

func (m *fakeTxManager) Begin(context.Context) (usecase.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &fakeTx{}
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *fakeTxManager) commits() int {
	n := 0
	for _, tx := range m.txs {
		if tx.committed {
			n++
		}
	}
	return n
}

type fakeLocker struct {
	mu    sync.Mutex
	locks []string
	// onLock runs after each lock is granted, standing in for a writer
	// that committed while this one waited.
	onLock func()
}

func (l *fakeLocker) LockPeriod(_ context.Context, _ usecase.Transaction, userID string, period domain.Period) error {
	l.mu.Lock()
	l.locks = append(l.locks, userID+":"+period.String())
	hook := l.onLock
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

type fakeTransactionRepository struct {
	mu        sync.RWMutex
	byID      map[string]domain.Transaction
	err       error
	createErr func(t *domain.Transaction) error
}

func newFakeTransactionRepository() *fakeTransactionRepository {
	return &fakeTransactionRepository{byID: make(map[string]domain.Transaction)}
}

func (r *fakeTransactionRepository) Create(_ context.Context, _ usecase.Transaction, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		if err := r.createErr(t); err != nil {
			return err
		}
	}
	r.byID[t.ID] = *t
	return nil
}

func (r *fakeTransactionRepository) Update(_ context.Context, _ usecase.Transaction, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	r.byID[t.ID] = *t
	return nil
}

func (r *fakeTransactionRepository) Delete(_ context.Context, _ usecase.Transaction, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeTransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *fakeTransactionRepository) ListByUserAndPeriod(_ context.Context, userID string, period domain.Period) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range r.byID {
		if t.UserID == userID && period.Contains(t.Date) {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTransactionRepository) SumByTypeAndPeriod(_ context.Context, userID string, typ domain.TransactionType, period domain.Period) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return decimal.Zero, r.err
	}
	sum := decimal.Zero
	for _, t := range r.byID {
		if t.UserID == userID && t.Type == typ && period.Contains(t.Date) {
			sum = sum.Add(t.Amount.Amount())
		}
	}
	return sum, nil
}

func (r *fakeTransactionRepository) SumByCategoryAndPeriod(_ context.Context, categoryID string, period domain.Period) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return decimal.Zero, r.err
	}
	sum := decimal.Zero
	for _, t := range r.byID {
		if t.InCategory(categoryID) && period.Contains(t.Date) {
			sum = sum.Add(t.Amount.Amount())
		}
	}
	return sum, nil
}

func (r *fakeTransactionRepository) CurrenciesByPeriod(_ context.Context, userID string, period domain.Period) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	seen := make(map[string]struct{})
	for _, t := range r.byID {
		if t.UserID == userID && period.Contains(t.Date) {
			seen[t.Amount.Currency()] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeTransactionRepository) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

type fakeCategoryRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Category
}

func newFakeCategoryRepository() *fakeCategoryRepository {
	return &fakeCategoryRepository{byID: make(map[string]domain.Category)}
}

func (r *fakeCategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepository) Update(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *fakeCategoryRepository) GetAllByUser(_ context.Context, userID string) ([]*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Category
	for _, c := range r.byID {
		if c.UserID == userID {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBudgetRepository struct {
	mu       sync.RWMutex
	byPeriod map[string]domain.MonthlyBudget
}

func newFakeBudgetRepository() *fakeBudgetRepository {
	return &fakeBudgetRepository{byPeriod: make(map[string]domain.MonthlyBudget)}
}

func budgetKey(userID string, p domain.Period) string { return userID + "|" + p.String() }

func (r *fakeBudgetRepository) GetByUserAndPeriod(_ context.Context, userID string, p domain.Period) (*domain.MonthlyBudget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byPeriod[budgetKey(userID, p)]
	if !ok {
		return nil, domain.ErrBudgetNotFound
	}
	return &b, nil
}

func (r *fakeBudgetRepository) Save(_ context.Context, _ usecase.Transaction, b *domain.MonthlyBudget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPeriod[budgetKey(b.UserID, b.Period)] = *b
	return nil
}

func (r *fakeBudgetRepository) Delete(_ context.Context, _ usecase.Transaction, userID string, p domain.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPeriod[budgetKey(userID, p)]; !ok {
		return domain.ErrBudgetNotFound
	}
	delete(r.byPeriod, budgetKey(userID, p))
	return nil
}

type fakeLedgerRepository struct {
	mu       sync.RWMutex
	byPeriod map[string]domain.PeriodLedger
	saves    int
}

func newFakeLedgerRepository() *fakeLedgerRepository {
	return &fakeLedgerRepository{byPeriod: make(map[string]domain.PeriodLedger)}
}

func (r *fakeLedgerRepository) GetByUserAndPeriod(_ context.Context, userID string, p domain.Period) (*domain.PeriodLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byPeriod[budgetKey(userID, p)]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return &l, nil
}

func (r *fakeLedgerRepository) Save(_ context.Context, _ usecase.Transaction, l *domain.PeriodLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPeriod[budgetKey(l.UserID, l.Period)] = *l
	r.saves++
	return nil
}

func (r *fakeLedgerRepository) ListByUser(_ context.Context, userID string) ([]*domain.PeriodLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.PeriodLedger
	for _, l := range r.byPeriod {
		if l.UserID == userID {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Start().After(out[j].Period.Start()) })
	return out, nil
}

func (r *fakeLedgerRepository) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPeriod)
}

type fakeAuditRepository struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func (r *fakeAuditRepository) Create(_ context.Context, _ usecase.Transaction, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepository) GetByResourceID(_ context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range r.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, &l)
		}
	}
	return out, nil
}

type testEnv struct {
	clock        *fixedClock
	idGen        *seqIDGenerator
	txRepo       *fakeTransactionRepository
	categoryRepo *fakeCategoryRepository
	budgetRepo   *fakeBudgetRepository
	ledgerRepo   *fakeLedgerRepository
	auditRepo    *fakeAuditRepository
	txManager    *fakeTxManager
	locker       *fakeLocker

	pipeline     *usecase.RulePipeline
	closing      *usecase.ClosingUseCase
	validation   *usecase.ValidationUseCase
	transactions *usecase.TransactionUseCase
	budgets      *usecase.BudgetUseCase
	categories   *usecase.CategoryUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		clock:        &fixedClock{now: testNow},
		idGen:        &seqIDGenerator{},
		txRepo:       newFakeTransactionRepository(),
		categoryRepo: newFakeCategoryRepository(),
		budgetRepo:   newFakeBudgetRepository(),
		ledgerRepo:   newFakeLedgerRepository(),
		auditRepo:    &fakeAuditRepository{},
		txManager:    &fakeTxManager{},
		locker:       &fakeLocker{},
	}

	e.pipeline = usecase.NewDefaultRulePipeline(e.clock, e.categoryRepo, e.txRepo, e.budgetRepo, nil)
	e.closing = usecase.NewClosingUseCase(e.txManager, e.locker, passRetrier{}, e.ledgerRepo, e.txRepo, e.auditRepo, e.idGen, e.clock, nil)
	e.validation = usecase.NewValidationUseCase(e.pipeline, e.categoryRepo, e.txRepo, e.budgetRepo)
	e.transactions = usecase.NewTransactionUseCase(e.txManager, e.locker, passRetrier{}, e.closing, e.pipeline, e.txRepo, e.idGen, e.clock)
	e.budgets = usecase.NewBudgetUseCase(e.txManager, e.locker, passRetrier{}, e.closing, e.validation, e.budgetRepo, e.auditRepo, e.idGen, e.clock)
	e.categories = usecase.NewCategoryUseCase(e.categoryRepo, e.idGen, e.clock)

	return e
}

func (e *testEnv) addCategory(id, name string, priority domain.Priority, limit string) {
	c := domain.Category{
		ID:       id,
		UserID:   testUser,
		Name:     name,
		Type:     domain.TransactionTypeExpense,
		Priority: priority,
	}
	if limit != "" {
		m := domain.MustMoney(limit, "BRL")
		c.Limit = &m
	}
	_ = e.categoryRepo.Create(context.Background(), &c)
}

func (e *testEnv) addTransaction(typ domain.TransactionType, categoryID, amount string, date time.Time) string {
	t := domain.Transaction{
		ID:     e.idGen.Generate(),
		UserID: testUser,
		Type:   typ,
		Amount: domain.MustMoney(amount, "BRL"),
		Date:   date,
	}
	if categoryID != "" {
		t.CategoryID = &categoryID
	}
	_ = e.txRepo.Create(context.Background(), nil, &t)
	return t.ID
}

func (e *testEnv) setBudget(period, amount string) {
	_ = e.budgetRepo.Save(context.Background(), nil, &domain.MonthlyBudget{
		ID:     e.idGen.Generate(),
		UserID: testUser,
		Period: domain.MustParsePeriod(period),
		Amount: domain.MustMoney(amount, "BRL"),
	})
}

func strPtr(s string) *string { return &s }

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }
