package repositories

import (
	"context"
	"sort"
	"sync"

	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories/options"

	"github.com/shopspring/decimal"
)

// MemoryAccountRepository keeps accounts and ledger entries in process.
// Units of work are serialized by a single mutex and applied on commit, so
// readers never observe a partially applied transfer. The mutex is store
// wide: transfers between disjoint account pairs run one at a time, unlike
// the row locks of the Postgres store. Use it for development and tests.
type MemoryAccountRepository struct {
	mu          sync.Mutex
	accounts    map[string]*models.Account
	entries     []models.Transaction
	nextAccount uint
	nextEntry   uint
}

var (
	_ AccountRepository = (*MemoryAccountRepository)(nil)
	_ LedgerReader      = (*MemoryAccountRepository)(nil)
)

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]*models.Account)}
}

func (m *MemoryAccountRepository) FindByCustomerID(_ context.Context, customerID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(customerID)
}

func (m *MemoryAccountRepository) Save(ctx context.Context, account *models.Account) error {
	return m.ExecuteInTransaction(ctx, func(repo AccountRepository) error {
		return repo.Save(ctx, account)
	})
}

func (m *MemoryAccountRepository) Create(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(account)
}

func (m *MemoryAccountRepository) ExecuteInTransaction(_ context.Context, fn func(AccountRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit := &memoryUnit{
		store:  m,
		loaded: make(map[string]*models.Account),
		saved:  make(map[string]*models.Account),
	}
	if err := fn(unit); err != nil {
		return err
	}
	unit.commit()
	return nil
}

func (m *MemoryAccountRepository) ResetDailyUsage(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, a := range m.accounts {
		if !a.DailyTransactionAmount.IsZero() {
			a.DailyTransactionAmount = decimal.Zero
			n++
		}
	}
	return n, nil
}

func (m *MemoryAccountRepository) Ping(context.Context) error { return nil }

// ListTransactions returns the customer's entries newest first.
func (m *MemoryAccountRepository) ListTransactions(_ context.Context, customerID string, opts ...*options.LedgerOptions) ([]models.Transaction, error) {
	opt := options.Merge(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[customerID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	var matched []models.Transaction
	for _, e := range m.entries {
		if e.AccountID != account.ID {
			continue
		}
		if opt.Timestamp != nil && !opt.Timestamp.Contains(e.Timestamp) {
			continue
		}
		if opt.Amount != nil && !opt.Amount.Contains(e.Amount.Abs()) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if opt.Offset >= len(matched) {
		return []models.Transaction{}, nil
	}
	end := opt.Offset + opt.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[opt.Offset:end], nil
}

func (m *MemoryAccountRepository) find(customerID string) (*models.Account, error) {
	a, ok := m.accounts[customerID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (m *MemoryAccountRepository) create(account *models.Account) error {
	if _, ok := m.accounts[account.CustomerID]; ok {
		return ErrDuplicateAccount
	}
	for _, a := range m.accounts {
		if a.AccountNumber == account.AccountNumber {
			return ErrDuplicateAccount
		}
	}
	m.nextAccount++
	account.ID = m.nextAccount
	stored := account.Clone()
	stored.Transactions = nil
	m.accounts[account.CustomerID] = stored
	return nil
}

// memoryUnit is the repository handed to ExecuteInTransaction callbacks. It
// runs with the store mutex held.
type memoryUnit struct {
	store   *MemoryAccountRepository
	loaded  map[string]*models.Account
	saved   map[string]*models.Account
	created []*models.Account
	reset   bool
}

func (u *memoryUnit) FindByCustomerID(_ context.Context, customerID string) (*models.Account, error) {
	if a, ok := u.saved[customerID]; ok {
		return a, nil
	}
	if a, ok := u.loaded[customerID]; ok {
		return a, nil
	}
	for _, a := range u.created {
		if a.CustomerID == customerID {
			return a, nil
		}
	}
	a, err := u.store.find(customerID)
	if err != nil {
		return nil, err
	}
	if u.reset {
		a.DailyTransactionAmount = decimal.Zero
	}
	u.loaded[customerID] = a
	return a, nil
}

func (u *memoryUnit) Save(_ context.Context, account *models.Account) error {
	_, known := u.store.accounts[account.CustomerID]
	for _, a := range u.created {
		known = known || a == account
	}
	if !known {
		return ErrAccountNotFound
	}
	u.saved[account.CustomerID] = account
	return nil
}

func (u *memoryUnit) Create(_ context.Context, account *models.Account) error {
	if _, ok := u.store.accounts[account.CustomerID]; ok {
		return ErrDuplicateAccount
	}
	for _, a := range u.created {
		if a.CustomerID == account.CustomerID || a.AccountNumber == account.AccountNumber {
			return ErrDuplicateAccount
		}
	}
	u.created = append(u.created, account)
	return nil
}

func (u *memoryUnit) ExecuteInTransaction(_ context.Context, fn func(AccountRepository) error) error {
	return fn(u)
}

func (u *memoryUnit) ResetDailyUsage(context.Context) (int64, error) {
	u.reset = true
	var n int64
	for _, a := range u.store.accounts {
		if !a.DailyTransactionAmount.IsZero() {
			n++
		}
	}
	for _, a := range u.loaded {
		a.DailyTransactionAmount = decimal.Zero
	}
	for _, a := range u.saved {
		a.DailyTransactionAmount = decimal.Zero
	}
	return n, nil
}

func (u *memoryUnit) Ping(context.Context) error { return nil }

func (u *memoryUnit) commit() {
	s := u.store
	if u.reset {
		for _, a := range s.accounts {
			a.DailyTransactionAmount = decimal.Zero
		}
	}
	for _, a := range u.created {
		// duplicates were rejected when staged
		_ = s.create(a)
	}
	for _, a := range u.saved {
		for i := range a.Transactions {
			entry := &a.Transactions[i]
			if entry.ID != 0 {
				continue
			}
			s.nextEntry++
			entry.ID = s.nextEntry
			entry.AccountID = a.ID
			s.entries = append(s.entries, *entry)
		}
		stored := a.Clone()
		stored.Transactions = nil
		s.accounts[a.CustomerID] = stored
	}
}
