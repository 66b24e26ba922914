// Package memory keeps users, accounts and transactions in process memory.
// It backs tests and local runs without postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

type Store struct {
	mu           sync.RWMutex
	users        map[int64]models.AccountUser
	accounts     map[int64]models.Account
	transactions []models.Transaction
	nextAccount  int64
	nextTxn      int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]models.AccountUser),
		accounts: make(map[int64]models.Account),
	}
}

var (
	_ repository.UserRepository        = (*UserRepository)(nil)
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.Transactor            = (*Store)(nil)
)

func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Accounts() *AccountRepository         { return &AccountRepository{s: s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }

// AddUser seeds a user.
func (s *Store) AddUser(user models.AccountUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

type txKey struct{}

// journal collects undo steps for the writes of one WithinTx call.
type journal struct {
	undo []func()
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

// record must be called with s.mu held.
func (j *journal) record(undo func()) {
	if j != nil {
		j.undo = append(j.undo, undo)
	}
}

// WithinTx undoes every write made through ctx when fn fails. A nested call
// joins the outer one. Ids handed out are not reused, like a sequence.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// TransactionsFor returns every record written for the account, oldest first.
func (s *Store) TransactionsFor(accountNumber string) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, t := range s.transactions {
		if t.AccountNumber == accountNumber {
			out = append(out, t)
		}
	}
	return out
}

type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.AccountUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, account := range r.s.accounts {
		if account.AccountNumber == accountNumber {
			found := account
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) FindLatest(ctx context.Context) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *models.Account
	for _, account := range r.s.accounts {
		if latest == nil || account.ID > latest.ID {
			found := account
			latest = &found
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Account
	for _, account := range r.s.accounts {
		if account.UserID == userID {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AccountRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	accounts, err := r.FindByUser(ctx, userID)
	return len(accounts), err
}

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if account.ID == 0 {
		r.s.nextAccount++
		account.ID = r.s.nextAccount
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	id := account.ID
	prev, existed := r.s.accounts[id]
	journalFrom(ctx).record(func() {
		if existed {
			r.s.accounts[id] = prev
		} else {
			delete(r.s.accounts, id)
		}
	})
	r.s.accounts[id] = *account

	saved := *account
	return &saved, nil
}

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextTxn++
	txn.ID = r.s.nextTxn
	txn.CreatedAt = time.Now()
	r.s.transactions = append(r.s.transactions, *txn)

	id := txn.ID
	journalFrom(ctx).record(func() {
		for i, t := range r.s.transactions {
			if t.ID == id {
				r.s.transactions = append(r.s.transactions[:i], r.s.transactions[i+1:]...)
				return
			}
		}
	})

	saved := *txn
	return &saved, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.transactions {
		if t.TransactionID == transactionID {
			found := t
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *TransactionRepository) FindCancellation(ctx context.Context, originalID string) (*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.transactions {
		if t.OriginalTransactionID == originalID &&
			t.Type == models.TransactionTypeCancel &&
			t.Result == models.TransactionResultSuccess {
			found := t
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}
