package service

import (
	"context"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
)

// AccountService handles bank accounts and wallets
type AccountService struct {
	deps Deps

	create    mutation.Spec[domain.AccountInput]
	update    mutation.Spec[AccountUpdate]
	delete    mutation.Spec[int32]
	setShared mutation.Spec[Shared]
}

// AccountUpdate replaces the editable fields of an account
type AccountUpdate struct {
	ID    int32
	Input domain.AccountInput
}

// NewAccountService creates a new AccountService
func NewAccountService(deps Deps) *AccountService {
	s := &AccountService{deps: deps}
	touches := []cache.Key{cache.KeyAccounts}

	s.create = mutation.Spec[domain.AccountInput]{
		Name:    "accounts.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.AccountInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			accounts, ok := listOf[domain.Account](view, cache.KeyAccounts)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyAccounts: appended(accounts, domain.Account{
				ID:       tempID(),
				Name:     in.Name,
				Balance:  in.Balance,
				Limit:    in.Limit,
				IsShared: in.IsShared,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.AccountInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Accounts), in)
		},
	}

	s.update = mutation.Spec[AccountUpdate]{
		Name:    "accounts.update",
		Touches: touches,
		Predict: func(view cache.Getter, u AccountUpdate) (mutation.Values, error) {
			if err := u.Input.Validate(); err != nil {
				return nil, err
			}
			return updateAccount(view, u.ID, func(a domain.Account) domain.Account {
				a.Name = u.Input.Name
				a.Balance = u.Input.Balance
				a.Limit = u.Input.Limit
				a.IsShared = u.Input.IsShared
				return a
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u AccountUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPut, gateway.Item(gateway.Accounts, u.ID), u.Input)
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:    "accounts.delete",
		Touches: touches,
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			accounts, ok := listOf[domain.Account](view, cache.KeyAccounts)
			if !ok {
				return nil, nil
			}
			next, found := without(accounts, func(a domain.Account) bool { return a.ID == id })
			if !found {
				return nil, domain.ErrAccountNotFound
			}
			return mutation.Values{cache.KeyAccounts: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Accounts, id), nil)
		},
	}

	s.setShared = mutation.Spec[Shared]{
		Name:    "accounts.set_shared",
		Touches: touches,
		Predict: func(view cache.Getter, p Shared) (mutation.Values, error) {
			return updateAccount(view, p.ID, func(a domain.Account) domain.Account {
				a.IsShared = p.Shared
				return a
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, p Shared) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.Accounts, p.ID), map[string]bool{"is_shared": p.Shared})
		},
	}

	return s
}

// updateAccount rewrites one cached account. An unloaded list is left alone.
func updateAccount(view cache.Getter, id int32, fn func(domain.Account) domain.Account) (mutation.Values, error) {
	accounts, ok := listOf[domain.Account](view, cache.KeyAccounts)
	if !ok {
		return nil, nil
	}
	next, found := replaced(accounts, func(a domain.Account) bool { return a.ID == id }, fn)
	if !found {
		return nil, domain.ErrAccountNotFound
	}
	return mutation.Values{cache.KeyAccounts: next}, nil
}

// List returns the accounts, loading them when needed
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return readList[domain.Account](ctx, s.deps.Store, cache.KeyAccounts)
}

// Create adds an account
func (s *AccountService) Create(ctx context.Context, in domain.AccountInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Update replaces an account's editable fields
func (s *AccountService) Update(ctx context.Context, id int32, in domain.AccountInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, AccountUpdate{ID: id, Input: in})
}

// Delete removes an account. The API refuses accounts with transactions.
func (s *AccountService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}

// SetShared toggles whether the household sees the account
func (s *AccountService) SetShared(ctx context.Context, id int32, shared bool) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.setShared, Shared{ID: id, Shared: shared})
}
