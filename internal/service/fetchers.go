package service

import (
	"context"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
)

// listFetcher GETs a collection and decodes it as []T
func listFetcher[T any](gw gateway.Gateway, r gateway.Resource) cache.Fetcher {
	return func(ctx context.Context) (any, error) {
		body, err := gw.Call(ctx, http.MethodGet, gateway.Collection(r), nil)
		if err != nil {
			return nil, err
		}
		return gateway.DecodeList[T](body)
	}
}

// RegisterFetchers wires every cache key to its remote collection
func RegisterFetchers(store *cache.Store, gw gateway.Gateway) {
	store.Register(cache.KeyAccounts, listFetcher[domain.Account](gw, gateway.Accounts))
	store.Register(cache.KeyCreditCards, listFetcher[domain.CreditCard](gw, gateway.CreditCards))
	store.Register(cache.KeyTransactions, listFetcher[domain.Transaction](gw, gateway.Transactions))
	store.Register(cache.KeyRecurringBills, listFetcher[domain.RecurringBill](gw, gateway.RecurringBills))
	store.Register(cache.KeyCategories, listFetcher[domain.Category](gw, gateway.Categories))
	store.Register(cache.KeyProducts, listFetcher[domain.Product](gw, gateway.Products))
	store.Register(cache.KeyInventory, listFetcher[domain.InventoryItem](gw, gateway.Inventory))
	store.Register(cache.KeyShoppingList, listFetcher[domain.ShoppingListItem](gw, gateway.ShoppingList))
	store.Register(cache.KeyMembers, listFetcher[domain.Member](gw, gateway.Members))
	store.Register(cache.KeyInvitations, listFetcher[domain.Invitation](gw, gateway.Invitations))
}
