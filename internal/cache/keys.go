package cache

// Key identifies one cached query result
type Key string

// Query keys, one per remote resource list
const (
	KeyAccounts       Key = "accounts"
	KeyCreditCards    Key = "credit-cards"
	KeyTransactions   Key = "transactions"
	KeyRecurringBills Key = "recurring-bills"
	KeyCategories     Key = "categories"
	KeyProducts       Key = "products"
	KeyInventory      Key = "inventory"
	KeyShoppingList   Key = "shopping-list"
	KeyMembers        Key = "members"
	KeyInvitations    Key = "invitations"
)

// AllKeys lists every known key
var AllKeys = []Key{
	KeyAccounts,
	KeyCreditCards,
	KeyTransactions,
	KeyRecurringBills,
	KeyCategories,
	KeyProducts,
	KeyInventory,
	KeyShoppingList,
	KeyMembers,
	KeyInvitations,
}

// ParseKey validates a key received from outside the process
func ParseKey(s string) (Key, bool) {
	for _, k := range AllKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
