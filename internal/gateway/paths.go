package gateway

import "fmt"

// Resource is a top-level collection of the remote API
type Resource string

const (
	Accounts       Resource = "accounts"
	CreditCards    Resource = "credit-cards"
	Invoices       Resource = "invoices"
	Transactions   Resource = "transactions"
	RecurringBills Resource = "recurring-bills"
	Categories     Resource = "categories"
	Products       Resource = "products"
	Inventory      Resource = "inventory"
	ShoppingList   Resource = "shopping-list"
	Members        Resource = "members"
	Invitations    Resource = "invitations"
)

// Collection is the list/create path, e.g. /accounts/
func Collection(r Resource) string {
	return "/" + string(r) + "/"
}

// Item is the path of one resource, e.g. /accounts/7/
func Item(r Resource, id any) string {
	return fmt.Sprintf("/%s/%v/", r, id)
}

// Action is a sub-action of one resource, e.g. /invoices/3/pay/
func Action(r Resource, id any, action string) string {
	return fmt.Sprintf("/%s/%v/%s/", r, id, action)
}

// CollectionAction is a sub-action of the collection, e.g. /shopping-list/finish/
func CollectionAction(r Resource, action string) string {
	return fmt.Sprintf("/%s/%s/", r, action)
}
