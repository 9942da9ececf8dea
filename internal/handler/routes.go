package handler

import (
	"github.com/dafibh/domo/domo-client/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every handler the router serves
type Handlers struct {
	Status      *StatusHandler
	Cache       *CacheHandler
	Mutation    *MutationHandler
	Account     *AccountHandler
	CreditCard  *CCHandler
	Transaction *TransactionHandler
	Recurring   *RecurringHandler
	Category    *CategoryHandler
	Product     *ProductHandler
	Image       *ImageHandler
	Inventory   *InventoryHandler
	Shopping    *ShoppingHandler
	Household   *HouseholdHandler
	Dashboard   *DashboardHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes. authMiddleware may be nil when
// token checks are disabled, rateLimiter when limiting is off.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// The socket authenticates with a query token
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1
	api := e.Group("/api/v1")
	api.GET("/status", h.Status.GetStatus)

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	if rateLimiter != nil {
		protected.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	protected.GET("/cache/:key", h.Cache.GetEntry)
	protected.POST("/cache/:key/invalidate", h.Cache.Invalidate)
	protected.GET("/mutations/:id", h.Mutation.GetMutation)

	accounts := protected.Group("/accounts")
	accounts.GET("", h.Account.GetAccounts)
	accounts.POST("", h.Account.CreateAccount)
	accounts.PUT("/:id", h.Account.UpdateAccount)
	accounts.DELETE("/:id", h.Account.DeleteAccount)
	accounts.PATCH("/:id/share", h.Account.ShareAccount)

	cards := protected.Group("/credit-cards")
	cards.GET("", h.CreditCard.GetCards)
	cards.POST("", h.CreditCard.CreateCard)
	cards.PUT("/:id", h.CreditCard.UpdateCard)
	cards.DELETE("/:id", h.CreditCard.DeleteCard)
	cards.PATCH("/:id/share", h.CreditCard.ShareCard)
	cards.GET("/:id/invoice", h.CreditCard.GetInvoice)
	cards.POST("/:id/invoice/pay", h.CreditCard.PayInvoice)

	transactions := protected.Group("/transactions")
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.POST("", h.Transaction.CreateTransaction)

	bills := protected.Group("/recurring-bills")
	bills.GET("", h.Recurring.GetBills)
	bills.POST("", h.Recurring.CreateBill)
	bills.PUT("/:id", h.Recurring.UpdateBill)
	bills.DELETE("/:id", h.Recurring.DeleteBill)
	bills.POST("/:id/pay", h.Recurring.PayBill)

	categories := protected.Group("/categories")
	categories.GET("", h.Category.GetCategories)
	categories.POST("", h.Category.CreateCategory)
	categories.PATCH("/:id", h.Category.RenameCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	products := protected.Group("/products")
	products.GET("", h.Product.GetProducts)
	products.POST("", h.Product.CreateProduct)
	products.PUT("/:id", h.Product.UpdateProduct)
	products.DELETE("/:id", h.Product.DeleteProduct)
	products.POST("/:id/image", h.Image.UploadImage)
	products.GET("/:id/image", h.Image.GetImageURL)

	inventory := protected.Group("/inventory")
	inventory.GET("", h.Inventory.GetInventory)
	inventory.POST("", h.Inventory.CreateItem)
	inventory.PUT("/:id", h.Inventory.UpdateItem)
	inventory.PATCH("/:id/quantity", h.Inventory.SetQuantity)
	inventory.DELETE("/:id", h.Inventory.DeleteItem)

	shopping := protected.Group("/shopping-list")
	shopping.GET("", h.Shopping.GetList)
	shopping.GET("/summary", h.Shopping.GetSummary)
	shopping.POST("", h.Shopping.AddItem)
	shopping.POST("/finish", h.Shopping.Finish)
	shopping.PATCH("/:id", h.Shopping.UpdateItem)
	shopping.POST("/:id/toggle", h.Shopping.ToggleItem)
	shopping.DELETE("/:id", h.Shopping.RemoveItem)

	members := protected.Group("/members")
	members.GET("", h.Household.GetMembers)
	members.DELETE("/:id", h.Household.RemoveMember)

	invitations := protected.Group("/invitations")
	invitations.GET("", h.Household.GetInvitations)
	invitations.POST("", h.Household.Invite)
	invitations.DELETE("/:id", h.Household.Revoke)
	invitations.POST("/:id/accept", h.Household.Accept)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("/summary", h.Dashboard.GetSummary)
	dashboard.GET("/charts", h.Dashboard.GetCharts)
	dashboard.GET("/shopping", h.Dashboard.GetShopping)
}
