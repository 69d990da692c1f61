package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-erp/internal/application/analytics"
	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/auth"
	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/application/usecase"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CompanyUC     *usecase.CompanyUseCase
	ModuleService *usecase.ModuleService
	UserUC        *usecase.UserUseCase
	WarehouseUC   *usecase.WarehouseUseCase
	ProductUC     *usecase.ProductUseCase
	ImportCatalog *inventory.ImportCatalogUseCase
	Movements     *inventory.RegisterMovementUseCase

	CustomerUC    *billing.CustomerUseCase
	InvoiceUC     *billing.InvoiceUseCase
	PaymentUC     *billing.PaymentUseCase
	CreditNoteUC  *billing.CreditNoteUseCase
	PDFUC         *billing.PDFUseCase
	ReceivableUC  *billing.ReceivableUseCase
	ResolutionUC  *billing.ResolutionUseCase
	TariffUC      *parking.TariffUseCase
	SessionUC     *parking.SessionUseCase
	Subscriptions *parking.SubscriptionUseCase
	ParkingReport *parking.ReportUseCase
	AuditUC       *audit.UseCase
	DashboardUC   *analytics.DashboardUseCase

	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.ModuleService)
	// alta de empresa pública: el primer usuario se registra con su company_id
	api.Post("/companies", companyHandler.Create)

	protected := api.Group("", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(jwt.RoleAdmin)

	// Empresa, módulos y usuarios
	protected.Get("/companies", admin, companyHandler.List)
	protected.Get("/companies/me", companyHandler.GetMine)
	protected.Put("/companies/me", admin, companyHandler.UpdateMine)
	protected.Get("/companies/me/modules", companyHandler.ListModules)
	protected.Put("/companies/me/modules/:module", admin, companyHandler.SetModule)

	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users", admin)
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id/status", userHandler.SetStatus)

	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/", admin, warehouseHandler.Create)
	warehouses.Put("/:id", admin, warehouseHandler.Update)
	warehouses.Delete("/:id", admin, warehouseHandler.Delete)

	// Inventario y catálogo
	inventoryModule := RequireModule(entity.ModuleInventory, deps.ModuleService)
	stockRoles := RequireRole(jwt.RoleBodeguero)
	productHandler := NewProductHandler(deps.ProductUC, deps.ImportCatalog)

	products := protected.Group("/products", inventoryModule)
	products.Get("/", productHandler.List)
	products.Get("/tags", productHandler.ListTags)
	products.Post("/", stockRoles, productHandler.Create)
	products.Post("/import", stockRoles, productHandler.Import)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", stockRoles, productHandler.Update)
	products.Delete("/:id", stockRoles, productHandler.Deactivate)
	products.Post("/:id/tags", stockRoles, productHandler.AddTags)
	products.Delete("/:id/tags/:tag", stockRoles, productHandler.RemoveTag)
	products.Post("/:id/images", stockRoles, productHandler.AddImage)
	products.Delete("/:id/images/:imageId", stockRoles, productHandler.RemoveImage)
	products.Put("/:id/images/:imageId/primary", stockRoles, productHandler.SetPrimaryImage)

	categories := protected.Group("/categories", inventoryModule)
	categories.Get("/", productHandler.ListCategories)
	categories.Post("/", stockRoles, productHandler.CreateCategory)

	inventoryHandler := NewInventoryHandler(deps.Movements)
	inv := protected.Group("/inventory", inventoryModule)
	inv.Post("/movements", stockRoles, inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/stock/:productId", inventoryHandler.GetStock)

	// Facturación y cartera
	billingModule := RequireModule(entity.ModuleBilling, deps.ModuleService)
	sales := RequireRole(jwt.RoleVendedor)
	collections := RequireRole(jwt.RoleVendedor, jwt.RoleCartera)

	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers := protected.Group("/customers", billingModule)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Post("/", sales, customerHandler.Create)
	customers.Put("/:id", sales, customerHandler.Update)

	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.PaymentUC, deps.CreditNoteUC, deps.PDFUC)
	receivableHandler := NewReceivableHandler(deps.ReceivableUC, deps.ResolutionUC)

	invoices := protected.Group("/invoices", billingModule)
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", sales, invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/issue", sales, invoiceHandler.Issue)
	invoices.Post("/:id/cancel", sales, invoiceHandler.Cancel)
	invoices.Get("/:id/status", invoiceHandler.DIANStatus)
	invoices.Post("/:id/retry", sales, invoiceHandler.Retry)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Get("/:id/xml", invoiceHandler.DownloadXML)
	invoices.Get("/:id/payments", invoiceHandler.ListPayments)
	invoices.Post("/:id/payments", collections, invoiceHandler.RegisterPayment)
	invoices.Get("/:id/credit-notes", invoiceHandler.ListCreditNotes)
	invoices.Post("/:id/credit-notes", sales, invoiceHandler.CreateCreditNote)
	invoices.Get("/:id/receivable", receivableHandler.ByInvoice)

	protected.Post("/payments/:id/void", billingModule, collections, invoiceHandler.VoidPayment)
	protected.Get("/credit-notes/:id", billingModule, invoiceHandler.GetCreditNote)

	receivables := protected.Group("/receivables", billingModule, collections)
	receivables.Get("/", receivableHandler.List)
	receivables.Get("/aging", receivableHandler.Aging)
	receivables.Get("/aging.xlsx", receivableHandler.ExportAging)
	receivables.Get("/customers/:id/statement", receivableHandler.Statement)
	receivables.Post("/sync", admin, receivableHandler.Sync)

	resolutions := protected.Group("/billing/resolutions", billingModule, admin)
	resolutions.Get("/", receivableHandler.ListResolutions)
	resolutions.Post("/", receivableHandler.CreateResolution)
	resolutions.Delete("/:id", receivableHandler.DeactivateResolution)

	// Parqueadero
	parkingHandler := NewParkingHandler(deps.TariffUC, deps.SessionUC, deps.Subscriptions, deps.ParkingReport)
	pk := protected.Group("/parking", RequireModule(entity.ModuleParking, deps.ModuleService), RequireRole(jwt.RoleOperador))
	pk.Get("/vehicle-types", parkingHandler.VehicleTypes)
	pk.Get("/tariffs", parkingHandler.ListTariffs)
	pk.Put("/tariffs", admin, parkingHandler.UpsertTariff)
	pk.Delete("/tariffs/:id", admin, parkingHandler.DeactivateTariff)

	pk.Post("/sessions", parkingHandler.RegisterEntry)
	pk.Get("/sessions", parkingHandler.ListSessions)
	pk.Get("/sessions/:id", parkingHandler.GetSession)
	pk.Get("/sessions/:id/quote", parkingHandler.Quote)
	pk.Post("/sessions/:id/close", parkingHandler.CloseSession)
	pk.Post("/sessions/:id/cancel", parkingHandler.CancelSession)
	pk.Get("/sessions/:id/ticket", parkingHandler.Ticket)

	pk.Post("/subscriptions", parkingHandler.CreateSubscription)
	pk.Get("/subscriptions", parkingHandler.ListSubscriptions)
	pk.Get("/subscriptions/plate/:plate", parkingHandler.SubscriptionByPlate)
	pk.Post("/subscriptions/:id/renew", parkingHandler.RenewSubscription)
	pk.Post("/subscriptions/:id/cancel", parkingHandler.CancelSubscription)

	pk.Get("/report", parkingHandler.Report)
	pk.Get("/report.xlsx", parkingHandler.ExportReport)

	// Auditoría y tablero
	auditHandler := NewAuditHandler(deps.AuditUC)
	protected.Get("/audit-logs", admin, auditHandler.List)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	analyticsModule := RequireModule(entity.ModuleAnalytics, deps.ModuleService)
	protected.Get("/dashboard", analyticsModule, dashboardHandler.GetSummary)
	protected.Get("/dashboard/summary", analyticsModule, dashboardHandler.GetSummary)
}
