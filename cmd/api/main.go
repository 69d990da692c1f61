package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	_ "github.com/jhoicas/invorya-erp/docs"
	appanalytics "github.com/jhoicas/invorya-erp/internal/application/analytics"
	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/auth"
	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/application/usecase"
	infradian "github.com/jhoicas/invorya-erp/internal/infrastructure/dian"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/excel"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/factus"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/lock"
	infrapdf "github.com/jhoicas/invorya-erp/internal/infrastructure/pdf"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/invorya-erp/internal/interfaces/http"
	"github.com/jhoicas/invorya-erp/pkg/config"
	"github.com/jhoicas/invorya-erp/pkg/logger"
)

// @title                       Invorya ERP API
// @version                     1.0
// @description                 Facturación electrónica DIAN, cartera, inventario y parqueadero.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("einvoice", cfg.EInvoice.Provider).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log.Component("migrate").Zerolog()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	creditNoteRepo := postgres.NewCreditNoteRepository(pool)
	receivableRepo := postgres.NewReceivableRepository(pool)
	resolutionRepo := postgres.NewBillingResolutionRepository(pool)
	tariffRepo := postgres.NewParkingTariffRepository(pool)
	sessionRepo := postgres.NewParkingSessionRepository(pool)
	subscriptionRepo := postgres.NewParkingSubscriptionRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Candados de numeración: Redis si está configurado, memoria si no.
	locker, closeLocker := lock.New(ctx, cfg.Redis.URL, log.Component("lock").Zerolog())
	defer func() {
		if err := closeLocker(); err != nil {
			log.Warn().Err(err).Msg("cerrando redis")
		}
	}()

	auditUC := audit.NewUseCase(auditRepo, log.Component("audit").Zerolog())
	workbook := excel.New()
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	provider := eInvoiceProvider(cfg, log)
	orchestrator := billing.NewEInvoiceOrchestrator(
		invoiceRepo, creditNoteRepo, companyRepo, customerRepo, productRepo,
		resolutionRepo, provider, log.Zerolog(),
	).WithTimeout(time.Duration(cfg.EInvoice.TimeoutSeconds) * time.Second)

	// Inventario y catálogo
	productUC := usecase.NewProductUseCase(productRepo, categoryRepo, auditUC)
	movementUC := inventory.NewRegisterMovementUseCase(txRunner, productRepo, warehouseRepo, stockRepo, movementRepo, auditUC)
	importUC := inventory.NewImportCatalogUseCase(txRunner, productRepo, categoryRepo, warehouseRepo, workbook, auditUC)

	// Facturación
	customerUC := billing.NewCustomerUseCase(customerRepo)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, customerRepo, productRepo, warehouseRepo, invoiceRepo, locker, orchestrator, auditUC)
	paymentUC := billing.NewPaymentUseCase(txRunner, invoiceRepo, paymentRepo, auditUC)
	creditNoteUC := billing.NewCreditNoteUseCase(txRunner, invoiceRepo, creditNoteRepo, warehouseRepo, locker, orchestrator, auditUC)
	receivableUC := billing.NewReceivableUseCase(txRunner, companyRepo, customerRepo, invoiceRepo, paymentRepo, creditNoteRepo, receivableRepo, workbook, auditUC)
	resolutionUC := billing.NewResolutionUseCase(resolutionRepo, auditUC)
	pdfUC := billing.NewPDFUseCase(invoiceRepo, companyRepo, customerRepo, productRepo, pdfGenerator)

	// Parqueadero
	tariffUC := parking.NewTariffUseCase(tariffRepo, auditUC, decimal.NewFromInt(int64(cfg.Parking.RoundingStep)))
	sessionUC := parking.NewSessionUseCase(txRunner, sessionRepo, tariffRepo, subscriptionRepo, warehouseRepo, companyRepo, locker, pdfGenerator, auditUC)
	subscriptionUC := parking.NewSubscriptionUseCase(subscriptionRepo, tariffRepo, auditUC)
	reportUC := parking.NewReportUseCase(sessionRepo, companyRepo, workbook)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	dashboardUC := appanalytics.NewDashboardUseCase(dashboardRepo, sessionRepo, decimal.NewFromInt(int64(cfg.Inventory.LowStockLevel)))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // importación de catálogo
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(httpRouter.RequestLogger(log.Component("http").Zerolog()))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invorya ERP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "einvoice": provider.Name()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		CompanyUC:     usecase.NewCompanyUseCase(companyRepo),
		ModuleService: usecase.NewModuleService(companyRepo),
		UserUC:        usecase.NewUserUseCase(userRepo),
		WarehouseUC:   usecase.NewWarehouseUseCase(warehouseRepo),
		ProductUC:     productUC,
		ImportCatalog: importUC,
		Movements:     movementUC,
		CustomerUC:    customerUC,
		InvoiceUC:     invoiceUC,
		PaymentUC:     paymentUC,
		CreditNoteUC:  creditNoteUC,
		PDFUC:         pdfUC,
		ReceivableUC:  receivableUC,
		ResolutionUC:  resolutionUC,
		TariffUC:      tariffUC,
		SessionUC:     sessionUC,
		Subscriptions: subscriptionUC,
		ParkingReport: reportUC,
		AuditUC:       auditUC,
		DashboardUC:   dashboardUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// envíos a la DIAN en curso
	orchestrator.Wait()

	log.Info().Msg("aplicación detenida")
}

// eInvoiceProvider arma el proveedor de facturación electrónica configurado.
func eInvoiceProvider(cfg *config.Config, log *logger.Logger) billing.EInvoiceProvider {
	timeout := time.Duration(cfg.EInvoice.TimeoutSeconds) * time.Second
	switch strings.ToLower(cfg.EInvoice.Provider) {
	case billing.ProviderDIAN:
		zl := log.Component("dian").Zerolog()
		client := infradian.NewSOAPDIANClient(&http.Client{Timeout: timeout}, zl)
		p, err := infradian.NewDirectProvider(cfg.DIAN, client, zl)
		if err != nil {
			log.Fatal().Err(err).Msg("proveedor DIAN")
		}
		return p
	case billing.ProviderFactus:
		zl := log.Component("factus").Zerolog()
		return factus.NewProvider(factus.NewClient(cfg.Factus, &http.Client{Timeout: timeout}, zl))
	}
	return billing.NoopProvider{}
}
