// seed crea una empresa de demostración con sus módulos, un administrador,
// resoluciones de numeración de habilitación y tarifas de parqueadero.
//
// Uso: go run ./cmd/seed --nit 900123456 --email admin@demo.co --password secreto123
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/auth"
	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/application/usecase"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/postgres"
	"github.com/jhoicas/invorya-erp/pkg/config"
	"github.com/jhoicas/invorya-erp/pkg/logger"
)

type seedFlags struct {
	name      string
	nit       string
	email     string
	password  string
	prefix    string
	rangeTo   int64
	tariffs   bool
	warehouse string
}

func main() {
	var f seedFlags
	pflag.StringVar(&f.name, "name", "Empresa Demo SAS", "razón social")
	pflag.StringVar(&f.nit, "nit", "900123456", "NIT sin dígito de verificación")
	pflag.StringVar(&f.email, "email", "admin@demo.co", "correo del administrador")
	pflag.StringVar(&f.password, "password", "", "contraseña del administrador (mínimo 8)")
	pflag.StringVar(&f.prefix, "prefix", "SETP", "prefijo de la resolución de facturas")
	pflag.Int64Var(&f.rangeTo, "range-to", 5000000, "último consecutivo autorizado")
	pflag.BoolVar(&f.tariffs, "tariffs", true, "crear tarifas de parqueadero por defecto")
	pflag.StringVar(&f.warehouse, "warehouse", "Sede principal", "nombre de la primera sede")
	pflag.Parse()

	if len(f.password) < 8 {
		fmt.Fprintln(os.Stderr, "--password es obligatorio (mínimo 8 caracteres)")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log.Zerolog()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	auditUC := audit.NewUseCase(postgres.NewAuditRepository(pool), log.Zerolog())

	company, err := usecase.NewCompanyUseCase(companyRepo).Create(ctx, dto.CreateCompanyRequest{
		Name: f.name, NIT: f.nit, Email: f.email,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear empresa")
	}
	log.Info().Str("company_id", company.ID).Msg("empresa creada")

	modules := usecase.NewModuleService(companyRepo)
	for _, m := range []string{entity.ModuleInventory, entity.ModuleBilling, entity.ModuleParking, entity.ModuleAnalytics} {
		if _, err := modules.SetModule(ctx, company.ID, m, dto.SetModuleRequest{IsActive: true}); err != nil {
			log.Fatal().Err(err).Str("module", m).Msg("activar módulo")
		}
	}

	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), companyRepo, auth.JWTConfig{
		Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer,
	})
	admin, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
		Email: f.email, Password: f.password, CompanyID: company.ID, Name: "Administrador", Role: entity.RoleAdmin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador")
	}

	if _, err := usecase.NewWarehouseUseCase(postgres.NewWarehouseRepository(pool)).Create(ctx, company.ID, dto.CreateWarehouseRequest{Name: f.warehouse}); err != nil {
		log.Fatal().Err(err).Msg("crear sede")
	}

	resolutions := billing.NewResolutionUseCase(postgres.NewBillingResolutionRepository(pool), auditUC)
	now := time.Now()
	for _, r := range []dto.CreateResolutionRequest{
		{Kind: entity.ResolutionKindInvoice, ResolutionNumber: "18760000001", Prefix: f.prefix, RangeFrom: 990000000, RangeTo: 990000000 + f.rangeTo, TechnicalKey: cfg.DIAN.TechnicalKey},
		{Kind: entity.ResolutionKindCreditNote, ResolutionNumber: "18760000001", Prefix: "NC", RangeFrom: 1, RangeTo: f.rangeTo},
	} {
		r.DateFrom = now.AddDate(0, 0, -1)
		r.DateTo = now.AddDate(2, 0, 0)
		if _, err := resolutions.CreateResolution(ctx, company.ID, admin.ID, r); err != nil {
			log.Fatal().Err(err).Str("kind", r.Kind).Msg("crear resolución")
		}
	}

	if f.tariffs {
		tariffs := parking.NewTariffUseCase(postgres.NewParkingTariffRepository(pool), auditUC, decimal.NewFromInt(int64(cfg.Parking.RoundingStep)))
		for _, t := range defaultTariffs() {
			if _, err := tariffs.UpsertTariff(ctx, company.ID, admin.ID, t); err != nil && !errors.Is(err, domain.ErrDuplicate) {
				log.Fatal().Err(err).Str("vehicle_type", t.VehicleType).Msg("crear tarifa")
			}
		}
	}

	fmt.Printf("Empresa %s (%s)\nAdministrador %s\n", company.Name, company.ID, admin.Email)
}

// defaultTariffs valores de referencia en COP.
func defaultTariffs() []dto.UpsertTariffRequest {
	d := decimal.NewFromInt
	return []dto.UpsertTariffRequest{
		{VehicleType: entity.VehicleCar, Name: "Carro por minuto", Unit: "minute", UnitPrice: d(110), GraceMinutes: 5, MinimumCharge: d(1500), DailyCap: d(25000)},
		{VehicleType: entity.VehicleMotorcycle, Name: "Moto por minuto", Unit: "minute", UnitPrice: d(80), GraceMinutes: 5, MinimumCharge: d(1000), DailyCap: d(12000)},
		{VehicleType: entity.VehicleBicycle, Name: "Bicicleta por día", Unit: "day", UnitPrice: d(3000)},
		{VehicleType: entity.VehicleTruck, Name: "Camión por hora", Unit: "hour", UnitPrice: d(9000), ToleranceMinutes: 10, DailyCap: d(60000)},
	}
}
