package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/internal/infrastructure/backend"
	"github.com/jhoicas/nfcom-bff/internal/infrastructure/excel"
	infrapdf "github.com/jhoicas/nfcom-bff/internal/infrastructure/pdf"
	"github.com/jhoicas/nfcom-bff/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/nfcom-bff/internal/interfaces/http"
	"github.com/jhoicas/nfcom-bff/pkg/config"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("backend", cfg.Backend.BaseURL).
		Bool("journal", cfg.Journal.Enabled).
		Msg("iniciando aplicación")

	// Back office: contratos, servicios y documentos fiscales
	client := backend.NewClient(cfg.Backend, log)
	contractRepo := backend.NewContractRepository(client)
	serviceRepo := backend.NewServiceRepository(client)
	gateway := backend.NewNFComGateway(client)

	// Bitácora opcional. Deshabilitada queda como interfaz nil.
	var journal repository.JournalRepository
	if cfg.Journal.Enabled {
		ctx := context.Background()
		if err := postgres.RunMigrations(cfg.DB.ConnectionString(), postgres.MigrateUp, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones de la bitácora")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		journal = postgres.NewJournalRepository(pool)
	}

	clock := billing.Clock(time.Now)
	guard := billing.NewBatchGuard()
	composer := billing.NewComposer(serviceRepo, cfg.NFCom.DefaultSeries, log)

	contractsUC := billing.NewContractsUseCase(contractRepo, cfg.Backend.PageSize, clock)
	lifecycleUC := billing.NewLifecycleUseCase(contractRepo, gateway, composer, journal, clock, log)
	documentsUC := billing.NewDocumentsUseCase(gateway, journal, cfg.Backend.PageSize, log)
	bulkUC := billing.NewBulkEmissionUseCase(contractRepo, gateway, composer, journal, guard, clock, log)
	deletionUC := billing.NewDeletionUseCase(gateway, guard, cfg.Backend.PageSize, log)
	reportUC := billing.NewReportUseCase(journal, map[string]billing.BatchReportGenerator{
		billing.ReportFormatXLSX: excel.NewGenerator(),
		billing.ReportFormatPDF:  infrapdf.NewMarotoPDFGenerator(),
	}, clock)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Backend.Timeout + 30*time.Second, // lotes grandes
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "NFCom BFF",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Contracts: contractsUC,
		Lifecycle: lifecycleUC,
		Documents: documentsUC,
		Bulk:      bulkUC,
		Deletion:  deletionUC,
		Reports:   reportUC,
		JWTSecret: cfg.JWT.Secret,
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

	log.Info().Msg("aplicación detenida")
}
