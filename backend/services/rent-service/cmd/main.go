package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/app"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/config"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/controllers"
	internal_repositories "github.com/rentflow/mono-repo/backend/services/rent-service/internal/repositories"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/routes"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-middleware"
	"github.com/rentflow/mono-repo/backend/shared/go-repositories"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize rent-service:", err)
	}
	defer application.Close()

	loc := cfg.BusinessLocation

	// Repositories
	store := internal_repositories.NewLedgerStore(application.DB)
	propRepo := repositories.NewPropertyRepository(application.DB)
	unitRepo := repositories.NewUnitRepository(application.DB)

	// Services
	notifier := services.NewNotifier(
		services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.LDFlag_TwilioFromPhone),
		store,
		constants.NotificationTimeout,
	)
	alerter := services.NewSendgridAlerter(services.SendgridAlerterOptions{
		APIKey:      cfg.SendgridAPIKey,
		FromEmail:   cfg.LDFlag_SendgridFromEmail,
		OpsEmail:    cfg.LDFlag_OpsAlertEmail,
		SandboxMode: cfg.LDFlag_SendgridSandboxMode,
	}, loc)

	reconciliationService := services.NewReconciliationService(store, notifier, alerter, services.ReconciliationOptions{
		Location:            loc,
		SenderPhoneFallback: cfg.LDFlag_SenderPhoneFallbackMatching,
		SendConfirmations:   cfg.LDFlag_SendPaymentConfirmationSMS,
	})
	rolloverService := services.NewRolloverService(store, services.RolloverOptions{Location: loc})
	reminderService := services.NewReminderService(store, notifier, services.ReminderOptions{
		Location:      loc,
		PaybillNumber: cfg.LDFlag_PaybillNumber,
	})
	tenancyOpts := services.TenancyOptions{
		Location:      loc,
		PaybillNumber: cfg.LDFlag_PaybillNumber,
		SendWelcome:   cfg.LDFlag_SendWelcomeSMS,
		Emails:        utils.NewEmailValidator(cfg.SendgridAPIKey, false),
	}
	if cfg.LDFlag_ValidatePhoneWithTwilio {
		tenancyOpts.Phones = services.NewTwilioPhoneLookup(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}
	tenancyService := services.NewTenancyService(store, notifier, tenancyOpts)
	ledgerQueryService := services.NewLedgerQueryService(store, loc, nil)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), propRepo, unitRepo, tenancyService, store, cfg.LDFlag_PaybillNumber); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	webhookController := controllers.NewMpesaWebhookController(reconciliationService)
	adminController := controllers.NewAdminController(rolloverService, reminderService, reconciliationService)
	tenantController := controllers.NewTenantController(tenancyService, ledgerQueryService)

	// Router setup
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MpesaWebhook, webhookController.WebhookHandler).Methods(http.MethodPost)

	// Admin routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AdminAuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.AdminResetMonthlyPayments, adminController.ResetMonthlyPaymentsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminReminders, adminController.SendRemindersHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminOverdue, adminController.OverdueHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AdminUnmatchedPayments, adminController.UnmatchedPaymentsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AdminArrears, adminController.ArrearsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AdminTenantReminder, adminController.SendTenantReminderHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminTenants, tenantController.MoveInHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminTenantMoveOut, tenantController.MoveOutHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.TenantLedger, tenantController.LedgerHandler).Methods(http.MethodGet)

	// Cron job setup, in business time so month boundaries line up with ledgers.
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(constants.MonthlyRolloverCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.MonthlyRolloverTimeout)
		defer cancel()
		utils.Logger.Info("Starting monthly rollover cron job...")
		res, err := rolloverService.ResetMonthlyTracking(ctx)
		if err != nil {
			utils.Logger.WithError(err).Error("Monthly rollover failed")
			return
		}
		utils.Logger.Infof("Monthly rollover to %s: %d updated, %d skipped, %d failed",
			res.Period, res.TenantsUpdated, res.Skipped, len(res.Failures))
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule monthly rollover cron")
	}

	_, err = c.AddFunc(constants.RentReminderCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RentReminderTimeout)
		defer cancel()
		utils.Logger.Info("Starting rent reminder cron job...")
		if _, err := reminderService.SendCurrentReminders(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to send rent reminders")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule rent reminder cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled rollover and reminder cron jobs")

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: co.Handler(router)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("rent-service failed to start:", err)
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("Shutdown signal received; draining rent-service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("HTTP server shutdown error")
	}
	<-c.Stop().Done()
	notifier.Wait()
	utils.Logger.Info("rent-service stopped")
}
