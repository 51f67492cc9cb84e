package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"ticket-ledger/config"
	"ticket-ledger/gateapi"
	"ticket-ledger/internal/handlers"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/services"
	"ticket-ledger/internal/treasury"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub for notification fan-out
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Treasury provider
	provider, err := buildTreasury(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Close(context.Background())

	// Ledger arena
	opts := ledger.Options{
		RequireHolderBurn: cfg.RequireHolderBurn,
	}
	if cfg.ProofSecret != "" {
		validator, err := ledger.NewDigestValidator([]byte(cfg.ProofSecret))
		if err != nil {
			return err
		}
		opts.Validator = validator
	}
	led := ledger.New(provider, opts)

	// Initialize services
	monitor := monitoring.NewMonitor(redisClient, cfg.NotificationStream)
	policyService := services.NewPolicyService(app, led, monitor)
	ticketService := services.NewTicketService(app, led, monitor)
	notifier := services.NewNotifier(app, redisClient, pn, cfg.NotificationStream, cfg.StreamMaxLen, cfg.NotifyChannel)

	go notifier.Run(ctx, led.Notifications())

	// Custody settlements confirm pending payments against the ledger. The
	// settlement reference carries "<event_id>:<principal>".
	if provider.Kind() == treasury.ProviderCustody {
		go func() {
			txChannel := make(chan *treasury.Transaction, 1)
			provider.SetTransactionChannel(txChannel)
			for {
				select {
				case t := <-txChannel:
					slog.Info("custody settlement received", "ref", t.RefID, "payee", t.Payee, "amount", t.Amount)

					eventID, principal, ok := splitSettlementRef(t.RefID)
					if !ok {
						slog.Warn("custody settlement with unrecognized reference", "ref", t.RefID)
						continue
					}
					if err := policyService.ConfirmPayment(eventID, principal, principal); err != nil {
						slog.Error("custody settlement rejected by ledger", "ref", t.RefID, "error", err)
					}

				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Initialize handlers
	policyHandler := handlers.NewPolicyHandler(app, policyService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService, policyService, cfg.RequireHolderBurn)

	// Gate query service on its own listener
	limiter := security.NewRateLimiter(redisClient, cfg.GateRateLimit, cfg.GateRateBurst)
	gate := gateapi.New(led, monitor, limiter, ":"+cfg.GatePort, cfg.EnableMetrics)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Rebuild the arena from the mirrored collections before serving.
		if err := policyService.Restore(); err != nil {
			slog.Error("policy restore failed", "error", err)
		}
		if err := ticketService.Restore(); err != nil {
			slog.Error("ticket restore failed", "error", err)
		}

		go func() {
			if err := gate.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("gate server stopped", "error", err)
			}
		}()

		// Policy endpoints
		e.Router.POST("/api/v1/policies", policyHandler.CreatePolicy)
		e.Router.GET("/api/v1/policies/{eventId}", policyHandler.GetPolicy)
		e.Router.GET("/api/v1/policies/{eventId}/registry", policyHandler.GetRegistry)
		e.Router.POST("/api/v1/policies/{eventId}/join", policyHandler.Join)
		e.Router.POST("/api/v1/policies/{eventId}/leave", policyHandler.Leave)
		e.Router.POST("/api/v1/policies/{eventId}/participants", policyHandler.AddParticipant)
		e.Router.POST("/api/v1/policies/{eventId}/payments", policyHandler.ConfirmPayment)
		e.Router.POST("/api/v1/policies/{eventId}/deactivate", policyHandler.Deactivate)
		e.Router.POST("/api/v1/policies/{eventId}/reactivate", policyHandler.Reactivate)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets", ticketHandler.MintFree)
		e.Router.POST("/api/v1/tickets/paid", ticketHandler.MintPaid)
		e.Router.GET("/api/v1/tickets/mine", ticketHandler.MyTickets)
		e.Router.GET("/api/v1/tickets/{ticketId}", ticketHandler.GetTicket)
		e.Router.POST("/api/v1/tickets/{ticketId}/checkin", ticketHandler.CheckIn)
		e.Router.POST("/api/v1/tickets/{ticketId}/proof", ticketHandler.SubmitProof)
		e.Router.POST("/api/v1/tickets/{ticketId}/burn", ticketHandler.Burn)
		e.Router.POST("/api/v1/tickets/{ticketId}/list", ticketHandler.ListForSale)
		e.Router.POST("/api/v1/tickets/{ticketId}/buy", ticketHandler.Buy)
		e.Router.GET("/api/v1/attendance", ticketHandler.MyAttendance)

		// Event views
		e.Router.GET("/api/v1/events/{eventId}/tickets", ticketHandler.EventTickets)
		e.Router.GET("/api/v1/events/{eventId}/stats", ticketHandler.EventStats)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func buildTreasury(ctx context.Context, cfg *config.Config) (treasury.Provider, error) {
	kind := treasury.ProviderKind(cfg.TreasuryProvider)
	if kind == treasury.ProviderCustody {
		return treasury.New(ctx, kind, &treasury.CustodyConfig{
			PNSubKey:    cfg.CustodySubKey,
			PNPubKey:    cfg.CustodyPubKey,
			PNSecretKey: cfg.CustodySecret,
			PNUUID:      cfg.CustodyUUID,
			PNChannel:   cfg.CustodyChannel,
			InstructCh:  cfg.CustodyInstruct,
			Currency:    cfg.CustodyCurrency,
		})
	}
	return treasury.New(ctx, kind, nil)
}

// splitSettlementRef parses "<event_id>:<principal>" settlement references.
func splitSettlementRef(ref string) (string, string, bool) {
	eventID, principal, found := strings.Cut(ref, ":")
	if !found || eventID == "" || principal == "" {
		return "", "", false
	}
	return eventID, principal, true
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
