package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"placement-portal/cmd/server/handlers"
	activityHandlers "placement-portal/cmd/server/handlers/activity"
	adminHandlers "placement-portal/cmd/server/handlers/admin"
	authHandlers "placement-portal/cmd/server/handlers/auth"
	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/cmd/server/middlewares"
	"placement-portal/internal/clients/mailer"
	"placement-portal/internal/clients/mongo"
	"placement-portal/internal/config"
	"placement-portal/internal/logger"
	adminServices "placement-portal/internal/services/admin"
	"placement-portal/internal/services/activity"
	authServices "placement-portal/internal/services/auth"
	"placement-portal/internal/services/otp"
	util "placement-portal/internal/utils"
	"placement-portal/internal/utils/crypto"

	_ "placement-portal/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// services are the collaborators the route table dispatches to
type services struct {
	auth     authHandlers.AuthService
	admin    adminHandlers.Service
	hub      *activity.Hub
	verifier activityHandlers.TokenVerifier
	ping     handlers.Pinger
}

// chain holds the middlewares whose order on each route matters
type chain struct {
	limiter   fiber.Handler
	jwt       fiber.Handler
	adminOnly fiber.Handler
}

func defaultChain(cfg config.Config, signer *authServices.TokenSigner) chain {
	return chain{
		limiter:   middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration),
		jwt:       middlewares.JWT(signer),
		adminOnly: middlewares.RequireRole(authServices.RoleAdmin),
	}
}

// setupRouter builds every service on top of the initialised mongo client and
// returns the configured app. With the log mail driver, message bodies are
// written to mailOut.
func setupRouter(ctx context.Context, cfg config.Config, mailOut io.Writer) (*fiber.App, error) {
	v, err := util.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	signer, err := authServices.NewTokenSigner(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		logger.L().Error(authServices.ErrUnsupportedJWTAlg.Error(), "algorithm", cfg.JWTAlgorithm)
		return nil, err
	}

	usersRepo, err := mongo.NewUsersRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error("failed to create users repository", "error", err)
		return nil, err
	}

	hub := activity.NewHub(cfg.WSOutboxBuffer)
	hasher := crypto.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	otps := otp.NewRegistry(time.Duration(cfg.OTPTTLMinutes) * time.Minute)
	mail := mailer.New(cfg, logger.L(), mailOut)

	svcs := services{
		auth:     authServices.NewService(usersRepo, otps, mail, hub, hasher, signer, cfg, logger.L()),
		admin:    adminServices.NewService(usersRepo, hasher, hub, logger.L()),
		hub:      hub,
		verifier: signer,
		ping:     mongo.Ping,
	}

	return newApp(cfg, v, svcs, defaultChain(cfg, signer)), nil
}

// newApp wires middlewares and the route table
func newApp(cfg config.Config, v *validator.Validate, svcs services, mw chain) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, svcs.hub.Collectors()...)
	}

	// outside the versioned API so health checks are not request-logged
	app.Get("/healthz", handlers.HealthzWith(svcs.ping))

	app.Get("/docs/*", swagger.HandlerDefault)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	authH := authHandlers.NewHandlers(svcs.auth, v)
	authGrp := v1.Group("/auth", mw.limiter)
	authGrp.Post("/send-otp", authH.SendOTP)
	authGrp.Post("/resend-otp", authH.ResendOTP)
	authGrp.Post("/verify-otp", authH.VerifyOTP)
	authGrp.Post("/register-student", authH.RegisterStudent)
	authGrp.Post("/login", authH.Login)
	authGrp.Post("/forgot-password", authH.ForgotPassword)
	authGrp.Post("/reset-password", authH.ResetPassword)
	authGrp.Post("/verify-account", mw.jwt, mw.adminOnly, authH.VerifyAccount)
	authGrp.Get("/verification/:email", mw.jwt, mw.adminOnly, authH.VerificationStatus)

	adminH := adminHandlers.NewHandlers(svcs.admin, v)
	adminGrp := v1.Group("/admin")
	adminGrp.Get("/exists", adminH.Exists)
	adminGrp.Post("/bootstrap", mw.limiter, adminH.Bootstrap)
	adminGrp.Post("/admins", mw.jwt, mw.adminOnly, adminH.CreateAdmin)
	adminGrp.Delete("/admins/:id", mw.jwt, mw.adminOnly, adminH.DeleteAdmin)
	adminGrp.Get("/profile", mw.jwt, mw.adminOnly, adminH.Profile)
	adminGrp.Put("/profile", mw.jwt, mw.adminOnly, adminH.UpdateProfile)
	adminGrp.Post("/faculty", mw.jwt, mw.adminOnly, adminH.CreateFaculty)
	adminGrp.Get("/faculty", mw.jwt, mw.adminOnly, adminH.ListFaculty)
	adminGrp.Patch("/faculty/:id", mw.jwt, mw.adminOnly, adminH.UpdateFaculty)
	adminGrp.Delete("/faculty/:id", mw.jwt, mw.adminOnly, adminH.DeleteFaculty)
	adminGrp.Get("/students", mw.jwt, mw.adminOnly, adminH.ListStudents)

	v1.Get("/me", mw.jwt, handlers.Me)

	wsH := activityHandlers.NewWebSocketHandlers(svcs.hub, svcs.verifier, cfg.WSMaxSessionSec)
	app.Use("/ws", activityHandlers.LogWSConnections(svcs.verifier))
	app.Get("/ws/activity", wsH.WSUpgrade, websocket.New(wsH.WSActivityStream))

	return app
}
