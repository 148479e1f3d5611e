package router

import (
	"net/http"

	emailsvc "teamhub-backend/internal/application/emails"
	"teamhub-backend/internal/application/identity"
	invsvc "teamhub-backend/internal/application/invitations"
	flows "teamhub-backend/internal/application/onboarding"
	"teamhub-backend/internal/application/provisioning"
	"teamhub-backend/internal/config"
	"teamhub-backend/internal/infrastructure/database"
	authhandler "teamhub-backend/internal/interfaces/handlers/auth"
	healthhandler "teamhub-backend/internal/interfaces/handlers/health"
	invhandler "teamhub-backend/internal/interfaces/handlers/invitations"
	onbhandler "teamhub-backend/internal/interfaces/handlers/onboarding"
	"teamhub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: ".teamhub.app",
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	hh := &healthhandler.Handlers{Rdb: rdb}
	app.Get("/health/json", hh.JSON)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db == nil || rdb == nil {
		return app, db, rdb, nil
	}

	var emailSender emailsvc.Sender
	if cfg.BrevoAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom}
	}

	auth := &identity.GormAuthProvider{DB: db}

	ah := &authhandler.Handlers{Auth: auth, Rdb: rdb, Config: sessionCfg}
	ag := app.Group("/api/v1/auth")
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)

	is := &invsvc.Service{DB: db, Emails: emailSender, InviteBaseURL: cfg.InviteBaseURL}
	ih := &invhandler.Handlers{Service: is}
	ig := app.Group("/api/v1/invitations", middleware.RequireAuth())
	ig.Post("/create-invite", ih.CreateInvite)
	ig.Get("/view-invites", ih.ListInvites)
	ig.Patch("/revoke-invite", ih.RevokeInvite)

	oh := &onbhandler.Handlers{
		DB:           db,
		Validator:    &invsvc.Validator{DB: db},
		Resolver:     &identity.Resolver{Auth: auth},
		Provisioner:  &provisioning.Service{DB: db, Emails: emailSender},
		Verification: &identity.RedisVerification{DB: db, Rdb: rdb, Emails: emailSender},
		Flows:        flows.NewFlowStore(flows.DefaultFlowTTL),
		Config:       sessionCfg,
	}
	app.Post("/api/v1/onboarding/public/validate-code", oh.ValidateCode)
	og := app.Group("/api/v1/onboarding/flows")
	og.Post("/", oh.StartFlow)
	og.Get("/:id", oh.GetFlow)
	og.Post("/:id/accept", oh.Accept)
	og.Post("/:id/mode", oh.ChooseMode)
	og.Post("/:id/email-availability", oh.EmailInput)
	og.Post("/:id/send-verification", oh.SendVerification)
	og.Post("/:id/verify", oh.Verify)
	og.Post("/:id/submit", oh.Submit)
	og.Post("/:id/back", oh.Back)
	og.Delete("/:id", oh.Abandon)

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
