package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	"github.com/ganga90/olive-couple-sync-sub002/ui/rest"
	"github.com/ganga90/olive-couple-sync-sub002/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine API and the internal tick loop",
	Long: `Serves the engine API over HTTP and, unless ENGINE_INTERNAL_TICK is
disabled, drives the tick on an internal cron so no external scheduler is
needed.`,
	Run: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(_ *cobra.Command, _ []string) {
	cfg := config.Global

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Olive Proactive Engine",
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}
	account := make(map[string]string)
	for _, credential := range cfg.App.BasicAuth {
		parts := strings.Split(credential, ":")
		if len(parts) != 2 {
			logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
		}
		account[parts[0]] = parts[1]
	}

	api := app.Group(cfg.App.BasePath+"/api", basicauth.New(basicauth.Config{Users: account}))

	rest.InitRestEngine(api, engineUsecase, jobRepository, logRepository)
	rest.InitRestPreference(api, preferenceRepository)
	rest.InitRestHealth(api, healthUsecase)
	rest.SetAgentPool(agentPool)
	api.Get("/agents/pool", rest.GetAgentPoolStats)

	if err := catalog.Watch(); err != nil {
		logrus.WithError(err).Warn("[APP] agent catalog watch unavailable, edits need a restart")
	}

	var ticker *cron.Cron
	if cfg.Engine.InternalTick {
		ticker = startInternalTick(cfg)
	} else {
		logrus.Info("[TICK] internal tick disabled, expecting an external scheduler to POST action=tick")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logrus.Info("[APP] shutdown signal received")
		if ticker != nil {
			tickerCtx := ticker.Stop()
			<-tickerCtx.Done()
		}
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("failed to serve:", err)
	}

	StopApp()
}

// startInternalTick drives the engine on the configured cron expression.
// With valkey enabled, a short advisory lock keeps replicas from ticking at
// the same instant; without it, overlap protection is the idempotency
// markers alone.
func startInternalTick(cfg *config.Config) *cron.Cron {
	ticker := cron.New()

	_, err := ticker.AddFunc(cfg.Engine.TickCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Engine.TickCadenceMinutes)*time.Minute)
		defer cancel()

		if valkeyClient != nil {
			lockTTL := time.Duration(cfg.Engine.TickCadenceMinutes) * time.Minute
			acquired, err := valkeyClient.TryAcquireLock(ctx, "tick", lockTTL)
			if err != nil {
				logrus.WithError(err).Warn("[TICK] lock check failed, ticking anyway")
			} else if !acquired {
				logrus.Info("[TICK] another replica holds the tick lock, skipping")
				return
			}
			defer func() {
				if err := valkeyClient.ReleaseLock(context.Background(), "tick"); err != nil {
					logrus.WithError(err).Debug("[TICK] lock release failed")
				}
			}()
		}

		if _, err := engineUsecase.Tick(ctx); err != nil {
			logrus.WithError(err).Error("[TICK] tick failed")
		}
	})
	if err != nil {
		logrus.Fatalf("invalid ENGINE_TICK_CRON %q: %v", cfg.Engine.TickCron, err)
	}

	ticker.Start()
	logrus.Infof("[TICK] internal tick running on %q", cfg.Engine.TickCron)
	return ticker
}
