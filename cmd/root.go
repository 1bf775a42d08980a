package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	"github.com/ganga90/olive-couple-sync-sub002/core/database"
	settingsApp "github.com/ganga90/olive-couple-sync-sub002/core/settings/application"
	domainBriefing "github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainHealth "github.com/ganga90/olive-couple-sync-sub002/domains/health"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	"github.com/ganga90/olive-couple-sync-sub002/infrastructure/agentcatalog"
	"github.com/ganga90/olive-couple-sync-sub002/infrastructure/valkey"
	"github.com/ganga90/olive-couple-sync-sub002/integrations/agentrunner"
	"github.com/ganga90/olive-couple-sync-sub002/integrations/gemini"
	"github.com/ganga90/olive-couple-sync-sub002/integrations/openai"
	"github.com/ganga90/olive-couple-sync-sub002/integrations/wagateway"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/agentworker"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/ganga90/olive-couple-sync-sub002/repository"
	"github.com/ganga90/olive-couple-sync-sub002/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	db           *gorm.DB
	valkeyClient *valkey.Client // nil unless VALKEY_ENABLED
	catalog      *agentcatalog.Catalog
	agentPool    *agentworker.Pool
	stateService *settingsApp.StateService

	jobRepository        *repository.JobGormRepository
	logRepository        *repository.LogGormRepository
	preferenceRepository *repository.PreferenceGormRepository
	taskRepository       *repository.TaskGormRepository
	userRepository       *repository.UserGormRepository
	agentRepository      *repository.AgentGormRepository
	connectionRepository *repository.ConnectionGormRepository
	outboxRepository     *repository.OutboxGormRepository

	engineUsecase domainProactive.IEngineUsecase
	healthUsecase domainHealth.IHealthUsecase

	// Flag overrides, applied on top of the env-driven config.
	flagPort       string
	flagDebug      bool
	flagDBDriver   string
	flagGatewayURL string
	flagBasicAuth  []string
)

var rootCmd = &cobra.Command{
	Use:   "olive-engine",
	Short: "Proactive notification scheduling engine",
	Long: `Olive's proactive-notification engine. Every tick it decides which
briefings, reminders, nudges, and background agents are due per user and
hands the messages to the WhatsApp gateway, at most once per period.`,
}

func init() {
	utils.LoadConfig(".")

	// Every scheduling decision compares wall clock against stored local
	// times; the process itself always runs in UTC.
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "",
		"HTTP port for serve | example: --port=8080")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false,
		"enable debug logging | example: --debug=true")
	rootCmd.PersistentFlags().StringVarP(&flagDBDriver, "db-driver", "", "",
		`database driver, "sqlite" or "postgres" | example: --db-driver=postgres`)
	rootCmd.PersistentFlags().StringVarP(&flagGatewayURL, "gateway-url", "", "",
		`WhatsApp gateway base URL | example: --gateway-url="http://localhost:3001"`)
	rootCmd.PersistentFlags().StringSliceVarP(&flagBasicAuth, "basic-auth", "b", nil,
		"basic auth credential for the API | -b=user:secret")
}

func initApp() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)

	if cfg.App.Debug || viper.GetBool("app_debug") {
		cfg.App.Debug = true
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.Paths.Storages); err != nil {
		logrus.Errorln(err)
	}
	cfg.App.ServerID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	db, err = database.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	jobRepository = repository.NewJobGormRepository(db)
	logRepository = repository.NewLogGormRepository(db)
	preferenceRepository = repository.NewPreferenceGormRepository(db)
	taskRepository = repository.NewTaskGormRepository(db)
	userRepository = repository.NewUserGormRepository(db)
	agentRepository = repository.NewAgentGormRepository(db)
	connectionRepository = repository.NewConnectionGormRepository(db)
	outboxRepository = repository.NewOutboxGormRepository(db)
	stateService = settingsApp.NewStateService(db)

	if err := migrateSchemas(context.Background()); err != nil {
		logrus.Fatalf("failed to migrate database schema: %v", err)
	}

	if cfg.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			// The advisory tick lock is best-effort; the engine stays
			// correct without it.
			logrus.WithError(err).Warn("[APP] valkey unavailable, running without the tick lock")
			valkeyClient = nil
		}
	}

	catalog, err = agentcatalog.Load(cfg.Paths.AgentCatalog)
	if err != nil {
		logrus.Fatalf("failed to load agent catalog: %v", err)
	}

	agentPool = agentworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	agentPool.Start(context.Background())

	engineUsecase = usecase.NewEngineService(usecase.EngineDeps{
		Jobs:        jobRepository,
		Logs:        logRepository,
		Preferences: preferenceRepository,
		Tasks:       taskRepository,
		Users:       userRepository,
		Agents:      agentRepository,
		Connections: connectionRepository,
		Catalog:     catalog,
		Generator:   buildGenerator(cfg),
		Gateway:     buildGateway(cfg),
		Runner:      agentrunner.NewRunner(cfg.Agents.RunnerURL, agentPool),
		State:       stateService,
	}, cfg.Engine)

	healthUsecase = usecase.NewHealthService(db, valkeyClient, catalog, stateService)
}

func applyFlagOverrides(cfg *config.Config) {
	if flagPort != "" {
		cfg.App.Port = flagPort
	}
	if flagDebug {
		cfg.App.Debug = true
	}
	if flagDBDriver != "" {
		cfg.Database.Driver = flagDBDriver
	}
	if flagGatewayURL != "" {
		cfg.Gateway.URL = flagGatewayURL
		cfg.Gateway.Driver = "http"
	}
	if len(flagBasicAuth) > 0 {
		cfg.App.BasicAuth = flagBasicAuth
	}
	if envBasicAuth := os.Getenv("APP_BASIC_AUTH"); envBasicAuth != "" && len(cfg.App.BasicAuth) == 0 {
		cfg.App.BasicAuth = strings.Split(envBasicAuth, ",")
	}
}

// buildGenerator wires the content generator. Model-backed providers always
// degrade to the deterministic template, so AI downtime can never block a
// send.
func buildGenerator(cfg *config.Config) domainBriefing.Generator {
	template := briefingTemplate()
	switch cfg.AI.Provider {
	case "gemini":
		logrus.Info("[APP] content generator: gemini (template fallback)")
		return domainBriefing.WithFallback(gemini.NewGenerator(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel), template)
	case "openai":
		logrus.Info("[APP] content generator: openai (template fallback)")
		return domainBriefing.WithFallback(openai.NewGenerator(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel), template)
	default:
		logrus.Info("[APP] content generator: template")
		return template
	}
}

func briefingTemplate() domainBriefing.Generator {
	return domainBriefing.NewTemplateComposer()
}

func buildGateway(cfg *config.Config) domainDelivery.Gateway {
	if cfg.Gateway.Driver == "log" {
		logrus.Info("[APP] delivery gateway: log (no GATEWAY_URL configured)")
		return wagateway.NewLogGateway()
	}
	logrus.Infof("[APP] delivery gateway: http (%s)", cfg.Gateway.URL)
	return wagateway.New(wagateway.Config{
		URL:           cfg.Gateway.URL,
		BasicAuth:     cfg.Gateway.BasicAuth,
		RatePerSecond: cfg.Gateway.RatePerSecond,
		Burst:         cfg.Gateway.Burst,
	}, userRepository, outboxRepository)
}

// migrateSchemas creates or updates every engine table.
func migrateSchemas(ctx context.Context) error {
	type schemaIniter interface {
		InitSchema(ctx context.Context) error
	}
	initers := []schemaIniter{
		jobRepository,
		logRepository,
		preferenceRepository,
		taskRepository,
		userRepository,
		agentRepository,
		connectionRepository,
		outboxRepository,
		stateService,
	}
	for _, initer := range initers {
		if err := initer.InitSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp releases background resources on shutdown.
func StopApp() {
	logrus.Info("[APP] stopping...")

	if agentPool != nil {
		agentPool.Stop()
	}
	if catalog != nil {
		catalog.Close()
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}

	logrus.Info("[APP] stopped cleanly")
}
