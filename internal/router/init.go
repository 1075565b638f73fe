package router

import (
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/container"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	pginfra "github.com/oksasatya/greenloop/internal/infrastructure/postgres"
	"github.com/oksasatya/greenloop/internal/infrastructure/search"
	"github.com/oksasatya/greenloop/internal/infrastructure/tasks"
	handlers "github.com/oksasatya/greenloop/internal/interface/http"
	"github.com/oksasatya/greenloop/internal/router/modules"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

type ModuleDeps struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Ledger    *handlers.LedgerHandler
	Assistant *handlers.AssistantHandler
}

// buildDeps wires repositories, services and handlers from the container.
// Optional collaborators are only converted to interfaces when present so
// that services see a true nil.
func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	metrics := container.GetMetrics()
	table := xp.Default

	pool := container.GetPGPool()
	users := pginfra.NewUserRepository(pool)
	actions := pginfra.NewActionRepository(pool)
	swaps := pginfra.NewSwapRepository(pool)

	var index application.UserIndex
	if es := container.GetES(); es != nil {
		index = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
	}

	var (
		levelUps application.LevelUpNotifier
		welcomer application.WelcomeNotifier
	)
	if pub := container.GetRabbitPub(); pub != nil && container.GetRunner() != nil {
		m := tasks.NewMailer(pub, container.GetRunner(), cfg, table, logger)
		levelUps, welcomer = m, m
	}

	var (
		generator  ai.Generator
		classifier application.ProductClassifier
	)
	if p := container.GetAI(); p != nil {
		generator = p
		classifier = ai.NewClassifier(p)
	}
	embedder := container.GetEmbedder()

	var vectors application.VectorStore
	if v := container.GetVectors(); v != nil {
		vectors = v
	}

	reconciler := application.NewReconciler(users, actions, swaps, table, index, metrics, logger)
	userSvc := application.NewService(users, reconciler, container.GetJWT(), container.GetGCS(), cfg.GCSBucket, container.GetRedis(), logger, index)
	userSvc.Welcomer = welcomer

	ledger := application.NewLedgerService(users, actions, swaps, table, container.GetDispatcher(), levelUps, metrics, logger)

	assembler := application.NewContextAssembler(users, actions, swaps, embedder, vectors,
		cfg.VectorSearchTimeout, cfg.VectorSearchTopK, cfg.ChatContextTokens, metrics, logger)
	chat := application.NewChatService(assembler, generator, metrics, logger)

	var cache application.ProductCache
	if rdb := container.GetRedis(); rdb != nil {
		cache = helpers.NewRedisCache(rdb)
	}
	products := application.NewProductService(classifier, cache, cfg.ProductCacheTTL, metrics, logger)

	return ModuleDeps{
		Auth:      handlers.NewAuthHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure),
		User:      handlers.NewUserHandler(userSvc, logger),
		Ledger:    handlers.NewLedgerHandler(ledger, logger),
		Assistant: handlers.NewAssistantHandler(chat, products, table, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()
	rdb := container.GetRedis()

	r.Add(modules.NewAuthModule(deps.Auth, jwt, rdb))
	r.Add(modules.NewUserModule(deps.User, jwt, rdb))
	r.Add(modules.NewLedgerModule(deps.Ledger, jwt, rdb))
	r.Add(modules.NewAssistantModule(deps.Assistant, jwt, rdb))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
