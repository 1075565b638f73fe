package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	"github.com/oksasatya/greenloop/internal/observability"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons. Optional
// collaborators (AI, vector bridge, ES, GCS, RabbitMQ) may be nil.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	metrics    *observability.Metrics
	aiProvider ai.Provider
	embedder   application.Embedder
	vectors    *vectorbridge.Client
	runner     application.Runner
	dispatcher application.Dispatcher
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetMetrics(m *observability.Metrics) { metrics = m }
func GetMetrics() *observability.Metrics  { return metrics }
func SetAI(p ai.Provider)                 { aiProvider = p }
func GetAI() ai.Provider                  { return aiProvider }
func SetEmbedder(e application.Embedder)  { embedder = e }
func GetEmbedder() application.Embedder   { return embedder }
func SetVectors(v *vectorbridge.Client)   { vectors = v }
func GetVectors() *vectorbridge.Client    { return vectors }

// SetRunner installs the detached task runner and the memory dispatcher
// built on top of it.
func SetRunner(r application.Runner, d application.Dispatcher) {
	runner = r
	dispatcher = d
}
func GetRunner() application.Runner         { return runner }
func GetDispatcher() application.Dispatcher { return dispatcher }
