package container

import (
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/internal/application"
	repo "github.com/oksasatya/go-social-graph/internal/domain/repository"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	store       repo.Store
	index       repo.SearchIndex
	publisher   application.Publisher
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}

func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		return helpers.NewDiscardLogger()
	}
	return logger
}

func SetStore(s repo.Store)                { store = s }
func GetStore() repo.Store                 { return store }
func SetSearch(i repo.SearchIndex)         { index = i }
func GetSearch() repo.SearchIndex          { return index }
func SetPublisher(p application.Publisher) { publisher = p }
func GetPublisher() application.Publisher  { return publisher }
func SetRedis(r *redis.Client)             { redisClient = r }
func GetRedis() *redis.Client              { return redisClient }
func SetGCS(s *storage.Client)             { gcsClient = s }
func GetGCS() *storage.Client              { return gcsClient }
func SetJWT(m *helpers.JWTManager)         { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil {
		c := GetConfig()
		jwtManager = helpers.NewJWTManager(c.JWTAccessSecret, c.JWTRefreshSecret, c.AccessTTL, c.RefreshTTL)
	}
	return jwtManager
}
