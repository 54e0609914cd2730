package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/config"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
	"github.com/oksasatya/go-event-api/pkg/helpers"
	"github.com/oksasatya/go-event-api/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router wires modules from these singletons; optional ones stay nil when disabled.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager

	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher

	accounts     repository.AccountRepository
	codes        repository.VerificationCodeRepository
	locker       repository.Locker
	mail         repository.Mailer
	accountIndex repository.AccountIndex
	uploader     repository.ObjectUploader
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }
func SetJWT(m *helpers.JWTManager)  { jwtManager = m }
func GetJWT() *helpers.JWTManager   { return jwtManager }

func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetAccounts(r repository.AccountRepository)       { accounts = r }
func GetAccounts() repository.AccountRepository        { return accounts }
func SetCodes(r repository.VerificationCodeRepository) { codes = r }
func GetCodes() repository.VerificationCodeRepository  { return codes }
func SetLocker(l repository.Locker)                    { locker = l }
func GetLocker() repository.Locker                     { return locker }
func SetMailer(m repository.Mailer)                    { mail = m }
func GetMailer() repository.Mailer                     { return mail }

// SetAccountIndex and SetUploader take interfaces; pass a literal nil to disable,
// never a typed nil pointer.
func SetAccountIndex(x repository.AccountIndex) { accountIndex = x }
func GetAccountIndex() repository.AccountIndex  { return accountIndex }
func SetUploader(u repository.ObjectUploader)   { uploader = u }
func GetUploader() repository.ObjectUploader    { return uploader }

// Reset clears every singleton. Tests use it between setups.
func Reset() {
	cfg, logger, pgPool, redisClient, gcsClient, esClient = nil, nil, nil, nil, nil, nil
	jwtManager, mailgunClient, rabbitPub = nil, nil, nil
	accounts, codes, locker, mail, accountIndex, uploader = nil, nil, nil, nil, nil, nil
}
