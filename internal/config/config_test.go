package config_test

import (
	"os"
	"testing"
	"time"

	"rebirth/internal/config"
	"rebirth/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 空文字だとdefaultが効かないので未設定に戻す（終了時はt.Setenvが元に戻す）
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// 他の環境変数に引きずられないように毎回全部入れる
func setBaseEnv(t *testing.T) {
	t.Helper()
	unsetEnv(t,
		"PORT", "DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_HOST", "POSTGRES_PORT", "DB_MAX_OPEN_CONNS", "LOG_LEVEL", "LOG_JSON",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "RABBITMQ_URL", "RABBITMQ_QUEUE",
		"ASSETS_DIR", "PUBLIC_BASE_URL", "PROTECTED_STATUSES", "FE_URL",
	)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("NOTIFY_DRIVER", "log")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)

	set, err := cfg.ProtectedStatuses()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProtectedStatuses().List(), set.List())
}

func TestFromEnv_MissingSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := config.FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_PostgresRequiresCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := config.FromEnv()
	assert.ErrorContains(t, err, "POSTGRES_USER")

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DSN())
}

func TestFromEnv_KafkaBrokers(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("NOTIFY_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_UnknownDrivers(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("NOTIFY_DRIVER", "smtp")
	_, err := config.FromEnv()
	assert.Error(t, err)

	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "mysql")
	_, err = config.FromEnv()
	assert.Error(t, err)
}

func TestProtectedStatuses(t *testing.T) {
	cfg := config.Config{ProtectedStatusesRaw: "배송완료, 주문취소"}
	set, err := cfg.ProtectedStatuses()
	require.NoError(t, err)
	assert.Equal(t, []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCanceled}, set.List())

	cfg.ProtectedStatusesRaw = "배송완료,없는상태"
	_, err = cfg.ProtectedStatuses()
	assert.ErrorContains(t, err, "없는상태")
}

func TestDSN_FromParts(t *testing.T) {
	cfg := config.Config{
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresHost:     "db",
		PostgresPort:     5433,
		PostgresDB:       "app",
	}
	assert.Equal(t, "postgres://u:p@db:5433/app?sslmode=disable", cfg.DSN())
}
