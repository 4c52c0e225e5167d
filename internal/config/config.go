package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type EngineConfig struct {
	DatabaseURL string
	HTTPAddr    string

	// Норма смены по умолчанию, если у проекта не задана своя
	DefaultShiftMinutes int

	// Порог прогресса для завершения назначения (по умолчанию 100%)
	CompletionThresholdPercent int

	// Пропускать отметки при отсутствующей геозоне проекта
	GeofenceBypassWhenMissing bool

	// В строгом режиме не показывать клиенту допуск по точности GPS
	StrictModeIgnoresAccuracy bool
}

var instance *EngineConfig
var once sync.Once

func GetEngineConfig() *EngineConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Debug("no .env file found, using process environment")
		}

		instance = &EngineConfig{}

		instance.DatabaseURL = getEnv("DATABASE_URL", "")
		if instance.DatabaseURL == "" {
			logrus.Fatal("could not get db url")
		}

		instance.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
		instance.DefaultShiftMinutes = int(getEnvAsInt("DEFAULT_SHIFT_MINUTES", 480))
		instance.CompletionThresholdPercent = int(getEnvAsInt("COMPLETION_THRESHOLD_PERCENT", 100))
		instance.GeofenceBypassWhenMissing = getEnvAsBool("GEOFENCE_BYPASS_WHEN_MISSING", false)
		instance.StrictModeIgnoresAccuracy = getEnvAsBool("STRICT_MODE_IGNORES_ACCURACY", true)
	})

	return instance
}

// Default возвращает конфигурацию движка со значениями по умолчанию (для тестов)
func Default() *EngineConfig {
	return &EngineConfig{
		HTTPAddr:                   ":8080",
		DefaultShiftMinutes:        480,
		CompletionThresholdPercent: 100,
		GeofenceBypassWhenMissing:  false,
		StrictModeIgnoresAccuracy:  true,
	}
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}
