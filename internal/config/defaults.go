package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"addr":         ":8080",
			"cors_origins": []string{"*"},
		},
		"log": map[string]interface{}{
			"level": "info",
		},
		"store": map[string]interface{}{
			"path": "data/smart-tasks.db",
		},
		"owner": map[string]interface{}{
			"id": "default",
		},
		"auth": map[string]interface{}{
			"mode":         "none",
			"api_key":      "",
			"bearer_token": "",
		},
		"ratelimit": map[string]interface{}{
			"rps":   0.0, // 0 disables rate limiting
			"burst": 0,
		},
		"reminder": map[string]interface{}{
			"interval_seconds":     60,
			"scan_timeout_seconds": 55, // keep one scan under the period
			"recipients":           []string{},
		},
		"twilio": map[string]interface{}{
			"account_sid": "",
			"auth_token":  "",
			"from_number": "",
		},
		"telemetry": map[string]interface{}{
			"enabled":       false,
			"otlp_endpoint": "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
