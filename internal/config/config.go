package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuracion del servicio. Los campos required
// hacen fallar el arranque si faltan.
type Config struct {
	HTTPPort           string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	JWTSecret          string `env:"JWT_SECRET,required"`
	LLMAPIKey          string `env:"LLM_API_KEY,required"`
	LLMBaseURL         string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel           string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeoutSeconds  int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"30"`
	ToolServerURL      string `env:"TOOL_SERVER_URL" envDefault:"http://localhost:3000"`
	ToolTimeoutSeconds int    `env:"TOOL_TIMEOUT_SECONDS" envDefault:"10"`
	HistoryWindow      int    `env:"HISTORY_WINDOW" envDefault:"20"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	RateLimitWindowSec int    `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMax       int    `env:"RATE_LIMIT_MAX" envDefault:"30"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
