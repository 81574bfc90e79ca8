package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             string
	MongoURI         string
	MongoDatabase    string
	RedisAddr        string
	RabbitURI        string
	RabbitExchange   string
	JWTSecret        string
	JWTExpiryHours   int
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPassword     string
	EmailFrom        string
	AllowedOrigins   []string
	AnswerRateLimit  int
	AnswerRateWindow int
}

func Load() *Config {
	expiry, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "168"))
	rateLimit, _ := strconv.Atoi(getEnv("ANSWER_RATE_LIMIT", "30"))
	rateWindow, _ := strconv.Atoi(getEnv("ANSWER_RATE_WINDOW_SECONDS", "60"))

	return &Config{
		Port:             getEnv("PORT", "5000"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DB", "trivia_service"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RabbitURI:        getEnv("RABBITMQ_URI", ""),
		RabbitExchange:   getEnv("RABBITMQ_EXCHANGE", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpiryHours:   expiry,
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASS", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@trivia.local"),
		AllowedOrigins:   []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
		AnswerRateLimit:  rateLimit,
		AnswerRateWindow: rateWindow,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
