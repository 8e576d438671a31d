package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"resume-agent/internal/config"
	"resume-agent/internal/service"
)

// Emite un bearer token para /api firmado con API_JWT_SECRET.
func main() {
	client := flag.String("client", "frontend", "subject del token")
	ttl := flag.Duration("ttl", 24*time.Hour, "vigencia del token")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.APIJWTSecret == "" {
		log.Fatal("API_JWT_SECRET not configured")
	}

	token, err := service.NewJWTService(cfg.APIJWTSecret, *ttl).Issue(*client)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
