package main

import (
	"log"

	"sms-dispatch-gateway/internal/config"
	"sms-dispatch-gateway/internal/store/postgres"
)

func main() {
	conf, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log.Println("running migrations...")
	if err := postgres.Migrate(conf.DatabaseURL); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("migration complete")
}
