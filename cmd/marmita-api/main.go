package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/thiagobertoloto1-max/marmita-api/cmd/marmita-api/app"
	"github.com/thiagobertoloto1-max/marmita-api/configs"
)

func main() {
	// Local development convenience; the file is absent in containers.
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	a, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	log.Printf("marmita-api (%s) listening on %s", env, cfg.App.HTTPAddr)
	if err := a.Router.Run(cfg.App.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
