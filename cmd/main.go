package main

import (
	"log"

	"github.com/openportal/subscribe-notifier/cmd/notifier"
	"github.com/openportal/subscribe-notifier/internal/adapters/config"

	_ "time/tzdata"
)

func main() {
	cfg := config.Get()
	app, err := notifier.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	if err := app.Start(); err != nil {
		log.Panic(err)
	}
}
