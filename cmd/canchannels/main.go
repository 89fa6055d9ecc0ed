package main

import (
	"flag"
	"log"

	"github.com/Ryphtech/canchannels"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := canchannels.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	app, err := canchannels.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
