package main

import (
	"os"
	_ "time/tzdata"

	"gw2webhooks/internal/app"
	"gw2webhooks/internal/config"
)

func main() {
	os.Exit(app.Main(config.MATCHES, os.Args[1:], os.Environ()))
}
