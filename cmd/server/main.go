package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/deviceid/internal/app"
	"github.com/dmitrijs2005/deviceid/internal/buildinfo"
	"github.com/dmitrijs2005/deviceid/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	a.Run(ctx)

}
