package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/fleetpulse-io/fleetpulse/cmd/fpulse-bot/app"
)

func main() {
	if err := app.NewApp().Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
