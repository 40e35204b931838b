package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/fleetpulse-io/fleetpulse/cmd/fpulsectl/app"
)

func main() {
	if err := app.NewCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
