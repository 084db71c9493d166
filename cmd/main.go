package main

import (
	"os"

	"github.com/soundprediction/surveylens/cmd/surveylens"
)

func main() {
	if err := surveylens.Execute(); err != nil {
		os.Exit(1)
	}
}
