package main

import (
	"os"

	"github.com/yuruhealth/yuruhealth/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
