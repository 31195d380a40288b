package main

import (
	"os"

	"loja_checkout/internal/cli"

	_ "github.com/joho/godotenv/autoload"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
