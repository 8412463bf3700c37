package main

import (
	"log"
	"os"

	"liftlog/cmd/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
