package main

import (
	"log"

	"ticket-ledger/cmd"
	_ "ticket-ledger/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
