package main

import (
	"log"

	"github.com/fusionswap/settlement-engine/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		log.Fatalf("failed to execute root command: %v", err)
	}
}
