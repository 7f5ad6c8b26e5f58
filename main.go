package main

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/cmd"
)

// main sets up logging based on the DEBUG_GCONNECT environment variable,
// starts a goroutine to listen for interrupt signals, and executes the main
// command.
func main() {
	if os.Getenv("DEBUG_GCONNECT") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	go listenForInterrupt(stopChan)

	cmd.Execute()
}

// listenForInterrupt exits the program when an interrupt signal arrives.
func listenForInterrupt(stopChan chan os.Signal) {
	<-stopChan
	log.Fatal().Msg("Interrupt signal received. Exiting...")
}
