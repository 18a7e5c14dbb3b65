// Command garage-ops serves the garage API and runs the maintenance analytics
// from the command line.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("garage-ops failed")
		os.Exit(1)
	}
}
