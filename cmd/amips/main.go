// Command amips runs, single-steps, or disassembles amips binary images.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("amips failed")
		os.Exit(1)
	}
}
