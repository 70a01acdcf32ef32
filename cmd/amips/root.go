package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	log     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "amips",
	Short: "A MIPS32 execution core: decode, pipeline, memory, in one binary",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, stepCmd, disasmCmd)
}
