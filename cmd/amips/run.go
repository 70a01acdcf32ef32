package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/config"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/image"
)

var (
	runForwarding bool
	runCaches     bool
	runMaxCycles  uint64
)

var runCmd = &cobra.Command{
	Use:   "run <image>",
	Short: "Load and run an amips binary image to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  doRun,
}

func init() {
	runCmd.Flags().BoolVar(&runForwarding, "forwarding", true, "enable operand forwarding in the pipeline")
	runCmd.Flags().BoolVar(&runCaches, "caches", false, "enable instruction/data caches")
	runCmd.Flags().Uint64Var(&runMaxCycles, "max-cycles", 0, "stop after this many cycles (0 = unbounded)")
}

func doRun(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "opening image %s", args[0])
	}
	defer f.Close()

	img, err := image.Load(f)
	if err != nil {
		return errors.Wrap(err, "loading binary image")
	}

	cfg := config.Default()
	cfg.Forwarding = runForwarding
	cfg.EnableCaches = runCaches
	cfg.MaxCycles = runMaxCycles

	machine := cfg.Build(log)
	loader := &image.Loader{Log: log}
	loader.Install(img, machine.Memory, machine.State)

	machine.Pipeline.Run(cfg.MaxCycles)

	rt := machine.Pipeline.Runtime()
	fmt.Printf("\nhalted at pc=0x%08x after %d cycles, %d instructions retired\n",
		rt.PC, machine.Pipeline.CycleCount, machine.Pipeline.InstructionCount)
	if machine.Pipeline.LastException != nil {
		fmt.Printf("last exception: %s\n", machine.Pipeline.LastException.Error())
	}
	return nil
}
