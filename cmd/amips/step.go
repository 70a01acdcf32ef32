package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/config"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/image"
)

var stepCount uint64

var stepCmd = &cobra.Command{
	Use:   "step <image>",
	Short: "Single-step an amips binary image, printing a pipeline snapshot each cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  doStep,
}

func init() {
	stepCmd.Flags().Uint64VarP(&stepCount, "count", "n", 10, "number of cycles to step")
}

func doStep(cmd *cobra.Command, args []string) error {
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
	machine := cfg.Build(log)
	loader := &image.Loader{Log: log}
	loader.Install(img, machine.Memory, machine.State)

	machine.Pipeline.Hub.Subscribe(func(s mips.PipelineSnapshot) {
		fmt.Printf("cycle=%-5d pc=0x%08x  IF=%-8s ID=%-8s EX=%-8s WB=%-8s  stalls=%d (load-use=%d structural=%d) bubbles=%d flushes=%d\n",
			s.Cycle, s.PC, stageLabel(s.IFID), stageLabel(s.IDEX), stageLabel(s.EXMEM), stageLabel(s.MEMWB),
			s.Statistics.StallCount, s.Statistics.LoadUseStalls, s.Statistics.StructuralStalls,
			s.Statistics.BubbleCount, s.Statistics.FlushCount)
		if s.LastException != "" {
			fmt.Printf("  exception: %s\n", s.LastException)
		}
	})

	for i := uint64(0); i < stepCount; i++ {
		if machine.Pipeline.Halted || machine.State.Terminated() {
			fmt.Println("halted")
			break
		}
		machine.Pipeline.Step()
	}
	return nil
}

func stageLabel(s mips.StageSnapshot) string {
	if !s.Valid {
		return "-"
	}
	if s.Bubble {
		return "(bubble)"
	}
	if s.Name == "" {
		return fmt.Sprintf("0x%08x", s.PC)
	}
	return s.Name
}
