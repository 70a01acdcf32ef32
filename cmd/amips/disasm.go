package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
	"github.com/MuhammadTahaBinZaeem/amips/internal/mips/image"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <image>",
	Short: "Disassemble the text segment of an amips binary image",
	Args:  cobra.ExactArgs(1),
	RunE:  doDisasm,
}

func doDisasm(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "opening image %s", args[0])
	}
	defer f.Close()

	img, err := image.Load(f)
	if err != nil {
		return errors.Wrap(err, "loading binary image")
	}

	for i := 0; i+4 <= len(img.Text); i += 4 {
		pc := img.TextBase + uint32(i)
		word := binary.BigEndian.Uint32(img.Text[i : i+4])
		op, err := mips.Decode(word, pc)
		if err != nil {
			fmt.Printf("0x%08x: 0x%08x  <invalid>\n", pc, word)
			continue
		}
		fmt.Printf("0x%08x: 0x%08x  %s\n", pc, word, op.Name)
	}
	return nil
}
