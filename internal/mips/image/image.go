// Package image parses and loads the on-disk binary image format this
// simulator runs: a small flat container carrying the text and data
// segments plus an optional symbol table, grounded on the teacher's own
// debug/elf-aware disassembler loader but simplified to a single
// self-describing format rather than general ELF.
package image

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
)

// Magic identifies an amips binary image.
const Magic uint32 = 0x414D4950 // "AMIP"

const headerSize = 4 + 4 + 4*4 + 4

// Symbol is one entry of the optional trailing symbol table.
type Symbol struct {
	Name string
	Addr uint32
}

// BinaryImage is the fully-parsed on-disk program: header fields plus the
// raw text/data bytes and any symbols.
type BinaryImage struct {
	Version  uint32
	TextBase uint32
	DataBase uint32
	Entry    uint32
	Text     []byte
	Data     []byte
	Symbols  []Symbol
}

// Load parses the amips binary image format:
//
//	u32 magic
//	u32 version
//	u32 textBase
//	u32 dataBase
//	u32 entry
//	u32 textLen, then textLen bytes
//	u32 dataLen, then dataLen bytes
//	u32 symbolCount, then for each: u32 nameLen, nameLen bytes, u32 addr
func Load(r io.Reader) (*BinaryImage, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("not an amips image: magic 0x%08x", magic)
	}

	img := &BinaryImage{}
	fields := []*uint32{&img.Version, &img.TextBase, &img.DataBase, &img.Entry}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}

	text, err := readChunk(r)
	if err != nil {
		return nil, fmt.Errorf("reading text section: %w", err)
	}
	img.Text = text

	data, err := readChunk(r)
	if err != nil {
		return nil, fmt.Errorf("reading data section: %w", err)
	}
	img.Data = data

	var symCount uint32
	if err := binary.Read(r, binary.BigEndian, &symCount); err != nil {
		if err == io.EOF {
			return img, nil // symbol table is optional
		}
		return nil, fmt.Errorf("reading symbol count: %w", err)
	}
	for i := uint32(0); i < symCount; i++ {
		nameBytes, err := readChunk(r)
		if err != nil {
			return nil, fmt.Errorf("reading symbol %d name: %w", i, err)
		}
		var addr uint32
		if err := binary.Read(r, binary.BigEndian, &addr); err != nil {
			return nil, fmt.Errorf("reading symbol %d address: %w", i, err)
		}
		img.Symbols = append(img.Symbols, Symbol{Name: string(nameBytes), Addr: addr})
	}
	return img, nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Loader installs a BinaryImage's segments into a fresh Memory and points
// State.PC at its entry address.
type Loader struct {
	Log *logrus.Logger
}

// Install writes the image's text and data into mem and sets the initial
// PC, logging segment sizes for diagnostics.
func (l *Loader) Install(img *BinaryImage, mem *mips.Memory, state *mips.State) {
	mem.WriteBytes(img.TextBase, img.Text)
	mem.WriteBytes(img.DataBase, img.Data)
	state.PC = img.Entry
	if l.Log != nil {
		l.Log.WithFields(logrus.Fields{
			"textBase": fmt.Sprintf("0x%08x", img.TextBase),
			"textLen":  len(img.Text),
			"dataBase": fmt.Sprintf("0x%08x", img.DataBase),
			"dataLen":  len(img.Data),
			"entry":    fmt.Sprintf("0x%08x", img.Entry),
			"symbols":  len(img.Symbols),
		}).Info("loaded binary image")
	}
}
