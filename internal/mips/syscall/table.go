// Package syscall dispatches the trap codes a simulated program requests
// via the `syscall` instruction (conventionally passed in $v0), following
// the MARS/SPIM syscall numbering spec.md §6 adopts.
package syscall

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
)

const (
	vZero = 2
	aZero = 4
	aOne  = 5
	aTwo  = 6
	fOne2 = 12
)

// DialogHandler services the interactive codes (50+): confirmation and
// input dialogs. Table.Dialogs is nil unless the host sets it, and with
// no handler set the dialog codes return an error; tests supply a
// scripted one.
type DialogHandler interface {
	Confirm(message string) bool
	InputString(message string) string
	InputInt(message string) int32
}

// Table dispatches syscall codes against a machine's State/Memory.
type Table struct {
	In      *bufio.Reader
	Out     io.Writer
	Dialogs DialogHandler
	Rand    *rand.Rand
	files   map[int32]*os.File
	nextFD  int32
}

// NewTable builds a syscall table reading from in and writing to out.
func NewTable(in io.Reader, out io.Writer) *Table {
	return &Table{
		In:     bufio.NewReader(in),
		Out:    out,
		Rand:   rand.New(rand.NewSource(1)),
		files:  make(map[int32]*os.File),
		nextFD: 3,
	}
}

func readCString(mem *mips.Memory, addr uint32) (string, error) {
	var buf []byte
	for i := uint32(0); ; i++ {
		b, err := mem.ReadByte(addr+i, mips.AccessRead)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func writeCString(mem *mips.Memory, addr uint32, s string, maxLen int) error {
	n := len(s)
	if n > maxLen-1 {
		n = maxLen - 1
	}
	for i := 0; i < n; i++ {
		if err := mem.WriteByte(addr+uint32(i), s[i], mips.AccessWrite); err != nil {
			return err
		}
	}
	return mem.WriteByte(addr+uint32(n), 0, mips.AccessWrite)
}

// Dispatch executes the syscall identified by code (the value $v0 held
// when `syscall` executed), reading/writing argument registers $a0-$a2 and
// the return register $v0 as MARS convention dictates. It returns true if
// the program requested termination.
func (t *Table) Dispatch(code uint32, s *mips.State, mem *mips.Memory) (exit bool, err error) {
	switch code {
	case 1: // print_int
		fmt.Fprintf(t.Out, "%d", int32(s.GetReg(aZero)))
	case 2: // print_float
		fmt.Fprintf(t.Out, "%g", s.FPRSingle(12))
	case 3: // print_double
		fmt.Fprintf(t.Out, "%g", s.FPRDouble(12))
	case 4: // print_string
		str, e := readCString(mem, s.GetReg(aZero))
		if e != nil {
			return false, e
		}
		fmt.Fprint(t.Out, str)
	case 5: // read_int
		var v int32
		fmt.Fscan(t.In, &v)
		s.SetReg(vZero, uint32(v))
	case 6, 7: // read_float / read_double
		var v float64
		fmt.Fscan(t.In, &v)
		if code == 7 {
			s.SetFPRDouble(0, v)
		} else {
			s.SetFPRSingle(0, float32(v))
		}
	case 8: // read_string
		line, _ := t.In.ReadString('\n')
		if e := writeCString(mem, s.GetReg(aZero), line, int(s.GetReg(aOne))); e != nil {
			return false, e
		}
	case 9: // sbrk
		s.SetReg(vZero, mem.Map().Sbrk(s.GetReg(aZero)))
	case 10: // exit
		return true, nil
	case 11: // print_char
		fmt.Fprintf(t.Out, "%c", byte(s.GetReg(aZero)))
	case 12: // read_char
		b, _ := t.In.ReadByte()
		s.SetReg(vZero, uint32(b))
	case 13: // open
		name, e := readCString(mem, s.GetReg(aZero))
		if e != nil {
			return false, e
		}
		f, e := os.OpenFile(name, int(s.GetReg(aOne)), 0644)
		if e != nil {
			s.SetReg(vZero, uint32(0xFFFFFFFF))
			break
		}
		fd := t.nextFD
		t.nextFD++
		t.files[fd] = f
		s.SetReg(vZero, uint32(fd))
	case 14: // read file
		fd := int32(s.GetReg(aZero))
		f, ok := t.files[fd]
		if !ok {
			s.SetReg(vZero, uint32(0xFFFFFFFF))
			break
		}
		buf := make([]byte, s.GetReg(aTwo))
		n, _ := f.Read(buf)
		for i := 0; i < n; i++ {
			if e := mem.WriteByte(s.GetReg(aOne)+uint32(i), buf[i], mips.AccessWrite); e != nil {
				return false, e
			}
		}
		s.SetReg(vZero, uint32(n))
	case 15: // write file
		fd := int32(s.GetReg(aZero))
		f, ok := t.files[fd]
		if !ok {
			s.SetReg(vZero, uint32(0xFFFFFFFF))
			break
		}
		buf := make([]byte, s.GetReg(aTwo))
		for i := range buf {
			b, e := mem.ReadByte(s.GetReg(aOne)+uint32(i), mips.AccessRead)
			if e != nil {
				return false, e
			}
			buf[i] = b
		}
		n, _ := f.Write(buf)
		s.SetReg(vZero, uint32(n))
	case 16: // close file
		fd := int32(s.GetReg(aZero))
		if f, ok := t.files[fd]; ok {
			_ = f.Close()
			delete(t.files, fd)
		}
	case 17: // exit2
		return true, nil
	case 30: // system time (ms since epoch, split lo/hi)
		ms := uint64(time.Now().UnixMilli())
		s.SetReg(aZero, uint32(ms))
		s.SetReg(aOne, uint32(ms>>32))
	case 34: // print_hex_int
		fmt.Fprintf(t.Out, "0x%08x", s.GetReg(aZero))
	case 35: // print_bin_int
		fmt.Fprintf(t.Out, "%032b", s.GetReg(aZero))
	case 36: // print_unsigned_int
		fmt.Fprintf(t.Out, "%d", s.GetReg(aZero))
	case 40: // set random seed
		t.Rand = rand.New(rand.NewSource(int64(s.GetReg(aOne))))
	case 41: // rand int
		s.SetReg(aZero, t.Rand.Uint32())
	case 42: // rand int range
		bound := s.GetReg(aOne)
		if bound == 0 {
			bound = 1
		}
		s.SetReg(aZero, uint32(t.Rand.Int31n(int32(bound))))
	case 43: // rand float
		s.SetFPRSingle(0, t.Rand.Float32())
	case 44: // rand double
		s.SetFPRDouble(0, t.Rand.Float64())
	case 50, 51, 52, 53, 54, 55, 56, 57, 58, 59: // interactive dialogs
		return t.dispatchDialog(code, s, mem)
	case 61: // rand double, alias used by some toolchains
		s.SetFPRDouble(0, t.Rand.Float64())
	case 63: // current time in seconds
		s.SetReg(vZero, uint32(time.Now().Unix()))
	default:
		return false, fmt.Errorf("unimplemented syscall code %d", code)
	}
	return false, nil
}

func (t *Table) dispatchDialog(code uint32, s *mips.State, mem *mips.Memory) (bool, error) {
	if t.Dialogs == nil {
		return false, fmt.Errorf("no dialog handler configured for syscall %d", code)
	}
	msg, err := readCString(mem, s.GetReg(aZero))
	if err != nil {
		return false, err
	}
	switch code {
	case 50: // confirm dialog -> $a0: 0 yes, 1 no (cancel is not reported)
		if t.Dialogs.Confirm(msg) {
			s.SetReg(aZero, 0)
		} else {
			s.SetReg(aZero, 1)
		}
	case 51: // input dialog (int)
		s.SetReg(aZero, uint32(t.Dialogs.InputInt(msg)))
	case 52: // input dialog (string)
		str := t.Dialogs.InputString(msg)
		if err := writeCString(mem, s.GetReg(aOne), str, int(s.GetReg(aTwo))); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unimplemented dialog syscall %d", code)
	}
	return false, nil
}
