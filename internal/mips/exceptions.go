package mips

import "fmt"

// AccessKind identifies the kind of memory access that faulted, per
// spec.md §4.7.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessExecute
)

func (a AccessKind) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// CPUError is satisfied by every member of the exception taxonomy in
// spec.md §4.7. FaultPC reports the faulting instruction's program counter,
// or 0 if it has not yet been attached by normalizeCpuException.
type CPUError interface {
	error
	FaultPC() uint32
}

// InvalidInstructionError is raised by the decoder for unknown or reserved
// encodings.
type InvalidInstructionError struct {
	Instruction uint32
	PC          uint32
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction 0x%08x at pc=0x%08x", e.Instruction, e.PC)
}
func (e *InvalidInstructionError) FaultPC() uint32 { return e.PC }

// ArithmeticOverflowError is raised by checked add/sub/addi.
type ArithmeticOverflowError struct {
	PC uint32
}

func (e *ArithmeticOverflowError) Error() string {
	return fmt.Sprintf("arithmetic overflow at pc=0x%08x", e.PC)
}
func (e *ArithmeticOverflowError) FaultPC() uint32 { return e.PC }

// AddressError is raised for misaligned accesses and invalid fetch
// addresses.
type AddressError struct {
	Address uint32
	Access  AccessKind
	PC      uint32
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address error: %s access to 0x%08x at pc=0x%08x", e.Access, e.Address, e.PC)
}
func (e *AddressError) FaultPC() uint32 { return e.PC }

// MemoryAccessException wraps backing-store faults (e.g. device or
// out-of-range access) uniformly with address/access kind.
type MemoryAccessException struct {
	Address uint32
	Access  AccessKind
	PC      uint32
	Reason  string
}

func (e *MemoryAccessException) Error() string {
	return fmt.Sprintf("memory access exception: %s 0x%08x at pc=0x%08x: %s", e.Access, e.Address, e.PC, e.Reason)
}
func (e *MemoryAccessException) FaultPC() uint32 { return e.PC }

// PrivilegeViolation is raised when user mode touches ktext/kdata/mmio, or
// the TLB denies the access.
type PrivilegeViolation struct {
	Address uint32
	Access  AccessKind
	PC      uint32
}

func (e *PrivilegeViolation) Error() string {
	return fmt.Sprintf("privilege violation: %s access to 0x%08x at pc=0x%08x", e.Access, e.Address, e.PC)
}
func (e *PrivilegeViolation) FaultPC() uint32 { return e.PC }

// SyscallException carries the v0 snapshot at the point `syscall` executed.
type SyscallException struct {
	Code uint32
	PC   uint32
}

func (e *SyscallException) Error() string {
	return fmt.Sprintf("syscall %d at pc=0x%08x", e.Code, e.PC)
}
func (e *SyscallException) FaultPC() uint32 { return e.PC }

// TrapException is raised by teq/tne and family.
type TrapException struct {
	Name string
	PC   uint32
}

func (e *TrapException) Error() string {
	return fmt.Sprintf("trap %s at pc=0x%08x", e.Name, e.PC)
}
func (e *TrapException) FaultPC() uint32 { return e.PC }

// RangeError is raised by bitfield ops (dext/dins) and misuse of COP1
// doubleword accesses that violate their width/alignment constraints.
type RangeError struct {
	Message string
	PC      uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error at pc=0x%08x: %s", e.PC, e.Message)
}
func (e *RangeError) FaultPC() uint32 { return e.PC }

// CpuException is the normalized wrapper handed back to the caller of
// Pipeline.Step when the interrupt controller could not service an
// execution fault itself.
type CpuException struct {
	Inner CPUError
}

func (e *CpuException) Error() string { return e.Inner.Error() }
func (e *CpuException) Unwrap() error { return e.Inner }
func (e *CpuException) FaultPC() uint32 {
	return e.Inner.FaultPC()
}

// NormalizeCpuException attaches pc to errors that don't carry one yet and
// wraps bare AddressErrors for uniform surfacing as MemoryAccessException,
// per spec.md §4.7.
func NormalizeCpuException(err error, pc uint32) *CpuException {
	switch e := err.(type) {
	case *AddressError:
		if e.PC == 0 {
			e.PC = pc
		}
		return &CpuException{Inner: &MemoryAccessException{
			Address: e.Address,
			Access:  e.Access,
			PC:      e.PC,
			Reason:  "unaligned access",
		}}
	case *PrivilegeViolation:
		if e.PC == 0 {
			e.PC = pc
		}
		return &CpuException{Inner: e}
	case *MemoryAccessException:
		if e.PC == 0 {
			e.PC = pc
		}
		return &CpuException{Inner: e}
	case CPUError:
		return &CpuException{Inner: e}
	default:
		return &CpuException{Inner: &MemoryAccessException{PC: pc, Reason: err.Error()}}
	}
}
