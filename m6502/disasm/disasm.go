package disasm

import (
	"fmt"

	"github.com/valerio/go-m6502/m6502/bit"
	"github.com/valerio/go-m6502/m6502/cpu"
)

// Reader is the minimal memory view a disassembler needs.
type Reader interface {
	Read(address uint16) byte
}

// Line represents a single disassembled instruction.
type Line struct {
	Address     uint16
	Instruction string
	Length      int
}

func (l Line) String() string {
	return fmt.Sprintf("%04X  %s", l.Address, l.Instruction)
}

// DisassembleAt disassembles the instruction at the given program counter.
// Bytes with no opcode record render as raw data.
func DisassembleAt(pc uint16, mem Reader) Line {
	opcode := mem.Read(pc)
	info, ok := cpu.Lookup(opcode)
	if !ok {
		return Line{
			Address:     pc,
			Instruction: fmt.Sprintf(".byte $%02X", opcode),
			Length:      1,
		}
	}

	var operand string
	switch info.Size {
	case 2:
		operand = formatOperand8(info.Mode, pc, mem.Read(pc+1))
	case 3:
		operand = formatOperand16(info.Mode, bit.Word(mem.Read(pc+2), mem.Read(pc+1)))
	}

	instruction := info.Mnemonic
	if operand != "" {
		instruction += " " + operand
	}
	return Line{
		Address:     pc,
		Instruction: instruction,
		Length:      info.Size,
	}
}

// DisassembleRange disassembles count instructions starting from startPC.
func DisassembleRange(startPC uint16, count int, mem Reader) []Line {
	lines := make([]Line, 0, count)
	pc := startPC
	for i := 0; i < count; i++ {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		next := uint32(pc) + uint32(line.Length)
		if next > 0xFFFF {
			break
		}
		pc = uint16(next)
	}
	return lines
}

func formatOperand8(mode cpu.Mode, pc uint16, value byte) string {
	switch mode {
	case cpu.Immediate:
		return fmt.Sprintf("#$%02X", value)
	case cpu.ZeroPage:
		return fmt.Sprintf("$%02X", value)
	case cpu.ZeroPageX:
		return fmt.Sprintf("$%02X,X", value)
	case cpu.ZeroPageY:
		return fmt.Sprintf("$%02X,Y", value)
	case cpu.IndirectX:
		return fmt.Sprintf("($%02X,X)", value)
	case cpu.IndirectY:
		return fmt.Sprintf("($%02X),Y", value)
	case cpu.Relative:
		// resolve the branch target for readability
		target := pc + 2 + uint16(int8(value))
		return fmt.Sprintf("$%04X", target)
	}
	return fmt.Sprintf("$%02X", value)
}

func formatOperand16(mode cpu.Mode, value uint16) string {
	switch mode {
	case cpu.Absolute:
		return fmt.Sprintf("$%04X", value)
	case cpu.AbsoluteX:
		return fmt.Sprintf("$%04X,X", value)
	case cpu.AbsoluteY:
		return fmt.Sprintf("$%04X,Y", value)
	case cpu.Indirect:
		return fmt.Sprintf("($%04X)", value)
	}
	return fmt.Sprintf("$%04X", value)
}
