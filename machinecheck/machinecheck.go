// Package machinecheck implements M0xx machine-instruction operand
// checking (§7): per-instruction-family operand count and shape
// validation, stopping short of actual encoding (Non-goals exclude
// object-code emission). Grounded file-for-file on the teacher's
// encoder package, whose encodeDataProcessing*/encodeBranch/
// encodeMemory/encodeOther functions validate exactly these shapes
// immediately before turning them into machine words; this package
// keeps the validation and drops the word-building step.
package machinecheck

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// Format identifies a machine instruction's operand shape, the z/
// Architecture formats named in the Principles of Operation.
// Generalized from the teacher's per-encoder-function checks
// (encodeDataProcessingArithmetic's "Rd,Rn,op2" shape, encodeMemory's
// "Rd,addr" shape, encodeBranch's single-target shape) to the RR/RX/
// RS/SI/SS/RI vocabulary.
type Format int

const (
	FormatRR Format = iota // R1,R2
	FormatRX               // R1,D2(X2,B2)
	FormatRS               // R1,R3,D2(B2)
	FormatSI                // D1(B1),I2
	FormatSS                // D1(L,B1),D2(B2)
	FormatRI                // R1,I2
	FormatBranch            // M1,D2(X2,B2) or a bare target
)

// Instruction describes one mnemonic's expected operand shape.
type Instruction struct {
	Mnemonic string
	Format   Format
}

// Table is the set of mnemonics machinecheck knows how to validate.
// Representative rather than exhaustive: every z/Architecture format
// is covered by at least the common instructions an HLASM program
// actually writes; an unlisted mnemonic is not machine-checked here
// (it may still be a valid assembler/CA instruction handled upstream).
var Table = map[string]Instruction{
	"LR":  {"LR", FormatRR}, "LTR": {"LTR", FormatRR}, "AR": {"AR", FormatRR},
	"SR": {"SR", FormatRR}, "CR": {"CR", FormatRR}, "XR": {"XR", FormatRR},
	"NR": {"NR", FormatRR}, "OR": {"OR", FormatRR},

	"L": {"L", FormatRX}, "ST": {"ST", FormatRX}, "A": {"A", FormatRX},
	"S": {"S", FormatRX}, "C": {"C", FormatRX}, "LA": {"LA", FormatRX},
	"IC": {"IC", FormatRX}, "STC": {"STC", FormatRX}, "N": {"N", FormatRX},
	"O": {"O", FormatRX}, "X": {"X", FormatRX},

	"BCTR": {"BCTR", FormatRR},
	"BCT":  {"BCT", FormatRX},
	"BC":   {"BC", FormatBranch}, "B": {"B", FormatBranch}, "BAL": {"BAL", FormatBranch},

	"CLM": {"CLM", FormatRS}, "ICM": {"ICM", FormatRS}, "STM": {"STM", FormatRS}, "LM": {"LM", FormatRS},

	"TM": {"TM", FormatSI}, "MVI": {"MVI", FormatSI}, "CLI": {"CLI", FormatSI}, "NI": {"NI", FormatSI},

	"MVC": {"MVC", FormatSS}, "CLC": {"CLC", FormatSS}, "OC": {"OC", FormatSS}, "XC": {"XC", FormatSS},

	"AHI": {"AHI", FormatRI}, "LHI": {"LHI", FormatRI}, "CHI": {"CHI", FormatRI},
}

var (
	regRegister = regexp.MustCompile(`^(R?1[0-5]|R?[0-9])$`)
	// D(B), D(X,B) or D(L,B): displacement with one or two parenthesized
	// registers/length.
	regAddress = regexp.MustCompile(`^-?\d+\((\d{1,2})?(,\d{1,2})?\)$`)
	regImm     = regexp.MustCompile(`^-?\d+$`)
)

func splitOperands(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(text[start:]))
	return out
}

func isRegister(s string) bool { return regRegister.MatchString(strings.ToUpper(s)) }
func isAddress(s string) bool  { return regAddress.MatchString(s) }
func isImmediate(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil || regImm.MatchString(s)
}

// Check validates stmt's operand field against inst's expected shape,
// returning M0xx diagnostics for a wrong operand count or a shape that
// does not fit the instruction's format. An empty result does not mean
// the operands are semantically valid HLASM (symbol resolution is out
// of this package's concern); it means their textual shape matches the
// instruction format.
func Check(stmt *semantics.Statement, inst Instruction) []diag.Diagnostic {
	ops := splitOperands(stmt.Operands.RawText)
	if len(ops) == 1 && ops[0] == "" {
		ops = nil
	}

	want := wantCount(inst.Format)
	if len(ops) < want.min || (want.max >= 0 && len(ops) > want.max) {
		return []diag.Diagnostic{errf(stmt, diag.CodeOperandCount,
			"%s requires %s operand(s), got %d", inst.Mnemonic, want.describe(), len(ops))}
	}

	switch inst.Format {
	case FormatRR:
		return checkShapes(stmt, inst, ops, isRegister, isRegister)
	case FormatRX:
		return checkShapes(stmt, inst, ops, isRegister, isAddress)
	case FormatRS:
		return checkShapes(stmt, inst, ops, isRegister, isRegisterOrAddress, isAddressIfPresent(ops))
	case FormatSI:
		return checkShapes(stmt, inst, ops, isAddress, isImmediate)
	case FormatSS:
		return checkShapes(stmt, inst, ops, isAddress, isAddress)
	case FormatRI:
		return checkShapes(stmt, inst, ops, isRegister, isImmediate)
	case FormatBranch:
		return nil // mask/target shape is too varied (symbols, relative offsets) to textually validate here
	}
	return nil
}

func isRegisterOrAddress(s string) bool { return isRegister(s) || isAddress(s) }

// isAddressIfPresent builds a validator for RS's optional third operand
// (CLM/ICM's D2(B2); STM/LM's second operand is itself a register).
func isAddressIfPresent(ops []string) func(string) bool {
	return func(s string) bool {
		if len(ops) < 3 {
			return true
		}
		return isAddress(s) || isRegister(s)
	}
}

func checkShapes(stmt *semantics.Statement, inst Instruction, ops []string, checks ...func(string) bool) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for i, check := range checks {
		if i >= len(ops) {
			break
		}
		if !check(ops[i]) {
			diags = append(diags, errf(stmt, diag.CodeMalformedOperand,
				"%s: operand %d (%q) does not match the expected operand shape", inst.Mnemonic, i+1, ops[i]))
		}
	}
	return diags
}

type operandCount struct{ min, max int }

func (c operandCount) describe() string {
	if c.max < 0 {
		return strconv.Itoa(c.min) + "+"
	}
	if c.min == c.max {
		return strconv.Itoa(c.min)
	}
	return strconv.Itoa(c.min) + "-" + strconv.Itoa(c.max)
}

func wantCount(f Format) operandCount {
	switch f {
	case FormatRR:
		return operandCount{2, 2}
	case FormatRX:
		return operandCount{2, 2}
	case FormatRS:
		return operandCount{2, 3}
	case FormatSI:
		return operandCount{2, 2}
	case FormatSS:
		return operandCount{2, 2}
	case FormatRI:
		return operandCount{2, 2}
	case FormatBranch:
		return operandCount{1, 2}
	}
	return operandCount{0, -1}
}

func errf(stmt *semantics.Statement, code diag.Code, format string, args ...any) diag.Diagnostic {
	return diag.New(stmt.URI, stmt.Range, code, diag.SeverityError, format, args...)
}

// Delegate adapts Check into the processors.OrdinaryProcessor.Delegate
// signature, so the processing manager can wire machine-instruction
// checking in without the processors package importing machinecheck
// directly (it only knows the callback shape).
func Delegate(stmt *semantics.Statement) []diag.Diagnostic {
	inst, ok := Table[strings.ToUpper(stmt.Instruction.Text)]
	if !ok {
		return nil
	}
	return Check(stmt, inst)
}
