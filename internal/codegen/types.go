package codegen

import "tinygo.org/x/go-llvm"

// Kind is the lowering engine's type handle: the closed set of IR-level
// types the language's TYPE keyword can denote.
type Kind int

const (
	KInt Kind = iota
	KFloat
	KBool
	KStr
	KVoid
)

func (k Kind) String() string {
	switch k {
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KBool:
		return "bool"
	case KStr:
		return "str"
	case KVoid:
		return "void"
	default:
		return "?"
	}
}

// kindFromTypeName maps the TYPE token's literal to a Kind.
func kindFromTypeName(name string) (Kind, bool) {
	switch name {
	case "int":
		return KInt, true
	case "float":
		return KFloat, true
	case "bool":
		return KBool, true
	case "str":
		return KStr, true
	case "void":
		return KVoid, true
	default:
		return 0, false
	}
}

// llvmType returns the concrete LLVM type for a Kind: i64 for int, double
// for float, i1 for bool, i8* for str, void for void.
func llvmType(k Kind) llvm.Type {
	switch k {
	case KInt:
		return llvm.Int64Type()
	case KFloat:
		return llvm.DoubleType()
	case KBool:
		return llvm.Int1Type()
	case KStr:
		return llvm.PointerType(llvm.Int8Type(), 0)
	default:
		return llvm.VoidType()
	}
}

// defaultValue returns the per-type default used when a Var has no
// initializer: 0, 0.0, false, or an empty heap string.
func (c *Compiler) defaultValue(k Kind) llvm.Value {
	switch k {
	case KInt:
		return llvm.ConstInt(llvm.Int64Type(), 0, true)
	case KFloat:
		return llvm.ConstFloat(llvm.DoubleType(), 0)
	case KBool:
		return llvm.ConstInt(llvm.Int1Type(), 0, false)
	case KStr:
		return c.heapString("")
	default:
		return llvm.Value{}
	}
}

// typedValue is an IR value paired with its language-level Kind.
type typedValue struct {
	Value llvm.Value
	Kind  Kind
}
