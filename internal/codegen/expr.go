package codegen

import (
	"tinygo.org/x/go-llvm"

	"github.com/clowder-lang/clowder/internal/ast"
	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/token"
)

// lowerExpression dispatches on the expression's dynamic type, returning
// the resulting IR value paired with its language-level Kind, and whether
// lowering succeeded (false once an error has already been reported for
// this expression).
func (c *Compiler) lowerExpression(expr ast.Expression) (typedValue, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return typedValue{Value: llvm.ConstInt(llvm.Int64Type(), uint64(e.Value), true), Kind: KInt}, true
	case *ast.FloatLit:
		return typedValue{Value: llvm.ConstFloat(llvm.DoubleType(), e.Value), Kind: KFloat}, true
	case *ast.BoolLit:
		v := uint64(0)
		if e.Value {
			v = 1
		}
		return typedValue{Value: llvm.ConstInt(llvm.Int1Type(), v, false), Kind: KBool}, true
	case *ast.StringLit:
		return typedValue{Value: c.heapString(decodeStringLiteral(e.Value)), Kind: KStr}, true
	case *ast.Ident:
		return c.lowerIdent(e)
	case *ast.Prefix:
		return c.lowerPrefix(e)
	case *ast.Infix:
		return c.lowerInfixExpr(e)
	case *ast.Call:
		return c.lowerCall(e)
	default:
		c.errs.Error(errors.Type, expr.Pos(), "internal error: unhandled expression %T", expr)
		return typedValue{}, false
	}
}

func (c *Compiler) lowerIdent(id *ast.Ident) (typedValue, bool) {
	entry, ok := c.curEnv.Lookup(id.Name)
	if !ok {
		c.errs.Error(errors.Name, id.Pos(), "undefined name %q", id.Name)
		return typedValue{}, false
	}
	slot, ok := entry.Value.(llvm.Value)
	if !ok {
		c.errs.Error(errors.Name, id.Pos(), "%q does not name a value", id.Name)
		return typedValue{}, false
	}
	kind, ok := entry.Type.(Kind)
	if !ok {
		c.errs.Error(errors.Name, id.Pos(), "%q does not name a value", id.Name)
		return typedValue{}, false
	}
	return typedValue{Value: c.builder.CreateLoad(slot, id.Name), Kind: kind}, true
}

func (c *Compiler) lowerPrefix(p *ast.Prefix) (typedValue, bool) {
	rhs, ok := c.lowerExpression(p.RHS)
	if !ok {
		return typedValue{}, false
	}

	switch p.Op {
	case "-":
		switch rhs.Kind {
		case KInt:
			neg := llvm.ConstInt(llvm.Int64Type(), ^uint64(0), true) // -1
			return typedValue{Value: c.builder.CreateMul(rhs.Value, neg, ""), Kind: KInt}, true
		case KFloat:
			neg := llvm.ConstFloat(llvm.DoubleType(), -1)
			return typedValue{Value: c.builder.CreateFMul(rhs.Value, neg, ""), Kind: KFloat}, true
		default:
			c.errs.Error(errors.Type, p.Pos(), "unary '-' is not defined for %s", rhs.Kind)
			return typedValue{}, false
		}
	case "not":
		switch rhs.Kind {
		case KInt:
			zero := llvm.ConstInt(llvm.Int64Type(), 0, true)
			return typedValue{Value: c.builder.CreateICmp(llvm.IntEQ, rhs.Value, zero, ""), Kind: KBool}, true
		case KFloat:
			zero := llvm.ConstFloat(llvm.DoubleType(), 0)
			return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOEQ, rhs.Value, zero, ""), Kind: KBool}, true
		case KBool:
			zero := llvm.ConstInt(llvm.Int1Type(), 0, false)
			return typedValue{Value: c.builder.CreateICmp(llvm.IntEQ, rhs.Value, zero, ""), Kind: KBool}, true
		default:
			c.errs.Error(errors.Type, p.Pos(), "'not' is not defined for %s", rhs.Kind)
			return typedValue{}, false
		}
	default:
		c.errs.Error(errors.Type, p.Pos(), "unsupported unary operator %q", p.Op)
		return typedValue{}, false
	}
}

func (c *Compiler) lowerInfixExpr(inf *ast.Infix) (typedValue, bool) {
	lhs, ok := c.lowerExpression(inf.LHS)
	if !ok {
		return typedValue{}, false
	}
	rhs, ok := c.lowerExpression(inf.RHS)
	if !ok {
		return typedValue{}, false
	}
	return c.applyBinaryOp(inf.Op, lhs, rhs, inf.Pos())
}

// applyBinaryOp implements the numeric promotion table: int op int ->
// int (bool for comparisons); float op float -> float (bool for
// comparisons); mixed int/float promotes the int operand to float first;
// str + str concatenates; `**` always promotes both operands to f64 and
// always yields f64, regardless of operand types.
func (c *Compiler) applyBinaryOp(op string, lhs, rhs typedValue, pos token.Position) (typedValue, bool) {
	if op == "**" {
		if !isNumeric(lhs.Kind) || !isNumeric(rhs.Kind) {
			c.errs.Error(errors.Type, pos, "operator \"**\" is not defined for %s and %s", lhs.Kind, rhs.Kind)
			return typedValue{}, false
		}
		l := c.promoteToFloat(lhs)
		r := c.promoteToFloat(rhs)
		powFn := c.module.NamedFunction("pow")
		result := c.builder.CreateCall(powFn, []llvm.Value{l, r}, "")
		return typedValue{Value: result, Kind: KFloat}, true
	}

	if lhs.Kind == KStr && rhs.Kind == KStr {
		if op != "+" {
			c.errs.Error(errors.Type, pos, "operator %q is not defined for str", op)
			return typedValue{}, false
		}
		return c.strcat(lhs, rhs), true
	}

	if lhs.Kind == KInt && rhs.Kind == KInt {
		return c.intOp(op, lhs.Value, rhs.Value, pos)
	}

	if isNumeric(lhs.Kind) && isNumeric(rhs.Kind) {
		l := c.promoteToFloat(lhs)
		r := c.promoteToFloat(rhs)
		return c.floatOp(op, l, r, pos)
	}

	c.errs.Error(errors.Type, pos, "operator %q is not defined for %s and %s", op, lhs.Kind, rhs.Kind)
	return typedValue{}, false
}

func isNumeric(k Kind) bool {
	return k == KInt || k == KFloat
}

func (c *Compiler) promoteToFloat(tv typedValue) llvm.Value {
	if tv.Kind == KFloat {
		return tv.Value
	}
	return c.builder.CreateSIToFP(tv.Value, llvm.DoubleType(), "")
}

func (c *Compiler) intOp(op string, a, b llvm.Value, pos token.Position) (typedValue, bool) {
	switch op {
	case "+":
		return typedValue{Value: c.builder.CreateAdd(a, b, ""), Kind: KInt}, true
	case "-":
		return typedValue{Value: c.builder.CreateSub(a, b, ""), Kind: KInt}, true
	case "*":
		return typedValue{Value: c.builder.CreateMul(a, b, ""), Kind: KInt}, true
	case "/":
		return typedValue{Value: c.builder.CreateSDiv(a, b, ""), Kind: KInt}, true
	case "%":
		return typedValue{Value: c.builder.CreateSRem(a, b, ""), Kind: KInt}, true
	case "==":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntEQ, a, b, ""), Kind: KBool}, true
	case "!=":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntNE, a, b, ""), Kind: KBool}, true
	case "<":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntSLT, a, b, ""), Kind: KBool}, true
	case ">":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntSGT, a, b, ""), Kind: KBool}, true
	case "<=":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntSLE, a, b, ""), Kind: KBool}, true
	case ">=":
		return typedValue{Value: c.builder.CreateICmp(llvm.IntSGE, a, b, ""), Kind: KBool}, true
	default:
		c.errs.Error(errors.Type, pos, "unsupported operator %q for int", op)
		return typedValue{}, false
	}
}

func (c *Compiler) floatOp(op string, a, b llvm.Value, pos token.Position) (typedValue, bool) {
	switch op {
	case "+":
		return typedValue{Value: c.builder.CreateFAdd(a, b, ""), Kind: KFloat}, true
	case "-":
		return typedValue{Value: c.builder.CreateFSub(a, b, ""), Kind: KFloat}, true
	case "*":
		return typedValue{Value: c.builder.CreateFMul(a, b, ""), Kind: KFloat}, true
	case "/":
		return typedValue{Value: c.builder.CreateFDiv(a, b, ""), Kind: KFloat}, true
	case "%":
		return typedValue{Value: c.builder.CreateFRem(a, b, ""), Kind: KFloat}, true
	case "==":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOEQ, a, b, ""), Kind: KBool}, true
	case "!=":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatONE, a, b, ""), Kind: KBool}, true
	case "<":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOLT, a, b, ""), Kind: KBool}, true
	case ">":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOGT, a, b, ""), Kind: KBool}, true
	case "<=":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOLE, a, b, ""), Kind: KBool}, true
	case ">=":
		return typedValue{Value: c.builder.CreateFCmp(llvm.FloatOGE, a, b, ""), Kind: KBool}, true
	default:
		c.errs.Error(errors.Type, pos, "unsupported operator %q for float", op)
		return typedValue{}, false
	}
}
