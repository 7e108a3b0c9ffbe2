package QE

import (
	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Expr is a node of a scalar expression tree.
type Expr interface {
	exprNode()
}

// Literal is a constant value.
type Literal struct {
	Value ext.Value
}

// BinaryExpr applies a registered operator.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// CallExpr invokes a registered function.
type CallExpr struct {
	Name string
	Args []Expr
}

func (*Literal) exprNode()    {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}

// Eval evaluates expr bottom-up.
func (e *ExprEvaluator) Eval(expr Expr) (ext.Value, error) {
	switch x := expr.(type) {
	case nil:
		return ext.Null(), nil
	case *Literal:
		return x.Value, nil
	case *BinaryExpr:
		l, err := e.Eval(x.Left)
		if err != nil {
			return ext.Value{}, err
		}
		r, err := e.Eval(x.Right)
		if err != nil {
			return ext.Value{}, err
		}
		return e.BinaryOp(x.Op, l, r)
	case *CallExpr:
		args := make([]ext.Value, len(x.Args))
		for i, a := range x.Args {
			v, err := e.Eval(a)
			if err != nil {
				return ext.Value{}, err
			}
			args[i] = v
		}
		return e.Call(x.Name, args...)
	default:
		return ext.Value{}, errors.AssertionFailedf("unknown expression node %T", expr)
	}
}

// TypeCheck computes the result type of expr without evaluating it.
func (e *ExprEvaluator) TypeCheck(expr Expr) (ext.DataType, error) {
	switch x := expr.(type) {
	case nil:
		return ext.TypeNull, nil
	case *Literal:
		return e.cat.TypeOf(x.Value)
	case *BinaryExpr:
		l, err := e.TypeCheck(x.Left)
		if err != nil {
			return ext.DataType{}, err
		}
		r, err := e.TypeCheck(x.Right)
		if err != nil {
			return ext.DataType{}, err
		}
		return e.BinaryOpType(x.Op, l, r)
	case *CallExpr:
		args := make([]ext.DataType, len(x.Args))
		for i, a := range x.Args {
			dt, err := e.TypeCheck(a)
			if err != nil {
				return ext.DataType{}, err
			}
			args[i] = dt
		}
		return e.CallType(x.Name, args...)
	default:
		return ext.DataType{}, errors.AssertionFailedf("unknown expression node %T", expr)
	}
}
