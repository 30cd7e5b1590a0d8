package query

import (
	"fmt"
	"strings"
)

// Compile converts a predicate tree to a parameterized SQL WHERE fragment.
//
// Every subexpression is wrapped in parentheses, so the emitted fragment has
// no precedence ambiguity regardless of nesting. Values are always bound via
// ? placeholders. A nil predicate compiles to "1 = 1" (always true).
func Compile(p Predicate) (string, []any) {
	if p == nil {
		return "1 = 1", nil
	}

	switch pred := p.(type) {
	case Eq:
		return fmt.Sprintf("(%s = ?)", pred.Column), []any{pred.Value}
	case *Eq:
		return Compile(*pred)
	case And:
		return compileJunction(pred.Preds, " AND ")
	case *And:
		return Compile(*pred)
	case Or:
		return compileJunction(pred.Preds, " OR ")
	case *Or:
		return Compile(*pred)
	case IsNull:
		return fmt.Sprintf("(%s IS NULL)", pred.Column), nil
	case *IsNull:
		return Compile(*pred)
	case NotNull:
		return fmt.Sprintf("(%s IS NOT NULL)", pred.Column), nil
	case *NotNull:
		return Compile(*pred)
	default:
		// Unreachable: the interface is sealed to this package.
		panic(fmt.Sprintf("query: unsupported predicate type %T", p))
	}
}

func compileJunction(preds []Predicate, op string) (string, []any) {
	if len(preds) == 0 {
		return "1 = 1", nil // vacuous truth
	}

	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		sql, a := Compile(p)
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return "(" + strings.Join(parts, op) + ")", args
}
