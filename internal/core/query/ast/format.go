package ast

import "strings"

// Format renders an expression back to query-language text.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Ident:
		sb.WriteString(n.Name)
	case *FieldAccess:
		sb.WriteString(n.Base)
		if n.Join == LeftJoin {
			sb.WriteString("=")
		}
		sb.WriteString(".")
		sb.WriteString(n.Member)
	case *Call:
		sb.WriteString(n.Name)
		sb.WriteString("(")
		formatList(sb, n.Args)
		sb.WriteString(")")
	case *Literal:
		sb.WriteString(n.Raw)
	case *HostParam:
		sb.WriteString(":")
		sb.WriteString(n.Name)
	case *RawValue:
		sb.WriteString("`" + n.SQL + "`")
	case *Cast:
		format(sb, n.Expr)
		sb.WriteString(" as ")
		if n.Quoted {
			sb.WriteString(`"` + n.Alias + `"`)
		} else {
			sb.WriteString(n.Alias)
		}
	case *Binary:
		format(sb, n.LHS)
		sb.WriteString(" " + string(n.Op) + " ")
		format(sb, n.RHS)
	case *Unary:
		if n.Op == Not {
			sb.WriteString("!")
		} else {
			sb.WriteString("-")
		}
		format(sb, n.Expr)
	case *Paren:
		sb.WriteString("(")
		formatList(sb, n.Items)
		sb.WriteString(")")
	case *Case:
		sb.WriteString("case ")
		if n.Switch != nil {
			format(sb, n.Switch)
			sb.WriteString(" ")
		}
		sb.WriteString("{ ")
		for i, arm := range n.Arms {
			if i > 0 {
				sb.WriteString(", ")
			}
			if arm.When == nil {
				sb.WriteString("_")
			} else {
				format(sb, arm.When)
			}
			sb.WriteString(" => ")
			format(sb, arm.Then)
		}
		sb.WriteString(" }")
	case *SubSelect:
		sb.WriteString(n.Func)
		sb.WriteString("(select ")
		sb.WriteString(n.Select.Target.Entity)
		sb.WriteString(" ...)")
	}
}

func formatList(sb *strings.Builder, items []Expr) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, item)
	}
}
