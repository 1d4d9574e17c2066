package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ZodExpr renders the Zod validator expression for a type node. The walk is
// a pure function of the node value, so structurally equal nodes always
// produce byte-identical expressions.
//
// Unknown shapes render as z.any(); references render as lazily bound schema
// constants so two named schemas may reference each other.
func ZodExpr(n *TypeNode) string {
	if n == nil || !n.Kind.IsValid() {
		return "z.any()"
	}

	switch n.Kind {
	case KindReference:
		return fmt.Sprintf("z.lazy(() => %sSchema)", n.Ref)
	case KindString:
		return zodString(n)
	case KindInteger:
		return zodNumeric(n, "z.number().int()")
	case KindNumber:
		return zodNumeric(n, "z.number()")
	case KindBoolean:
		return "z.boolean()"
	case KindNull:
		return "z.null()"
	case KindArray:
		return zodArray(n)
	case KindObject:
		return zodObject(n)
	default:
		return "z.any()"
	}
}

func zodString(n *TypeNode) string {
	expr := "z.string()"
	switch n.Format {
	case "uuid":
		expr += ".uuid()"
	case "email":
		expr += ".email()"
	case "date", "date-time":
		expr += ".datetime()"
	case "uri", "url":
		expr += ".url()"
	}
	if n.MinLength != nil {
		expr += fmt.Sprintf(".min(%d)", *n.MinLength)
	}
	if n.MaxLength != nil {
		expr += fmt.Sprintf(".max(%d)", *n.MaxLength)
	}
	if n.Pattern != "" {
		expr += fmt.Sprintf(".regex(new RegExp(%q))", n.Pattern)
	}
	return expr
}

func zodNumeric(n *TypeNode, base string) string {
	expr := base
	if n.Minimum != nil {
		expr += fmt.Sprintf(".min(%s)", formatNumber(*n.Minimum))
	}
	if n.Maximum != nil {
		expr += fmt.Sprintf(".max(%s)", formatNumber(*n.Maximum))
	}
	return expr
}

func zodArray(n *TypeNode) string {
	items := n.Items
	if items == nil {
		// An array without a declared element shape defaults to strings.
		items = String()
	}
	expr := fmt.Sprintf("z.array(%s)", ZodExpr(items))
	if n.MinItems != nil {
		expr += fmt.Sprintf(".min(%d)", *n.MinItems)
	}
	if n.MaxItems != nil {
		expr += fmt.Sprintf(".max(%d)", *n.MaxItems)
	}
	return expr
}

func zodObject(n *TypeNode) string {
	if len(n.Properties) == 0 {
		// No declared members: open key/value structure.
		return "z.record(z.any())"
	}

	parts := make([]string, 0, len(n.Properties))
	for _, p := range n.Properties {
		expr := ZodExpr(p.Node)
		if !n.IsRequired(p.Name) {
			expr += ".optional()"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", p.Name, expr))
	}
	return fmt.Sprintf("z.object({ %s })", strings.Join(parts, ", "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
