package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/born-ml/miniflow/internal/config"
	"github.com/born-ml/miniflow/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source.
// The decoder fills omitted optional expression fields with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// referenceName returns the node name referenced by a bare traversal such
// as `l1`.
func referenceName(expr hcl.Expression) (string, error) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return "", fmt.Errorf("expected a node reference: %w", diags)
	}
	if len(traversal) != 1 {
		return "", fmt.Errorf("%s: a node reference is a bare name", expr.Range())
	}
	return traversal.RootName(), nil
}

// referenceList returns the names referenced by a list such as `[x, y]`.
func referenceList(expr hcl.Expression) ([]string, error) {
	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("expected a list of node references: %w", diags)
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%s: empty reference list", expr.Range())
	}

	names := make([]string, len(exprs))
	for i, e := range exprs {
		name, err := referenceName(e)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

var (
	vectorType = cty.List(cty.Number)
	matrixType = cty.List(cty.List(cty.Number))
)

// literalFromExpr evaluates a constant expression into a tensor literal.
// Numbers are scalars, lists of numbers vectors and lists of equal-length
// lists of numbers matrices.
func literalFromExpr(expr hcl.Expression) (*config.Literal, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid value: %w", diags)
	}
	return literalFromCty(val)
}

func literalFromCty(val cty.Value) (*config.Literal, error) {
	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be a known, non-null constant")
	}

	if val.Type() == cty.Number {
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return nil, err
		}
		return &config.Literal{Data: []float64{f}}, nil
	}

	if vec, err := convert.Convert(val, vectorType); err == nil {
		var data []float64
		if err := gocty.FromCtyValue(vec, &data); err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty value")
		}
		return &config.Literal{Shape: []int{len(data)}, Data: data}, nil
	}

	m, err := convert.Convert(val, matrixType)
	if err != nil {
		return nil, fmt.Errorf("value of type %s is not a number, vector or matrix", val.Type().FriendlyName())
	}
	var rows [][]float64
	if err := gocty.FromCtyValue(m, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &config.Literal{Shape: []int{len(rows), cols}, Data: data}, nil
}
