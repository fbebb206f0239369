package formula

import (
	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

type exprProgram struct {
	program *vm.Program
}

func compileExpr(source string) (program, error) {
	p, err := exprlang.Compile(source, exprlang.Env(map[string]any{}), exprlang.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return exprProgram{program: p}, nil
}

func (p exprProgram) run(env map[string]any) (any, error) {
	return exprlang.Run(p.program, env)
}

// inferExprDependencies collects free identifiers. Function callees and
// let-bound names are not dependencies.
func inferExprDependencies(source string) ([]string, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	v := &identCollector{bound: map[string]bool{}, callees: map[*ast.IdentifierNode]bool{}}
	ast.Walk(&tree.Node, v)

	deps := make([]string, 0, len(v.idents))
	for _, id := range v.idents {
		if v.callees[id] || v.bound[id.Value] {
			continue
		}
		deps = append(deps, id.Value)
	}
	return deps, nil
}

type identCollector struct {
	idents  []*ast.IdentifierNode
	bound   map[string]bool
	callees map[*ast.IdentifierNode]bool
}

func (c *identCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.idents = append(c.idents, n)
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[id] = true
		}
	case *ast.VariableDeclaratorNode:
		c.bound[n.Name] = true
	}
}
