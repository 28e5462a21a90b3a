package javascript

import (
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/osfbuildersuite/standalone-linter/types"
)

var todoPattern = regexp.MustCompile(`(?i)(^|\W)TODO(\W|$)`)

// EmptyStatement reports stray semicolons. The empty clauses of a for header are not statements.
func EmptyStatement(n *sitter.Node, _ []byte) ([]types.Diagnostic, error) {
	if n.Type() != "empty_statement" {
		return nil, nil
	}
	if parent := n.Parent(); parent != nil && parent.Type() == "for_statement" {
		return nil, nil
	}
	return []types.Diagnostic{diagnostic(n, "Remove this empty statement.")}, nil
}

// TodoTag reports comments carrying a TODO tag.
func TodoTag(n *sitter.Node, content []byte) ([]types.Diagnostic, error) {
	if n.Type() != "comment" {
		return nil, nil
	}
	if !todoPattern.MatchString(n.Content(content)) {
		return nil, nil
	}
	return []types.Diagnostic{diagnostic(n, `Complete the task associated to this "TODO" comment.`)}, nil
}

// StrictEquality reports == and != unless one side is the null literal.
func StrictEquality(n *sitter.Node, _ []byte) ([]types.Diagnostic, error) {
	if n.Type() != "binary_expression" {
		return nil, nil
	}

	operator := n.ChildByFieldName("operator")
	if operator == nil {
		return nil, nil
	}

	op := operator.Type()
	if op != "==" && op != "!=" {
		return nil, nil
	}

	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if isNull(left) || isNull(right) {
		return nil, nil
	}

	return []types.Diagnostic{diagnostic(operator, fmt.Sprintf(`Replace "%s" with "%s=".`, op, op))}, nil
}

// Eval reports calls to eval.
func Eval(n *sitter.Node, content []byte) ([]types.Diagnostic, error) {
	if n.Type() != "call_expression" {
		return nil, nil
	}

	callee := n.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" || callee.Content(content) != "eval" {
		return nil, nil
	}

	return []types.Diagnostic{diagnostic(callee, "Make sure that this dynamic injection or execution of code is safe.")}, nil
}

// DebuggerStatement reports debugger statements.
func DebuggerStatement(n *sitter.Node, _ []byte) ([]types.Diagnostic, error) {
	if n.Type() != "debugger_statement" {
		return nil, nil
	}
	return []types.Diagnostic{diagnostic(keyword(n, "debugger"), "Remove this debugger statement.")}, nil
}

// ConsoleLogging reports console.* calls.
func ConsoleLogging(n *sitter.Node, content []byte) ([]types.Diagnostic, error) {
	if n.Type() != "call_expression" {
		return nil, nil
	}

	callee := n.ChildByFieldName("function")
	if callee == nil || callee.Type() != "member_expression" {
		return nil, nil
	}

	object := callee.ChildByFieldName("object")
	if object == nil || object.Type() != "identifier" || object.Content(content) != "console" {
		return nil, nil
	}

	return []types.Diagnostic{diagnostic(callee, "Remove this logging statement.")}, nil
}

// VarDeclaration reports var declarations.
func VarDeclaration(n *sitter.Node, _ []byte) ([]types.Diagnostic, error) {
	if n.Type() != "variable_declaration" {
		return nil, nil
	}
	return []types.Diagnostic{diagnostic(keyword(n, "var"), "Unexpected var, use let or const instead.")}, nil
}

func isNull(n *sitter.Node) bool {
	return n != nil && n.Type() == "null"
}

// keyword returns the first child token of type kw, or n itself.
func keyword(n *sitter.Node, kw string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == kw {
			return child
		}
	}
	return n
}

func diagnostic(n *sitter.Node, message string) types.Diagnostic {
	start, end := n.StartPoint(), n.EndPoint()
	return types.Diagnostic{
		StartLine:       int(start.Row) + 1,
		StartLineOffset: int(start.Column),
		EndLine:         int(end.Row) + 1,
		EndLineOffset:   int(end.Column),
		Message:         message,
	}
}
