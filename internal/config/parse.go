// Package config loads the user-scoped unrealpm configuration file using
// the HashiCorp HCL v2 library, the same parser/eval-context pattern the
// teacher uses for dex.hcl and package.hcl.
package config

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Parser wraps HCL parsing functionality and provides a reusable parser instance.
type Parser struct {
	parser *hclparse.Parser
}

// NewParser creates a new HCL parser instance.
func NewParser() *Parser {
	return &Parser{parser: hclparse.NewParser()}
}

// ParseFile parses an HCL file and returns the parsed file and any diagnostics.
func (p *Parser) ParseFile(filename string) (*hcl.File, hcl.Diagnostics) {
	return p.parser.ParseHCLFile(filename)
}

// DecodeBody decodes an HCL body into the target struct using gohcl.
func DecodeBody(body hcl.Body, ctx *hcl.EvalContext, target interface{}) hcl.Diagnostics {
	return gohcl.DecodeBody(body, ctx, target)
}

// NewEvalContext creates an HCL evaluation context exposing env(), the
// only function config.hcl needs: auth.token = env("UNREALPM_TOKEN").
func NewEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunction(),
		},
	}
}

// envFunction returns an HCL function that reads environment variables.
// Usage in HCL: env("VAR_NAME") or env("VAR_NAME", "default_value").
func envFunction() function.Function {
	return function.New(&function.Spec{
		Description: "Reads an environment variable, with an optional default value",
		Params: []function.Parameter{
			{Name: "name", Type: cty.String, Description: "The name of the environment variable to read"},
		},
		VarParam: &function.Parameter{
			Name:        "default",
			Type:        cty.String,
			Description: "Optional default value if the environment variable is not set",
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			value := os.Getenv(args[0].AsString())
			if value == "" && len(args) > 1 {
				value = args[1].AsString()
			}
			return cty.StringVal(value), nil
		},
	})
}
