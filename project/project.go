// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package project loads the erd.hcl project file: which schema file
// to open, which diagram is active, how unplaced tables are laid out,
// and where the preview server listens.
package project

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/erdpets/erdpets/layout"
	"github.com/erdpets/erdpets/reconcile"
)

type (
	// A Project is one decoded erd.hcl file.
	Project struct {
		// Src is the path of the schema file holding the SQL and the
		// layout block.
		Src string `hcl:"src"`
		// Diagram is the active diagram name, "main" when unset.
		Diagram string  `hcl:"diagram,optional"`
		Layout  *Layout `hcl:"layout,block"`
		Server  *Server `hcl:"server,block"`
	}

	// Layout selects and configures the placement strategy for
	// tables without stored coordinates.
	Layout struct {
		Strategy string `hcl:"strategy,optional"` // grid, circle or random
		Width    int    `hcl:"width,optional"`
		Height   int    `hcl:"height,optional"`
		Seed     int64  `hcl:"seed,optional"`
	}

	// Server configures the preview server.
	Server struct {
		Addr string `hcl:"addr,optional"`
	}
)

// evalCtx exposes env("NAME") to string attributes, so a project file
// can be checked in without hard-coding machine-local paths.
var evalCtx = &hcl.EvalContext{
	Functions: map[string]function.Function{
		"env": function.New(&function.Spec{
			Params: []function.Parameter{{Name: "name", Type: cty.String}},
			Type:   function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.StringVal(os.Getenv(args[0].AsString())), nil
			},
		}),
	},
}

// Load reads and decodes a project file.
func Load(path string) (*Project, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return Decode(path, src)
}

// Decode decodes project file contents. The filename selects the HCL
// syntax and names diagnostics.
func Decode(filename string, src []byte) (*Project, error) {
	p := &Project{}
	if err := hclsimple.Decode(filename, src, evalCtx, p); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	if p.Diagram == "" {
		p.Diagram = "main"
	}
	return p, nil
}

// Generator returns the configured position generator.
func (p *Project) Generator() (reconcile.PositionGenerator, error) {
	var l Layout
	if p.Layout != nil {
		l = *p.Layout
	}
	gen, ok := layout.ByName(l.Strategy, l.Width, l.Height, l.Seed)
	if !ok {
		return nil, fmt.Errorf("project: unknown layout strategy %q", l.Strategy)
	}
	return gen, nil
}

// Addr returns the preview server address, defaulting to localhost.
func (p *Project) Addr() string {
	if p.Server != nil && p.Server.Addr != "" {
		return p.Server.Addr
	}
	return "127.0.0.1:5435"
}
