// Package compiler orchestrates the full compile pipeline: load a rule
// document, lower it into per-layer transitions, interpolate the three
// Lagrange polynomials, and write the resulting artifact — refusing to
// emit anything if the document produced any diagnostics along the way.
package compiler

import (
	"fmt"
	"io"

	"github.com/ajiang-xyz/ZekaEngine/internal/artifact"
	"github.com/ajiang-xyz/ZekaEngine/internal/config"
	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
	"github.com/ajiang-xyz/ZekaEngine/internal/vulncompile"
)

// Options configures one compile run. Moduli defaults to params.Default()
// when left zero-valued by the caller.
type Options struct {
	Moduli params.Moduli
}

// CompileFile loads the document at configPath, compiles it, and writes the
// resulting artifact to out. It returns the diagnostics bag so the caller
// (cmd/zekac) can render the problems; any diagnostic in the bag means
// nothing was written to out.
func CompileFile(configPath string, out io.Writer, opts Options) (*diag.Bag, error) {
	doc, bag, err := config.LoadRemoteOrLocal(configPath)
	if err != nil {
		return nil, fmt.Errorf("compiler: loading %s: %w", configPath, err)
	}
	if bag.HasErrors() {
		return bag, nil
	}

	mod := opts.Moduli
	if mod.L1 == nil {
		mod = params.Default()
	}

	samp := sampler.New(doc.Metadata.Seed)
	res := vulncompile.Compile(doc, mod, samp, bag)
	if bag.HasErrors() {
		return bag, nil
	}

	l1, err := lagrange.Interpolate(res.L1, mod.L1)
	if err != nil {
		return nil, fmt.Errorf("compiler: interpolating L1: %w", err)
	}
	l2, err := lagrange.Interpolate(res.L2, mod.L2)
	if err != nil {
		return nil, fmt.Errorf("compiler: interpolating L2: %w", err)
	}
	l3, err := lagrange.Interpolate(res.L3, mod.L3)
	if err != nil {
		return nil, fmt.Errorf("compiler: interpolating L3: %w", err)
	}

	a := &artifact.Artifact{
		Title:  doc.Metadata.Title,
		Aead:   doc.Metadata.Aead,
		Moduli: mod,
		L1:     l1,
		L2:     l2,
		L3:     l3,
	}
	if err := artifact.Write(out, a); err != nil {
		return nil, fmt.Errorf("compiler: writing artifact: %w", err)
	}
	return bag, nil
}
