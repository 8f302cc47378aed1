// Package resolver maps raw source references to declared names through an
// ordered chain of interceptors. The first interceptor that finds a match
// wins; anything left over is unresolved, which is not an error.
package resolver

import (
	"context"
	"log/slog"

	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/names"
	"modcheck/internal/shared/observability"
)

// Interceptor is one resolution strategy. Intercept must only move
// candidates from unresolved to resolved and must not keep state between
// calls.
type Interceptor interface {
	Name() string
	Intercept(p Packet) Packet
}

// Chain runs interceptors strictly in order.
type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: append([]Interceptor(nil), interceptors...)}
}

// Options configure the canonical chain.
type Options struct {
	// Declarations indexes every source declaration of the build.
	Declarations DeclarationIndex
	// Resources are consulted after wildcard imports, in order.
	Resources []*ResourceInterceptor
	Stdlib    *Stdlib
	// LogUnresolved logs each candidate left over at debug level.
	LogUnresolved bool
}

// NewDefaultChain assembles the interceptors in their canonical order:
// imports, package, wildcard imports, resources, stdlib, terminal.
func NewDefaultChain(opts Options) *Chain {
	interceptors := []Interceptor{
		ImportInterceptor{Index: opts.Declarations},
		PackageInterceptor{Index: opts.Declarations},
		WildcardInterceptor{Index: opts.Declarations},
	}
	for _, r := range opts.Resources {
		if r != nil {
			interceptors = append(interceptors, r)
		}
	}
	stdlib := opts.Stdlib
	if stdlib == nil {
		stdlib = DefaultStdlib()
	}
	interceptors = append(interceptors,
		StdlibInterceptor{Stdlib: stdlib},
		TerminalInterceptor{LogUnresolved: opts.LogUnresolved},
	)
	return NewChain(interceptors...)
}

// Names lists the interceptors in execution order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.interceptors))
	for i, in := range c.interceptors {
		out[i] = in.Name()
	}
	return out
}

// Resolve folds the packet through every interceptor.
func (c *Chain) Resolve(p Packet) Packet {
	for _, in := range c.interceptors {
		before := len(p.resolved)
		p = in.Intercept(p)
		if n := len(p.resolved) - before; n > 0 {
			observability.ResolutionTotal.WithLabelValues("resolved", in.Name()).Add(float64(n))
		}
	}
	if n := len(p.unresolved); n > 0 {
		observability.ResolutionTotal.WithLabelValues("unresolved", terminalName).Add(float64(n))
	}
	return p
}

// ResolveFile resolves the references of one file. It checks ctx first so
// long batches stop promptly after cancellation.
func (c *Chain) ResolveFile(ctx context.Context, f facts.FileFacts) (Packet, error) {
	if err := ctx.Err(); err != nil {
		return Packet{}, err
	}
	return c.Resolve(NewPacket(f)), nil
}

// referenceFor builds the resolved reference for fqn, borrowing the package
// split of the declaration that satisfied it.
func referenceFor(fqn string, decl names.DeclaredName, origin names.Origin) (names.ReferenceName, bool) {
	q, err := names.ParseInPackage(decl.Package(), fqn)
	if err != nil {
		slog.Debug("cannot build resolved reference", "name", fqn, "error", err)
		return names.ReferenceName{}, false
	}
	return names.ReferenceName{QualifiedName: q, Origin: origin}, true
}
