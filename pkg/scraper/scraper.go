// Package scraper defines the boundary between the orchestration core and
// the per-institution retrieval modules.
//
// A module is registered under a stable name and built from the untyped
// params block of a configuration entry. Building validates the params, so a
// malformed configuration fails at load time rather than mid-run.
package scraper

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

// Env is the execution context handed to a scraper for one run.
//
// Logger is the run's private sink: everything the scraper emits through it
// lands in that run's log file only, never interleaved with other
// concurrently running configurations.
type Env struct {
	// OutputDir is the directory the scraper writes fetched data into.
	// It exists before Run is called.
	OutputDir string

	// Logger is scoped to this run.
	Logger *zap.Logger

	// Visible requests a visible browser window where applicable.
	// Headless is the default for unattended runs.
	Visible bool
}

// Scraper performs one retrieval run.
type Scraper interface {
	Run(ctx context.Context, env Env) error
}

// Func adapts a plain function to the Scraper interface.
type Func func(ctx context.Context, env Env) error

func (f Func) Run(ctx context.Context, env Env) error {
	return f(ctx, env)
}

// Builder constructs a Scraper from a configuration's params block,
// validating it in the process.
type Builder func(params map[string]any) (Scraper, error)

var builders = map[string]Builder{}

// Register adds a module builder under the given name. Duplicate
// registration is a programming error.
func Register(module string, b Builder) {
	if module == "" || b == nil {
		panic("scraper: Register requires a module name and builder")
	}
	if _, exists := builders[module]; exists {
		panic(fmt.Sprintf("scraper: module %q registered twice", module))
	}
	builders[module] = b
}

// Lookup returns the builder for a module name.
func Lookup(module string) (Builder, bool) {
	b, ok := builders[module]
	return b, ok
}

// Modules returns the sorted names of all registered modules.
func Modules() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves a module name and constructs its scraper from params.
func Build(module string, params map[string]any) (Scraper, error) {
	b, ok := Lookup(module)
	if !ok {
		return nil, fmt.Errorf("unknown scraper module %q (registered: %v)", module, Modules())
	}
	s, err := b(params)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", module, err)
	}
	return s, nil
}

// decodeParams decodes an untyped params block into a module's typed spec.
// Unknown keys are rejected so typos surface at configuration-load time.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("build params decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
