package nua

import (
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/vm"
)

// Option describes a function used to configure loading and running a chunk.
type Option func(*config)

type config struct {
	globals              map[string]any
	env                  map[string]any
	args                 []any
	strictHeader         bool
	withoutDefaultGlobal bool
	vmOpts               []vm.Option
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		globals: map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithGlobals provides global variables to the chunk. This option is
// additive; if the same key is supplied more than once the last value wins.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		for k, v := range globals {
			cfg.globals[k] = v
		}
	}
}

// WithGlobal supplies a single named global variable.
func WithGlobal(name string, value any) Option {
	return func(cfg *config) {
		cfg.globals[name] = value
	}
}

// WithEnv runs the chunk against its own environment table instead of the
// globals. Names missing from env are looked up in the globals.
func WithEnv(env map[string]any) Option {
	return func(cfg *config) {
		if cfg.env == nil {
			cfg.env = map[string]any{}
		}
		for k, v := range env {
			cfg.env[k] = v
		}
	}
}

// WithArgs passes arguments to the main chunk, where they are available
// through "...".
func WithArgs(args ...any) Option {
	return func(cfg *config) {
		cfg.args = append(cfg.args, args...)
	}
}

// WithStrictHeader rejects chunks whose header was produced for a different
// version or machine configuration.
func WithStrictHeader() Option {
	return func(cfg *config) {
		cfg.strictHeader = true
	}
}

// WithoutDefaultLibraries opts out of the default global functions and the
// string library.
func WithoutDefaultLibraries() Option {
	return func(cfg *config) {
		cfg.withoutDefaultGlobal = true
	}
}

// WithVMOptions passes options through to the virtual machine.
func WithVMOptions(opts ...vm.Option) Option {
	return func(cfg *config) {
		cfg.vmOpts = append(cfg.vmOpts, opts...)
	}
}

func (cfg *config) newVM() (*vm.VirtualMachine, error) {
	var opts []vm.Option
	if !cfg.withoutDefaultGlobal {
		for name, value := range Builtins() {
			if lib, ok := value.(*object.Table); ok {
				opts = append(opts, vm.WithLibrary(name, lib))
			} else {
				opts = append(opts, vm.WithGlobals(map[string]any{name: value}))
			}
		}
	}
	if len(cfg.globals) > 0 {
		opts = append(opts, vm.WithGlobals(cfg.globals))
	}
	return vm.New(append(opts, cfg.vmOpts...)...)
}

func (cfg *config) envTable() (*object.Table, error) {
	if cfg.env == nil {
		return nil, nil
	}
	env, err := object.FromGo(cfg.env)
	if err != nil {
		return nil, err
	}
	return env.(*object.Table), nil
}
