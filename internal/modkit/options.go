package modkit

// Option adjusts how a module is built
type Option func(*Built)

// Built is the result of applying Options
type Built struct {
	Name  string
	Ports []any
}

// WithName overrides the module name used in logs
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPorts injects a port built in main or owned by another module.
// Repeated calls accumulate in order
func WithPorts[T any](p T) Option {
	return func(b *Built) { b.Ports = append(b.Ports, p) }
}

// Build applies opts in order; nil options are skipped
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	return b
}

// NameOr returns the configured name or def
func (b Built) NameOr(def string) string {
	if b.Name != "" {
		return b.Name
	}
	return def
}

// PortOf returns the last injected port assignable to T
func PortOf[T any](b Built) (T, bool) {
	for i := len(b.Ports) - 1; i >= 0; i-- {
		if v, ok := b.Ports[i].(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// PortsOf returns every injected port assignable to T in injection order
func PortsOf[T any](b Built) []T {
	var out []T
	for _, p := range b.Ports {
		if v, ok := p.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
