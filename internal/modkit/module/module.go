// Package module defines the contract every timejar module satisfies
// and the lookup used by cmd wiring to reach a module's ports
package module

// Module is what a cmd holds after building a service module
type Module interface {
	// Ports returns the module's port bundle, usually a struct of interfaces
	Ports() any
	Name() string
}
