// Package kernel provides the closed set of smoothing kernels used by
// the local least squares smoothers and the density estimators.
//
// A kernel maps a rescaled distance u = (x - X_i)/h to a nonnegative
// weight. All built-in kernels are symmetric about zero and integrate
// to one; the compact ones vanish outside [-1, 1].
package kernel

import (
	"math"

	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// Type identifies a built-in kernel.
type Type int

const (
	// Epanechnikov is K(u) = 0.75(1-u²) on [-1, 1]. The default.
	Epanechnikov Type = iota
	// Rectangular is K(u) = 0.5 on [-1, 1].
	Rectangular
	// Quartic is K(u) = (15/16)(1-u²)² on [-1, 1].
	Quartic
	// Gaussian is the standard normal density.
	Gaussian
	// GaussVar is the variance-reducing Gaussian variant
	// K(u) = φ(u)(1.25 - 0.25u²).
	GaussVar
	// custom marks a caller-supplied kernel.
	custom
)

const invSqrt2Pi = 0.3989422804014327

// String returns the kernel name as accepted by ParseType.
func (t Type) String() string {
	switch t {
	case Epanechnikov:
		return "epan"
	case Rectangular:
		return "rect"
	case Quartic:
		return "quar"
	case Gaussian:
		return "gauss"
	case GaussVar:
		return "gausvar"
	default:
		return "custom"
	}
}

// ParseType resolves a kernel name. Accepted names are "epan", "rect",
// "quar", "gauss" and "gausvar".
func ParseType(name string) (Type, error) {
	switch name {
	case "epan":
		return Epanechnikov, nil
	case "rect":
		return Rectangular, nil
	case "quar":
		return Quartic, nil
	case "gauss":
		return Gaussian, nil
	case "gausvar":
		return GaussVar, nil
	default:
		return Epanechnikov, errors.NewValidationError("kernel", "unknown kernel name", name)
	}
}

// Kernel is a resolved weighting function. The zero value is not usable;
// construct one with New or Custom.
type Kernel struct {
	typ     Type
	name    string
	weight  func(u float64) float64
	compact bool
}

// New returns the built-in kernel of the given type.
func New(t Type) Kernel {
	switch t {
	case Rectangular:
		return Kernel{typ: t, name: t.String(), compact: true, weight: func(u float64) float64 {
			if u < -1 || u > 1 {
				return 0
			}
			return 0.5
		}}
	case Quartic:
		return Kernel{typ: t, name: t.String(), compact: true, weight: func(u float64) float64 {
			if u < -1 || u > 1 {
				return 0
			}
			s := 1 - u*u
			return 15.0 / 16.0 * s * s
		}}
	case Gaussian:
		return Kernel{typ: t, name: t.String(), compact: false, weight: func(u float64) float64 {
			return invSqrt2Pi * math.Exp(-0.5*u*u)
		}}
	case GaussVar:
		return Kernel{typ: t, name: t.String(), compact: false, weight: func(u float64) float64 {
			return invSqrt2Pi * math.Exp(-0.5*u*u) * (1.25 - 0.25*u*u)
		}}
	default:
		return Kernel{typ: Epanechnikov, name: Epanechnikov.String(), compact: true, weight: func(u float64) float64 {
			if u < -1 || u > 1 {
				return 0
			}
			return 0.75 * (1 - u*u)
		}}
	}
}

// Custom wraps a caller-supplied weight function. The function must be
// nonnegative, symmetric about zero and integrate to one; compact
// reports whether it vanishes outside [-1, 1], which lets the smoothers
// restrict their local windows.
func Custom(name string, weight func(u float64) float64, compact bool) Kernel {
	return Kernel{typ: custom, name: name, weight: weight, compact: compact}
}

// Weight evaluates the kernel at the rescaled distance u.
func (k Kernel) Weight(u float64) float64 {
	return k.weight(u)
}

// Compact reports whether the kernel vanishes outside [-1, 1].
func (k Kernel) Compact() bool {
	return k.compact
}

// Name returns the kernel's name.
func (k Kernel) Name() string {
	return k.name
}

// IsZero reports whether the kernel is the unusable zero value.
func (k Kernel) IsZero() bool {
	return k.weight == nil
}
