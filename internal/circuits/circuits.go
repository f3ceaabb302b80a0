// Package circuits provides a minimal value-type model of quantum circuits:
// named gates acting on qubit indices, plus terminal measurements. It is the
// common currency between the noise-scaling, sampling, and executor layers;
// backends interpret gate names, this package never simulates them.
package circuits

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// paramTol is the tolerance used when comparing gate parameters by value.
const paramTol = 1e-12

// Gate is a named operation on one or more qubits. Param carries the angle
// of parametric rotations (RX, RY, RZ) and is zero otherwise.
type Gate struct {
	Name   string
	Qubits []int
	Param  float64
}

// Standard gate constructors.

func I(q int) Gate    { return Gate{Name: "I", Qubits: []int{q}} }
func X(q int) Gate    { return Gate{Name: "X", Qubits: []int{q}} }
func Y(q int) Gate    { return Gate{Name: "Y", Qubits: []int{q}} }
func Z(q int) Gate    { return Gate{Name: "Z", Qubits: []int{q}} }
func H(q int) Gate    { return Gate{Name: "H", Qubits: []int{q}} }
func S(q int) Gate    { return Gate{Name: "S", Qubits: []int{q}} }
func T(q int) Gate    { return Gate{Name: "T", Qubits: []int{q}} }
func Reset(q int) Gate { return Gate{Name: "RESET", Qubits: []int{q}} }

func CNOT(control, target int) Gate { return Gate{Name: "CNOT", Qubits: []int{control, target}} }
func CZ(a, b int) Gate              { return Gate{Name: "CZ", Qubits: []int{a, b}} }
func SWAP(a, b int) Gate            { return Gate{Name: "SWAP", Qubits: []int{a, b}} }

func RX(q int, theta float64) Gate { return Gate{Name: "RX", Qubits: []int{q}, Param: theta} }
func RY(q int, theta float64) Gate { return Gate{Name: "RY", Qubits: []int{q}, Param: theta} }
func RZ(q int, theta float64) Gate { return Gate{Name: "RZ", Qubits: []int{q}, Param: theta} }

// selfInverse lists the gates whose inverse is the gate itself.
var selfInverse = map[string]bool{
	"I": true, "X": true, "Y": true, "Z": true, "H": true,
	"CNOT": true, "CZ": true, "SWAP": true,
}

// inverseName maps gates whose inverse is another fixed gate.
var inverseName = map[string]string{
	"S":    "SDG",
	"SDG":  "S",
	"T":    "TDG",
	"TDG":  "T",
}

// Equal reports whether two gates are the same operation on the same qubits.
func (g Gate) Equal(o Gate) bool {
	if g.Name != o.Name || len(g.Qubits) != len(o.Qubits) {
		return false
	}
	for i := range g.Qubits {
		if g.Qubits[i] != o.Qubits[i] {
			return false
		}
	}
	return math.Abs(g.Param-o.Param) <= paramTol
}

// Inverse returns the gate implementing the inverse unitary. Gates with no
// known inverse (e.g. RESET) return an error.
func (g Gate) Inverse() (Gate, error) {
	if selfInverse[g.Name] {
		return g, nil
	}
	if name, ok := inverseName[g.Name]; ok {
		inv := g
		inv.Name = name
		return inv, nil
	}
	switch g.Name {
	case "RX", "RY", "RZ":
		inv := g
		inv.Param = -g.Param
		return inv, nil
	}
	return Gate{}, fmt.Errorf("gate %q has no known inverse", g.Name)
}

// String renders the gate in a compact text form, e.g. "CNOT(0,1)".
func (g Gate) String() string {
	qubits := make([]string, len(g.Qubits))
	for i, q := range g.Qubits {
		qubits[i] = fmt.Sprintf("%d", q)
	}
	if g.Name == "RX" || g.Name == "RY" || g.Name == "RZ" {
		return fmt.Sprintf("%s(%s; %.6g)", g.Name, strings.Join(qubits, ","), g.Param)
	}
	return fmt.Sprintf("%s(%s)", g.Name, strings.Join(qubits, ","))
}

// Circuit is an ordered gate sequence followed by terminal measurements on
// the listed qubits. A Circuit is a value: methods never mutate the receiver.
type Circuit struct {
	Gates        []Gate
	Measurements []int
}

// New builds a circuit from the given gates with no measurements.
func New(gates ...Gate) Circuit {
	return Circuit{Gates: gates}
}

// FromGate wraps a single gate into a circuit.
func FromGate(g Gate) Circuit {
	return Circuit{Gates: []Gate{g}}
}

// WithMeasurements returns a copy of the circuit measuring the given qubits
// at the end.
func (c Circuit) WithMeasurements(qubits ...int) Circuit {
	out := c.Copy()
	out.Measurements = append([]int(nil), qubits...)
	sort.Ints(out.Measurements)
	return out
}

// Copy returns a deep copy of the circuit.
func (c Circuit) Copy() Circuit {
	out := Circuit{
		Gates:        make([]Gate, len(c.Gates)),
		Measurements: append([]int(nil), c.Measurements...),
	}
	for i, g := range c.Gates {
		out.Gates[i] = Gate{Name: g.Name, Qubits: append([]int(nil), g.Qubits...), Param: g.Param}
	}
	return out
}

// Append returns the concatenation of c followed by o. Measurements of both
// circuits are merged (deduplicated).
func (c Circuit) Append(o Circuit) Circuit {
	out := c.Copy()
	for _, g := range o.Gates {
		out.Gates = append(out.Gates, Gate{Name: g.Name, Qubits: append([]int(nil), g.Qubits...), Param: g.Param})
	}
	out.Measurements = mergeSorted(out.Measurements, o.Measurements)
	return out
}

// AppendGates returns a copy of the circuit with the given gates appended.
func (c Circuit) AppendGates(gates ...Gate) Circuit {
	out := c.Copy()
	out.Gates = append(out.Gates, gates...)
	return out
}

// Equal reports structural equality (same gates in the same order, same
// measured qubits).
func (c Circuit) Equal(o Circuit) bool {
	if len(c.Gates) != len(o.Gates) || len(c.Measurements) != len(o.Measurements) {
		return false
	}
	for i := range c.Gates {
		if !c.Gates[i].Equal(o.Gates[i]) {
			return false
		}
	}
	for i := range c.Measurements {
		if c.Measurements[i] != o.Measurements[i] {
			return false
		}
	}
	return true
}

// Inverse returns a circuit implementing the inverse unitary: the inverse of
// each gate in reverse order. Measurements are dropped since the inverse of
// a measured circuit is not a unitary.
func (c Circuit) Inverse() (Circuit, error) {
	out := Circuit{Gates: make([]Gate, 0, len(c.Gates))}
	for i := len(c.Gates) - 1; i >= 0; i-- {
		inv, err := c.Gates[i].Inverse()
		if err != nil {
			return Circuit{}, err
		}
		out.Gates = append(out.Gates, inv)
	}
	return out, nil
}

// NumQubits returns one plus the largest qubit index touched by the circuit.
func (c Circuit) NumQubits() int {
	max := -1
	for _, g := range c.Gates {
		for _, q := range g.Qubits {
			if q > max {
				max = q
			}
		}
	}
	for _, q := range c.Measurements {
		if q > max {
			max = q
		}
	}
	return max + 1
}

// String renders the circuit as a semicolon-separated gate list.
func (c Circuit) String() string {
	parts := make([]string, 0, len(c.Gates)+1)
	for _, g := range c.Gates {
		parts = append(parts, g.String())
	}
	if len(c.Measurements) > 0 {
		qubits := make([]string, len(c.Measurements))
		for i, q := range c.Measurements {
			qubits[i] = fmt.Sprintf("%d", q)
		}
		parts = append(parts, fmt.Sprintf("M(%s)", strings.Join(qubits, ",")))
	}
	return strings.Join(parts, "; ")
}

func mergeSorted(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	seen := make(map[int]bool, len(a)+len(b))
	merged := make([]int, 0, len(a)+len(b))
	for _, q := range append(append([]int(nil), a...), b...) {
		if !seen[q] {
			seen[q] = true
			merged = append(merged, q)
		}
	}
	sort.Ints(merged)
	return merged
}
