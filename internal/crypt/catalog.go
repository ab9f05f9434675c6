package crypt

import (
	"fmt"
	"strings"
)

// probeSalt is long enough for every algorithm, including bcrypt's 22
// character salt.
const probeSalt = "cryptpassProbeSaltValue."

// Catalog records which algorithms a Primitive can compute on this host.
//
// Availability is probed once, in NewCatalog, by hashing a throwaway key
// with every algorithm and checking the shape of the output. The result is
// immutable, so a Catalog can be shared freely between goroutines.
type Catalog struct {
	primitive Primitive
	available map[Algorithm]bool
}

// NewCatalog probes p for every algorithm in Algorithms.
func NewCatalog(p Primitive) *Catalog {
	c := &Catalog{
		primitive: p,
		available: make(map[Algorithm]bool, len(Algorithms())),
	}
	for _, alg := range Algorithms() {
		c.available[alg] = probe(p, alg)
	}
	return c
}

// Primitive returns the hashing primitive the catalog was probed against.
func (c *Catalog) Primitive() Primitive {
	return c.primitive
}

// Available reports whether alg can be computed. Unknown names are never
// available.
func (c *Catalog) Available(alg Algorithm) bool {
	return c.available[alg]
}

// Check returns ErrUnsupportedAlgorithm for names outside the catalog and
// ErrAlgorithmUnavailable for known algorithms the host cannot compute.
func (c *Catalog) Check(alg Algorithm) error {
	if !alg.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
	if !c.available[alg] {
		return fmt.Errorf("%w: %s", ErrAlgorithmUnavailable, alg)
	}
	return nil
}

// AvailableAlgorithms lists the algorithms that passed the probe.
func (c *Catalog) AvailableAlgorithms() []Algorithm {
	var out []Algorithm
	for _, alg := range Algorithms() {
		if c.available[alg] {
			out = append(out, alg)
		}
	}
	return out
}

func probe(p Primitive, alg Algorithm) bool {
	setting, err := BuildDescriptor(alg, probeIterations(alg), probeSalt)
	if err != nil {
		return false
	}
	out, err := p.Crypt("probe", setting)
	if err != nil || out == "" || strings.HasPrefix(out, "*") {
		return false
	}

	switch alg {
	case StdDES:
		return len(out) == 13 && out[:2] == probeSalt[:2]
	case ExtDES:
		return len(out) == 20 && strings.HasPrefix(out, "_")
	}
	sig, _ := alg.Signature()
	return strings.HasPrefix(out, sig) && len(out) > len(setting)-len(probeSalt)
}

// probeIterations keeps the probe cheap.
func probeIterations(alg Algorithm) int {
	switch alg {
	case Blowfish:
		return 4
	case SHA256, SHA512:
		return 1000
	case ExtDES:
		return 1
	}
	return 0
}
