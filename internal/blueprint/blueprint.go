// Package blueprint produces rough initial layouts of timber structures
// together with their connectivity.
package blueprint

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/solver"
)

// Func builds one structure instance. The seed drives the roughness of the
// initial positions.
type Func func(seed int64) ([]beam.Beam, solver.Topology)

// Options tunes the blueprints.
type Options struct {
	// Jitter is the largest horizontal offset (m) applied to initial
	// positions.
	Jitter float64 `yaml:"jitter"`
	// RafterPairs and PostPairs size the pfettendach.
	RafterPairs int `yaml:"rafter_pairs"`
	PostPairs   int `yaml:"post_pairs"`
}

// DefaultOptions returns 2 cm jitter, five rafter pairs and three post pairs.
func DefaultOptions() Options {
	return Options{Jitter: 0.02, RafterPairs: 5, PostPairs: 3}
}

// Blueprint is a named structure producer.
type Blueprint struct {
	Name        string
	Description string
	build       func(Options) ([]beam.Beam, solver.Topology)
}

var registry = map[string]Blueprint{
	"post_and_beam": {
		Name:        "post_and_beam",
		Description: "two posts carrying one purlin",
		build:       postAndBeam,
	},
	"rafter_on_purlin": {
		Name:        "rafter_on_purlin",
		Description: "one rafter notched onto a purlin on two posts",
		build:       rafterOnPurlin,
	},
	"pfettendach": {
		Name:        "pfettendach",
		Description: "gable purlin roof: ridge, middle and foot purlins, posts and rafter pairs",
		build:       pfettendach,
	},
}

// Names lists the registered blueprints alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the registered blueprints alphabetically.
func All() []Blueprint {
	out := make([]Blueprint, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n])
	}
	return out
}

// New returns the producer of a registered blueprint.
func New(name string, opts Options) (Func, error) {
	bp, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown blueprint %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if opts.RafterPairs < 1 {
		return nil, fmt.Errorf("blueprint %s: rafter pairs must be at least 1, got %d", name, opts.RafterPairs)
	}
	if opts.PostPairs < 0 {
		return nil, fmt.Errorf("blueprint %s: post pairs must not be negative, got %d", name, opts.PostPairs)
	}
	return func(seed int64) ([]beam.Beam, solver.Topology) {
		beams, topo := bp.build(opts)
		roughen(beams, seed, opts.Jitter)
		return beams, topo
	}, nil
}

// roughen shifts every beam horizontally by up to ±amount. Heights are left
// alone so footings stay on the floor.
func roughen(beams []beam.Beam, seed int64, amount float64) {
	if amount <= 0 {
		return
	}
	u := distuv.Uniform{Min: -amount, Max: amount, Src: rand.New(rand.NewPCG(uint64(seed), 0x726f756768))}
	for _, b := range beams {
		f := beam.FrameOf(b)
		b.SetParameters(map[string]float64{
			beam.ParamX: f.X + u.Rand(),
			beam.ParamY: f.Y + u.Rand(),
		})
	}
}
