// Package boards carries the catalog of board descriptions the simulated
// machine can be instantiated from.
package boards

import (
	_ "embed"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed boards.yaml
var rawBoards []byte

var catalog Catalog

// ErrUnknownBoard is returned by Lookup for a name not in the catalog.
var ErrUnknownBoard = errors.New("unknown board")

type Catalog []Board

// Board describes one machine configuration.
type Board struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	CounterHz      uint64 `yaml:"counterHz"`
	GICLines       uint32 `yaml:"gicLines"`
	TickMillis     uint64 `yaml:"tickMillis"`
	QuantumTicks   uint64 `yaml:"quantumTicks"`
	MaxTasks       int    `yaml:"maxTasks"`
	PriorityLevels int    `yaml:"priorityLevels"`
	StackBytes     int    `yaml:"stackBytes"`
}

// TickNanos returns the timer period in nanoseconds.
func (b Board) TickNanos() uint64 {
	return b.TickMillis * 1_000_000
}

// All returns every board in the catalog.
func All() Catalog {
	return catalog
}

// Lookup finds a board by name.
func Lookup(name string) (Board, error) {
	i := slices.IndexFunc(catalog, func(b Board) bool {
		return b.Name == name
	})
	if i < 0 {
		return Board{}, fmt.Errorf("%w: %q", ErrUnknownBoard, name)
	}
	return catalog[i], nil
}

func init() {
	var file struct {
		Boards Catalog `yaml:"boards"`
	}
	if err := yaml.Unmarshal(rawBoards, &file); err != nil {
		panic("boards: bad embedded catalog: " + err.Error())
	}
	catalog = file.Boards
}
