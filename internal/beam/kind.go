package beam

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a beam type. The integer value is the semantic label written to
// dataset metadata.
type Kind int

const (
	KindPost   Kind = iota // Pfosten
	KindPurlin             // Pfette
	KindRafter             // Sparren
)

type kindInfo struct {
	name   string
	german string
	new    func() Beam
}

var registry = map[Kind]kindInfo{
	KindPost:   {"post", "Pfosten", func() Beam { return NewPost() }},
	KindPurlin: {"purlin", "Pfette", func() Beam { return NewPurlin() }},
	KindRafter: {"rafter", "Sparren", func() Beam { return NewRafter() }},
}

// Kinds returns all registered kinds in label order.
func Kinds() []Kind {
	return []Kind{KindPost, KindPurlin, KindRafter}
}

func (k Kind) String() string {
	if info, ok := registry[k]; ok {
		return info.name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// GermanName returns the carpentry term used in the dataset.
func (k Kind) GermanName() string {
	return registry[k].german
}

// New returns a beam of the given kind with default morphology at the origin.
func New(k Kind) (Beam, error) {
	info, ok := registry[k]
	if !ok {
		return nil, fmt.Errorf("unknown beam kind %d", int(k))
	}
	return info.new(), nil
}

// ParseKind accepts an English name, a German name or a numeric label.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k, info := range registry {
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.german) {
			return k, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := registry[Kind(n)]; ok {
			return Kind(n), nil
		}
	}
	return 0, fmt.Errorf("unknown beam kind %q", s)
}
