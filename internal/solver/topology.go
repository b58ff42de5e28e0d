package solver

import (
	"fmt"
	"sort"

	"github.com/alexiusacademia/timbertrace/internal/beam"
)

// Contact declares that locus LocusI on world face FaceI of beam I coincides
// with locus LocusJ on world face FaceJ of beam J.
type Contact struct {
	I      int       `json:"i"`
	J      int       `json:"j"`
	FaceI  beam.Face `json:"face_i"`
	FaceJ  beam.Face `json:"face_j"`
	LocusI int       `json:"locus_i"`
	LocusJ int       `json:"locus_j"`
}

func (c Contact) String() string {
	return fmt.Sprintf("beam %d %s[%d] <-> beam %d %s[%d]", c.I, c.FaceI, c.LocusI, c.J, c.FaceJ, c.LocusJ)
}

// IdentityPair forces two beams to share their morphology.
type IdentityPair struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Anchor pins parameters of a beam to their initial values.
type Anchor struct {
	Beam   int      `json:"beam"`
	Params []string `json:"params"`
}

// Topology is the connectivity graph of a structure. Contacts are grouped by
// a free-form name, conventionally the world face they originate from.
type Topology struct {
	Contacts   map[string][]Contact `json:"connectivity"`
	Identities []IdentityPair       `json:"identity_pairs"`
	Anchors    []Anchor             `json:"anchors,omitempty"`
}

// NewTopology returns a topology with the six face groups present.
func NewTopology() Topology {
	t := Topology{Contacts: make(map[string][]Contact)}
	for _, f := range beam.Faces() {
		t.Contacts[f.String()] = nil
	}
	return t
}

// Connect appends a contact to a group.
func (t *Topology) Connect(group string, c Contact) {
	if t.Contacts == nil {
		t.Contacts = make(map[string][]Contact)
	}
	t.Contacts[group] = append(t.Contacts[group], c)
}

// Identify appends an identity pair.
func (t *Topology) Identify(i, j int) {
	t.Identities = append(t.Identities, IdentityPair{I: i, J: j})
}

// Chain links consecutive indices as identity pairs so all of them share
// one morphology.
func (t *Topology) Chain(indices ...int) {
	for k := 1; k < len(indices); k++ {
		t.Identify(indices[k-1], indices[k])
	}
}

// Anchor pins parameters of beam i.
func (t *Topology) Anchor(i int, params ...string) {
	t.Anchors = append(t.Anchors, Anchor{Beam: i, Params: params})
}

// GroupedContact is a contact with its position in the topology.
type GroupedContact struct {
	Group string
	Index int
	Contact
}

// AllContacts returns every contact, groups in name order.
func (t Topology) AllContacts() []GroupedContact {
	groups := make([]string, 0, len(t.Contacts))
	for g := range t.Contacts {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []GroupedContact
	for _, g := range groups {
		for i, c := range t.Contacts[g] {
			out = append(out, GroupedContact{Group: g, Index: i, Contact: c})
		}
	}
	return out
}

// NumContacts returns the number of declared contacts.
func (t Topology) NumContacts() int {
	n := 0
	for _, cs := range t.Contacts {
		n += len(cs)
	}
	return n
}
