package catalog

import (
	"fmt"
)

// Document is the serializable form of a node subtree.
//
// A group document with a non-nil Members slice is materialized with its
// members loaded; a group without members must be expanded by a MemberLoader.
type Document struct {
	ID          string     `json:"id"`
	Type        string     `json:"type,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Ref         string     `json:"ref,omitempty"`
	Info        []Info     `json:"info,omitempty"`
	Members     []Document `json:"members"`
}

// Build turns the document into a node tree.
func (d Document) Build() (*Node, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	kind, err := ParseKind(d.Type)
	if err != nil {
		return nil, err
	}
	if kind != KindGroup && len(d.Members) > 0 {
		return nil, fmt.Errorf("%w: %s %q has members", ErrInvalidDocument, kind, d.ID)
	}

	n := &Node{
		id:          d.ID,
		kind:        kind,
		ref:         d.Ref,
		name:        d.Name,
		description: d.Description,
		info:        append([]Info(nil), d.Info...),
	}

	if kind == KindGroup && d.Members != nil {
		members := make([]*Node, 0, len(d.Members))
		for _, md := range d.Members {
			m, err := md.Build()
			if err != nil {
				return nil, fmt.Errorf("member of %q: %w", d.ID, err)
			}
			members = append(members, m)
		}
		n.members = members
		n.membersLoaded = true
	}
	return n, nil
}

// BuildMembers builds only the members of d, for MemberLoader implementations
// that receive a group document.
func (d Document) BuildMembers() ([]*Node, error) {
	members := make([]*Node, 0, len(d.Members))
	for _, md := range d.Members {
		m, err := md.Build()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// DocumentOf converts a node back into a document. Reference targets are not
// inlined; a resolved reference is written back as a reference.
func DocumentOf(n *Node) Document {
	f := n.Fields()
	d := Document{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Ref:         n.ref,
		Info:        f.Info,
	}
	if n.kind != KindItem {
		d.Type = n.kind.String()
	}
	if n.kind == KindGroup && n.MembersLoaded() {
		d.Members = []Document{}
		for _, m := range n.Members() {
			d.Members = append(d.Members, DocumentOf(m))
		}
	}
	return d
}
