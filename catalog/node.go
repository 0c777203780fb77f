package catalog

import (
	"fmt"
	"sync"
)

// Kind classifies a node.
type Kind uint8

const (
	// KindItem is a leaf data-layer descriptor.
	KindItem Kind = iota
	// KindReference stands in for a target node that must be resolved.
	KindReference
	// KindGroup is a container whose members may need separate loading.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindReference:
		return "reference"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a document type string to a Kind. Empty means item.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "item":
		return KindItem, nil
	case "reference":
		return KindReference, nil
	case "group":
		return KindGroup, nil
	default:
		return KindItem, fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, s)
	}
}

// Info is one entry of a node's ordered info section.
// By convention info[0] holds the event date and info[1] the event name.
type Info struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Fields is a point-in-time copy of a node's searchable fields.
type Fields struct {
	ID          string
	Name        string
	Description string
	Info        []Info
}

// InfoContent returns the content of info entry i, or "" when absent.
func (f Fields) InfoContent(i int) string {
	if i < 0 || i >= len(f.Info) {
		return ""
	}
	return f.Info[i].Content
}

// Node is a catalog entry. ID, Kind and Ref are immutable; everything else is
// guarded by the node's lock and may be read while resolvers run.
type Node struct {
	id   string
	kind Kind
	ref  string

	mu            sync.RWMutex
	name          string
	description   string
	info          []Info
	target        *Node
	members       []*Node
	membersLoaded bool
}

// NewItem creates a leaf node.
func NewItem(id, name string) *Node {
	return &Node{id: id, kind: KindItem, name: name}
}

// NewReference creates an unresolved reference. ref is the key a resolver uses
// to fetch the target document.
func NewReference(id, ref string) *Node {
	return &Node{id: id, kind: KindReference, ref: ref}
}

// NewGroup creates a group whose members have not been loaded.
// ref optionally names where a MemberLoader can fetch them from.
func NewGroup(id, name, ref string) *Node {
	return &Node{id: id, kind: KindGroup, name: name, ref: ref}
}

// WithName sets the name and returns the node for chaining.
func (n *Node) WithName(name string) *Node {
	n.SetName(name)
	return n
}

// WithDescription sets the description and returns the node for chaining.
func (n *Node) WithDescription(desc string) *Node {
	n.SetDescription(desc)
	return n
}

// WithInfo appends info entries and returns the node for chaining.
func (n *Node) WithInfo(entries ...Info) *Node {
	n.mu.Lock()
	n.info = append(n.info, entries...)
	n.mu.Unlock()
	return n
}

// ID returns the node's unique identity.
func (n *Node) ID() string { return n.id }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Ref returns the resolution key of a reference or group ("" if none).
func (n *Node) Ref() string { return n.ref }

// IsReference reports whether the node is a reference.
func (n *Node) IsReference() bool { return n.kind == KindReference }

// IsGroup reports whether the node is a group.
func (n *Node) IsGroup() bool { return n.kind == KindGroup }

// Name returns the current name.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName replaces the name.
func (n *Node) SetName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

// Description returns the current description.
func (n *Node) Description() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.description
}

// SetDescription replaces the description.
func (n *Node) SetDescription(desc string) {
	n.mu.Lock()
	n.description = desc
	n.mu.Unlock()
}

// Info returns a copy of the info entries.
func (n *Node) Info() []Info {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Info(nil), n.info...)
}

// SetInfo replaces the info entries.
func (n *Node) SetInfo(entries []Info) {
	n.mu.Lock()
	n.info = append([]Info(nil), entries...)
	n.mu.Unlock()
}

// Fields returns a consistent copy of the searchable fields.
func (n *Node) Fields() Fields {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Fields{
		ID:          n.id,
		Name:        n.name,
		Description: n.description,
		Info:        append([]Info(nil), n.info...),
	}
}

// Target returns the resolved target of a reference, or nil.
func (n *Node) Target() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.target
}

// IsResolved reports whether a reference has its target.
// Items and groups are always considered resolved.
func (n *Node) IsResolved() bool {
	if n.kind != KindReference {
		return true
	}
	return n.Target() != nil
}

// SetTarget resolves a reference. The first target wins; later calls are
// no-ops, which makes racing resolvers safe.
func (n *Node) SetTarget(target *Node) error {
	if n.kind != KindReference {
		return fmt.Errorf("%w: %s", ErrNotReference, n.id)
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrUnresolvedTarget, n.id)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target == nil {
		n.target = target
	}
	return nil
}

// Effective returns the node whose fields are searched: the target of a
// resolved reference, otherwise the node itself.
func (n *Node) Effective() *Node {
	if t := n.Target(); t != nil {
		return t
	}
	return n
}

// DisplayName is the effective node's name, falling back to its id.
func (n *Node) DisplayName() string {
	e := n.Effective()
	if name := e.Name(); name != "" {
		return name
	}
	return e.ID()
}

// Members returns a copy of a group's loaded members.
func (n *Node) Members() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Node(nil), n.members...)
}

// MembersLoaded reports whether a group's members have been attached.
func (n *Node) MembersLoaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.membersLoaded
}

// SetMembers attaches a group's members. Only the first call takes effect.
// It reports whether the members were attached by this call.
func (n *Node) SetMembers(members []*Node) (bool, error) {
	if n.kind != KindGroup {
		return false, fmt.Errorf("%w: %s", ErrNotGroup, n.id)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.membersLoaded {
		return false, nil
	}
	n.members = append([]*Node(nil), members...)
	n.membersLoaded = true
	return true, nil
}

// NeedsExpansion reports whether the node still hides content: an unresolved
// reference or a group whose members are not loaded.
func (n *Node) NeedsExpansion() bool {
	switch n.kind {
	case KindReference:
		return !n.IsResolved()
	case KindGroup:
		return !n.MembersLoaded()
	default:
		return false
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.kind, n.id)
}
