package surface

import (
	"io"
	"strings"
	"sync"
)

// Surface is a live element tree indexed by id. Patches go through Patch so
// that readers never observe a half-applied update.
type Surface struct {
	mu      sync.RWMutex
	root    *Node
	byID    map[string]*Node
	version uint64
}

// New wraps root and indexes every element carrying an id.
func New(root *Node) *Surface {
	s := &Surface{root: root, byID: make(map[string]*Node)}
	s.index(root)
	return s
}

func (s *Surface) index(n *Node) {
	n.walk(func(c *Node) {
		if id := c.ID(); id != "" {
			s.byID[id] = c
		}
	})
}

func (s *Surface) unindex(n *Node) {
	n.walk(func(c *Node) {
		if id := c.ID(); id != "" && s.byID[id] == c {
			delete(s.byID, id)
		}
	})
}

// Tx is the write handle passed to Patch. It must not escape the callback.
type Tx struct {
	s       *Surface
	changed bool
}

// Patch runs fn with exclusive access. The version moves forward only when
// fn actually changed something.
func (s *Surface) Patch(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{s: s}
	fn(tx)
	if tx.changed {
		s.version++
	}
}

// SetText replaces the children of id with a single text node. It reports
// false when id does not exist.
func (tx *Tx) SetText(id, text string) bool {
	n, ok := tx.s.byID[id]
	if !ok {
		return false
	}
	if len(n.Children) == 1 && n.Children[0].Tag == "" && n.Children[0].Text == text {
		return true
	}
	tx.replace(n, []*Node{Text(text)})
	return true
}

// ReplaceChildren swaps every child of id for children.
func (tx *Tx) ReplaceChildren(id string, children ...*Node) bool {
	n, ok := tx.s.byID[id]
	if !ok {
		return false
	}
	if sameHTML(n.Children, children) {
		return true
	}
	tx.replace(n, children)
	return true
}

func (tx *Tx) replace(n *Node, children []*Node) {
	for _, c := range n.Children {
		tx.s.unindex(c)
	}
	n.Children = append([]*Node(nil), children...)
	for _, c := range n.Children {
		tx.s.index(c)
	}
	tx.changed = true
}

// TruncateChildren removes every child of id past the first keep and
// returns how many were removed.
func (tx *Tx) TruncateChildren(id string, keep int) int {
	n, ok := tx.s.byID[id]
	if !ok || len(n.Children) <= keep {
		return 0
	}
	if keep < 0 {
		keep = 0
	}
	removed := n.Children[keep:]
	for _, c := range removed {
		tx.s.unindex(c)
	}
	n.Children = n.Children[:keep:keep]
	tx.changed = true
	return len(removed)
}

// AppendChildren adds children at the end of id.
func (tx *Tx) AppendChildren(id string, children ...*Node) bool {
	n, ok := tx.s.byID[id]
	if !ok {
		return false
	}
	if len(children) == 0 {
		return true
	}
	n.Children = append(n.Children, children...)
	for _, c := range children {
		tx.s.index(c)
	}
	tx.changed = true
	return true
}

// SetAttr sets an attribute on id. An empty value removes it.
func (tx *Tx) SetAttr(id, key, value string) bool {
	n, ok := tx.s.byID[id]
	if !ok {
		return false
	}
	old, had := n.Attrs[key]
	switch {
	case value == "" && had:
		delete(n.Attrs, key)
	case value != "" && old != value:
		n.Attrs[key] = value
	default:
		return true
	}
	tx.changed = true
	return true
}

// Version counts effective patches.
func (s *Surface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Has reports whether an element with id exists.
func (s *Surface) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Text returns the text content of id.
func (s *Surface) Text(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byID[id]; ok {
		return n.TextContent()
	}
	return ""
}

// Attr returns an attribute of id.
func (s *Surface) Attr(id, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return "", false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// ChildCount returns the number of children of id.
func (s *Surface) ChildCount(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byID[id]; ok {
		return len(n.Children)
	}
	return 0
}

// Cells returns the text of every cell of every row under id, in order.
func (s *Surface) Cells(id string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return nil
	}
	rows := make([][]string, 0, len(n.Children))
	for _, row := range n.Children {
		cells := make([]string, 0, len(row.Children))
		for _, cell := range row.Children {
			cells = append(cells, cell.TextContent())
		}
		rows = append(rows, cells)
	}
	return rows
}

// Classes returns the class attribute of the first descendant of id that
// has one, or of id itself.
func (s *Surface) Classes(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return ""
	}
	var class string
	n.walk(func(c *Node) {
		if class == "" && c != n {
			class = c.Attrs["class"]
		}
	})
	if class == "" {
		class = n.Attrs["class"]
	}
	return class
}

// InnerHTML serializes the children of id.
func (s *Surface) InnerHTML(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return "", false
	}
	var b strings.Builder
	for _, c := range n.Children {
		c.writeHTML(&b)
	}
	return b.String(), true
}

// WriteHTML serializes the whole tree.
func (s *Surface) WriteHTML(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.WriteHTML(w)
}

// HTML serializes the whole tree.
func (s *Surface) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.HTML()
}

func sameHTML(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].HTML() != b[i].HTML() {
			return false
		}
	}
	return true
}
