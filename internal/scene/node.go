package scene

// Node types produced by the structural decoders.
const (
	TypeScene    = "scene"
	TypeNode     = "node"
	TypeMesh     = "mesh"
	TypeObject   = "object"
	TypeGroup    = "group"
	TypeMaterial = "material"
	TypeModel    = "model"
)

// Node is one element of a decoded scene hierarchy.
type Node struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// NewNode returns a node with no children.
func NewNode(name, typ string) *Node {
	return &Node{Name: name, Type: typ}
}

// Add appends children to n and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// SetAttr records a string attribute on n.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(depth int, node *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) {
	if n == nil {
		return
	}
	if !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(int, *Node) bool {
		count++
		return true
	})
	return count
}

// Find returns the first node, depth first, whose name is name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(_ int, node *Node) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}
