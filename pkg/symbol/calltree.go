package symbol

// Frame is one resolved stack frame: a function name, the file and
// source line it maps to when known, and an Address that disambiguates
// two inlined or unresolved frames that happen to share a name.
type Frame struct {
	Function string
	File     string
	Line     int64
	Address  uint64
}

// CallTree aggregates repeated call stacks into a tree of counted
// frames, the way a flame graph does: every sample walks the tree
// root to leaf, incrementing the total at each node it visits (or
// creating the node on first visit) rather than storing one entry
// per sample. This keeps memory proportional to the number of
// distinct call paths observed, not the number of samples. Each node
// also tracks self: the samples for which this frame was the leaf,
// as opposed to total, which also counts samples that continued on
// into a descendant.
type CallTree struct {
	root *node
}

type node struct {
	frame    Frame
	total    uint64
	self     uint64
	value    int64
	children map[Frame]*node
}

func newNode(f Frame) *node {
	return &node{frame: f, children: make(map[Frame]*node)}
}

// NewCallTree returns an empty call tree.
func NewCallTree() *CallTree {
	return &CallTree{root: newNode(Frame{})}
}

// Ingest adds one observed stack to the tree, root (outermost) frame
// first. value is an additional weight (e.g. nanoseconds of CPU time)
// attributed to the leaf frame; pass 1 to just count occurrences. The
// deepest frame's node has its self count incremented; every node on
// the path, including that one, has its total count incremented.
func (t *CallTree) Ingest(stack []Frame, value int64) {
	n := t.root
	n.total++
	n.value += value
	for i, f := range stack {
		child, ok := n.children[f]
		if !ok {
			child = newNode(f)
			n.children[f] = child
		}
		child.total++
		child.value += value
		if i == len(stack)-1 {
			child.self++
		}
		n = child
	}
}

// Merge combines other into t, summing counts for any call path both
// trees observed. This is the monoid operation that lets call trees
// built per-CPU or per-worker be combined without re-walking samples:
// (CallTree, Merge) forms a commutative monoid with NewCallTree() as
// identity.
func (t *CallTree) Merge(other *CallTree) {
	mergeNode(t.root, other.root)
}

func mergeNode(dst, src *node) {
	dst.total += src.total
	dst.self += src.self
	dst.value += src.value
	for f, srcChild := range src.children {
		dstChild, ok := dst.children[f]
		if !ok {
			dstChild = newNode(f)
			dst.children[f] = dstChild
		}
		mergeNode(dstChild, srcChild)
	}
}

// Path is one root-to-node call path with its accumulated counts and
// value, as returned by Flatten. Count is the total samples that
// passed through this node (this frame or one of its descendants);
// Self is the samples for which this frame was the leaf.
type Path struct {
	Frames []Frame
	Count  uint64
	Self   uint64
	Value  int64
}

// Flatten returns every distinct call path in the tree along with its
// accumulated counts and value, in depth-first order.
func (t *CallTree) Flatten() []Path {
	var out []Path
	var walk func(n *node, prefix []Frame)
	walk = func(n *node, prefix []Frame) {
		if len(prefix) > 0 {
			frames := make([]Frame, len(prefix))
			copy(frames, prefix)
			out = append(out, Path{Frames: frames, Count: n.total, Self: n.self, Value: n.value})
		}
		for f, child := range n.children {
			walk(child, append(prefix, f))
		}
	}
	walk(t.root, nil)
	return out
}

// TotalSamples returns the number of stacks ingested into the tree.
func (t *CallTree) TotalSamples() uint64 {
	return t.root.total
}
