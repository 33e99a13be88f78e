package nestedset

// Record holds the tree columns of a node. Embed it in the node type.
type Record struct {
	Left  int64
	Right int64
	Level int64
	Scope int64
}

func (r *Record) NodeRecord() *Record {
	return r
}

// InTree reports if the node was attached to a tree. A node that is not in the tree is detached.
func (r *Record) InTree() bool {
	return r.Left > 0 && r.Right > r.Left
}

func (r *Record) isRoot() bool {
	return r.InTree() && r.Left == 1
}

func (r *Record) isLeaf() bool {
	return r.InTree() && r.Right-r.Left == 1
}

// width is the number of labels used by the node and its descendants
func (r *Record) width() int64 {
	return r.Right - r.Left + 1
}

// encloses reports if o is inside the interval of r, ignoring scopes
func (r *Record) encloses(o *Record) bool {
	return r.Left < o.Left && r.Right > o.Right
}

// Node is implemented by the entities stored in a tree.
//
//	type Category struct {
//		nestedset.Record
//		ID   int64
//		Name string
//	}
//
//	func (c *Category) KeyRef() *int64          { return &c.ID }
//	func (c *Category) Payload() []interface{} { return []interface{}{&c.Name} }
type Node interface {
	NodeRecord() *Record
	// KeyRef points to the primary key. A zero key is generated by the database on insert.
	KeyRef() *int64
	// Payload points to the non tree fields, in the order of the mapping payload columns
	Payload() []interface{}
}
