package layers

type OpKind int

const (
	OpAdd OpKind = iota
	OpInsert
	OpDelete
	OpClear
	OpMoveForward
	OpMoveBackward
	OpMoveToFront
	OpMoveToBack
	OpRestore
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpClear:
		return "clear"
	case OpMoveForward:
		return "move-forward"
	case OpMoveBackward:
		return "move-backward"
	case OpMoveToFront:
		return "move-to-front"
	case OpMoveToBack:
		return "move-to-back"
	case OpRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Op is one structural change inside a commit. Index is the key's position
// once the op applied, or -1 when the key left the list.
type Op struct {
	Kind  OpKind
	Key   string
	Index int
}

// Change is emitted once per commit, after the chain, the table and every
// cached index agree again. Values is shared between subscribers and must
// not be modified.
type Change[T any] struct {
	ID       string
	Revision uint64
	Ops      []Op
	Values   []T
}
