package linkedlist

import "errors"

var (
	ErrDuplicateKey = errors.New("linkedlist: duplicate key")
	ErrCorrupt      = errors.New("linkedlist: corrupt chain")
)
