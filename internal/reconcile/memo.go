package reconcile

import lru "github.com/hashicorp/golang-lru/v2"

// Memo remembers remote id to element id lookups for the lifetime of one
// sync run. A nil Memo remembers nothing.
type Memo struct {
	c *lru.Cache[string, string]
}

func NewMemo(size int) *Memo {
	if size <= 0 {
		size = defaultMemoSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil
	}
	return &Memo{c: c}
}

func (m *Memo) Get(remoteID string) (string, bool) {
	if m == nil {
		return "", false
	}
	return m.c.Get(remoteID)
}

func (m *Memo) Set(remoteID, elementID string) {
	if m == nil {
		return
	}
	m.c.Add(remoteID, elementID)
}
