package monitoring

import (
	"container/list"

	"gitlab.com/akita/lrusim/pager"
)

// history keeps snapshots ordered by their clock. If capacity is not 0, only
// the latest capacity snapshots are kept.
type history struct {
	l        *list.List
	capacity int
}

func newHistory(capacity int) *history {
	return &history{
		l:        list.New(),
		capacity: capacity,
	}
}

func (h *history) Len() int {
	return h.l.Len()
}

func (h *history) Push(s pager.Snapshot) {
	var ele *list.Element

	for ele = h.l.Front(); ele != nil; ele = ele.Next() {
		if s.Clock.Before(ele.Value.(pager.Snapshot).Clock) {
			break
		}
	}

	if ele != nil {
		h.l.InsertBefore(s, ele)
	} else {
		h.l.PushBack(s)
	}

	if h.capacity != 0 && h.l.Len() > h.capacity {
		h.l.Remove(h.l.Front())
	}
}

func (h *history) Latest() (pager.Snapshot, bool) {
	back := h.l.Back()
	if back == nil {
		return pager.Snapshot{}, false
	}
	return back.Value.(pager.Snapshot), true
}

func (h *history) All() []pager.Snapshot {
	all := make([]pager.Snapshot, 0, h.l.Len())
	for ele := h.l.Front(); ele != nil; ele = ele.Next() {
		all = append(all, ele.Value.(pager.Snapshot))
	}
	return all
}
