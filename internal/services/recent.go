package services

// RecentList is a bounded, duplicate-free list of poem ids in the order they
// were first shown. It is not safe for concurrent use; PoemService guards it.
type RecentList struct {
	limit int
	ids   []string
}

// NewRecentList returns an empty list holding at most limit ids. A limit
// below 1 is treated as 1.
func NewRecentList(limit int) *RecentList {
	if limit < 1 {
		limit = 1
	}
	return &RecentList{limit: limit, ids: make([]string, 0, limit+1)}
}

// Add appends id unless it is already present (no reordering), then drops the
// oldest entries beyond the limit.
func (l *RecentList) Add(id string) {
	if l.index(id) >= 0 {
		return
	}
	l.ids = append(l.ids, id)
	if over := len(l.ids) - l.limit; over > 0 {
		l.ids = append(l.ids[:0], l.ids[over:]...)
	}
}

// Remove deletes id if present and reports whether it was.
func (l *RecentList) Remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.ids = append(l.ids[:i], l.ids[i+1:]...)
	return true
}

// IDs returns a copy of the list, oldest first.
func (l *RecentList) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Len returns the number of ids held.
func (l *RecentList) Len() int { return len(l.ids) }

// Limit returns the capacity the list was built with.
func (l *RecentList) Limit() int { return l.limit }

func (l *RecentList) index(id string) int {
	for i, v := range l.ids {
		if v == id {
			return i
		}
	}
	return -1
}
