// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers

import "sync"

// pagedListPageSize is the number of elements per page. It is a
// compromise: small enough that a mostly-empty PagedList doesn't
// waste much memory, large enough that growth doesn't happen often.
const pagedListPageSize = 1024

// PagedList[T] is an append-only array whose element addresses never
// move. Growth allocates a whole new page rather than reallocating
// and copying existing pages, so a *T handed out by At or Append
// stays valid for the lifetime of the PagedList.
//
// This is what lets registry.Registry keep a raw pointer to a slot's
// atomic lock word across concurrent register_key calls that grow
// the backing storage: a regular growable slice would invalidate
// every outstanding pointer on reallocation.
type PagedList[T any] struct {
	mu    sync.RWMutex
	pages [][]T
	n     int
}

// Len returns the number of elements appended so far.
func (l *PagedList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.n
}

// At returns a stable pointer to the element at idx. The pointer
// remains valid for the lifetime of l, even across later Append
// calls.
func (l *PagedList[T]) At(idx int) *T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx < 0 || idx >= l.n {
		panic("containers.PagedList.At: index out of range")
	}
	page, offset := idx/pagedListPageSize, idx%pagedListPageSize
	return &l.pages[page][offset]
}

// Append adds a zero-valued T and returns its index and a stable
// pointer to it, growing the page list if the current last page is
// full.
func (l *PagedList[T]) Append() (int, *T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	page, offset := l.n/pagedListPageSize, l.n%pagedListPageSize
	if offset == 0 {
		l.pages = append(l.pages, make([]T, pagedListPageSize))
	}
	idx := l.n
	l.n++
	return idx, &l.pages[page][offset]
}
