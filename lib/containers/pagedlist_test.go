// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oriumgames/navgraph/lib/containers"
)

func TestPagedListStableAddresses(t *testing.T) {
	t.Parallel()
	var l containers.PagedList[uint32]

	idx0, ptr0 := l.Append()
	*ptr0 = 111

	// Append enough elements to force at least one page boundary
	// crossing, then confirm ptr0 is still valid and unmoved.
	var ptrs []*uint32
	for i := 0; i < 5000; i++ {
		_, p := l.Append()
		ptrs = append(ptrs, p)
	}

	assert.Equal(t, uint32(111), *ptr0)
	assert.Equal(t, uint32(111), *l.At(idx0))
	assert.Equal(t, 5001, l.Len())

	for i, p := range ptrs {
		*p = uint32(i)
	}
	for i, p := range ptrs {
		assert.Equal(t, uint32(i), *p)
	}
}

func TestPagedListAtOutOfRangePanics(t *testing.T) {
	t.Parallel()
	var l containers.PagedList[int]
	l.Append()
	assert.Panics(t, func() { l.At(1) })
}
