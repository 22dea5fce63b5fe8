// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/chaptra/internal/catalog/book"
)

/*
TestBook_RecomputePrice verifies the derived-price invariant.
*/
func TestBook_RecomputePrice(t *testing.T) {
	b := &book.Book{
		Chapters: []book.Chapter{
			{Name: "Intro", Price: 10},
			{Name: "Advanced", Price: 20},
		},
	}

	b.RecomputePrice()
	assert.Equal(t, int64(30), b.Price)

	// Removing a chapter re-sums on the next compute
	b.Chapters = b.Chapters[:1]
	b.RecomputePrice()
	assert.Equal(t, int64(10), b.Price)

	// No chapters means a free book
	b.Chapters = nil
	b.RecomputePrice()
	assert.Equal(t, int64(0), b.Price)
}

/*
TestBook_DuplicateOrderIndexes verifies the advisory duplicate detection.
*/
func TestBook_DuplicateOrderIndexes(t *testing.T) {
	b := &book.Book{
		Chapters: []book.Chapter{
			{Name: "A", OrderIndex: 1},
			{Name: "B", OrderIndex: 2},
			{Name: "C", OrderIndex: 2},
		},
	}

	duplicates := b.DuplicateOrderIndexes()
	assert.Equal(t, []int{2}, duplicates)

	// Unique indexes report nothing
	b.Chapters[2].OrderIndex = 3
	assert.Empty(t, b.DuplicateOrderIndexes())
}
