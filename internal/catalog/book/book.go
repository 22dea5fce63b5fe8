// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package book defines the core domain entities for the Chaptra catalogue.

It manages the lifecycle of sellable publications: book metadata, the blob
keys of the cover and PDF, and the ordered chapter list with per-chapter
pricing.

Core Responsibility:

  - Catalogue: Book metadata (name, subject, tags, table of contents).
  - Pricing: Book price is always the sum of its chapter prices.
  - Media: Cover and PDF live in the object store; entities hold only keys.

This package acts as the source of truth for all content-related data models.
*/
package book

import "time"

// # Core Entities

// Book is the central aggregate of the Chaptra catalogue.
// It represents a single publication offered for chapter-level access.
type Book struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"` // URL-safe identifier
	Subject  string   `json:"subject"`
	Tags     []string `json:"tags,omitempty"`
	Contents string   `json:"contents,omitempty"` // Table of contents / description

	// Blob keys are internal; clients receive presigned URLs instead.
	CoverKey string `json:"-"`
	PDFKey   string `json:"-"`

	// CoverURL and PDFURL are presigned, short-lived, and computed on read.
	CoverURL string `json:"cover_url,omitempty"`
	PDFURL   string `json:"pdf_url,omitempty"`

	// Price is derived: the sum of all chapter prices, recomputed on
	// every save. Stored denormalized for cheap list queries.
	Price int64 `json:"price"`

	Chapters []Chapter `json:"chapters,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chapter is a priced, ordered slice of a [Book]'s page range.
type Chapter struct {
	ID          string `json:"id"`
	BookID      string `json:"book_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PageFrom    int    `json:"page_from"`
	PageTo      int    `json:"page_to"`
	Price       int64  `json:"price"`
	OrderIndex  int    `json:"order_index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecomputePrice re-derives the book price from its chapters.
//
// # Invariant
//
// Book.Price equals the sum of chapter prices after every save path.
// Callers must invoke this before persisting.
func (book *Book) RecomputePrice() {
	var total int64
	for _, chapter := range book.Chapters {
		total += chapter.Price
	}
	book.Price = total
}

// DuplicateOrderIndexes returns order indexes used by more than one chapter.
// Duplicates are legal (advisory only) but worth surfacing to admins.
func (book *Book) DuplicateOrderIndexes() []int {
	seen := make(map[int]int, len(book.Chapters))
	for _, chapter := range book.Chapters {
		seen[chapter.OrderIndex]++
	}

	var duplicates []int
	for index, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, index)
		}
	}
	return duplicates
}

// # Search & Filtering

// Filter holds the parameters for a filtered book list query.
type Filter struct {
	Query   string `json:"q,omitempty"` // Matches name and subject
	Subject string `json:"subject,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Sort    string `json:"sort,omitempty"`     // latest, az, price
	SortDir string `json:"sort_dir,omitempty"` // "asc" or "desc"
}

// # Field Identifiers

// Global field names for validation and dynamic query mapping.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldSlug     = "slug"
	FieldSubject  = "subject"
	FieldTags     = "tags"
	FieldContents = "contents"
	FieldChapters = "chapters"
	FieldCover    = "cover"
	FieldPDF      = "pdf"
)

// Field identifiers for the [Chapter] value object.
const (
	FieldChapterName = "chapters.name"
	FieldPageFrom    = "chapters.page_from"
	FieldPageTo      = "chapters.page_to"
	FieldPrice       = "chapters.price"
	FieldOrderIndex  = "chapters.order_index"
)
