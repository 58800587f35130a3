// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package filing defines the data model for the tax-filing client core:
// the wizard form, uploaded documents, income sources, and dependents.
//
// Field names in the JSON tags match the wire format the backend and the
// mobile shell already speak; do not rename them casually.
package filing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus is the transfer state of one uploaded document.
type DocumentStatus string

const (
	// DocumentUploading is the initial state, set synchronously when the
	// user picks a file and before any bytes move.
	DocumentUploading DocumentStatus = "uploading"

	// DocumentCompleted means the transfer finished and RemotePath and
	// PublicURL are populated.
	DocumentCompleted DocumentStatus = "completed"

	// DocumentError means the transfer failed. The record is retained so
	// the user can see the failure and replace or delete the entry.
	DocumentError DocumentStatus = "error"
)

// Category identifies which wizard section a document belongs to.
type Category string

// The eight fixed document categories. Income-source documents live in a
// ninth, dynamically keyed space under AdditionalIncomeSource.Documents.
const (
	CategoryPreviousYearTax         Category = "previousYearTax"
	CategoryW2Forms                 Category = "w2Forms"
	CategoryAdditionalIncomeGeneral Category = "additionalIncomeGeneral"
	CategoryMedical                 Category = "medical"
	CategoryEducation               Category = "education"
	CategoryDependentChildren       Category = "dependentChildren"
	CategoryHomeownerDeduction      Category = "homeownerDeduction"
	CategoryPersonalID              Category = "personalId"
)

// FixedCategories lists the fixed categories in wizard order.
var FixedCategories = []Category{
	CategoryPreviousYearTax,
	CategoryW2Forms,
	CategoryAdditionalIncomeGeneral,
	CategoryMedical,
	CategoryEducation,
	CategoryDependentChildren,
	CategoryHomeownerDeduction,
	CategoryPersonalID,
}

// UploadedDocument is one user-selected file and its transfer state.
//
// Invariant: RemotePath and PublicURL are set if and only if Status is
// DocumentCompleted. Only completed documents are submittable.
type UploadedDocument struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	MimeType        string         `json:"mimeType"`
	SizeBytes       int64          `json:"sizeBytes"`
	Status          DocumentStatus `json:"status"`
	ProgressPercent int            `json:"progressPercent"`
	Category        Category       `json:"category"`
	LocalURI        string         `json:"localUri,omitempty"`
	RemotePath      string         `json:"remotePath,omitempty"`
	PublicURL       string         `json:"publicUrl,omitempty"`
	PreviewURI      string         `json:"previewUri,omitempty"`
	IsImage         bool           `json:"isImage"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Submittable reports whether the document can be included in a submission.
func (d UploadedDocument) Submittable() bool {
	return d.Status == DocumentCompleted && d.RemotePath != "" && d.PublicURL != ""
}

// AdditionalIncomeSource is a user-declared income line item with its own
// document list, independent from the fixed categories.
type AdditionalIncomeSource struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Amount      string             `json:"amount"`
	Description string             `json:"description,omitempty"`
	Documents   []UploadedDocument `json:"documents"`
}

// DeclaredAmount parses Amount for aggregation. Unparsable or negative
// amounts count as zero; the stored string is never corrected.
func (s AdditionalIncomeSource) DeclaredAmount() decimal.Decimal {
	amt, err := decimal.NewFromString(strings.TrimSpace(s.Amount))
	if err != nil || amt.IsNegative() {
		return decimal.Zero
	}
	return amt
}

// Dependent is a claimed dependent for credit purposes. Age is kept as the
// raw numeric string the user typed.
type Dependent struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Age          string `json:"age"`
	Relationship string `json:"relationship"`
}

// Blank reports whether the dependent has no usable fields. Blank
// dependents are dropped at submission time.
func (d Dependent) Blank() bool {
	return strings.TrimSpace(d.Name) == "" &&
		strings.TrimSpace(d.Age) == "" &&
		strings.TrimSpace(d.Relationship) == ""
}

// NewDependent returns an empty dependent with a fresh id.
func NewDependent() Dependent {
	return Dependent{ID: uuid.NewString()}
}

// TaxFormData is the full wizard form state.
type TaxFormData struct {
	SocialSecurityNumber string `json:"socialSecurityNumber"`

	PreviousYearTax         []UploadedDocument `json:"previousYearTax"`
	W2Forms                 []UploadedDocument `json:"w2Forms"`
	AdditionalIncomeGeneral []UploadedDocument `json:"additionalIncomeGeneral"`
	Medical                 []UploadedDocument `json:"medical"`
	Education               []UploadedDocument `json:"education"`
	DependentChildren       []UploadedDocument `json:"dependentChildren"`
	HomeownerDeduction      []UploadedDocument `json:"homeownerDeduction"`
	PersonalID              []UploadedDocument `json:"personalId"`

	HasAdditionalIncome     bool                     `json:"hasAdditionalIncome"`
	AdditionalIncomeSources []AdditionalIncomeSource `json:"additionalIncomeSources"`
}

// NewTaxFormData returns an empty form with all category slices initialized.
func NewTaxFormData() TaxFormData {
	return TaxFormData{
		PreviousYearTax:         []UploadedDocument{},
		W2Forms:                 []UploadedDocument{},
		AdditionalIncomeGeneral: []UploadedDocument{},
		Medical:                 []UploadedDocument{},
		Education:               []UploadedDocument{},
		DependentChildren:       []UploadedDocument{},
		HomeownerDeduction:      []UploadedDocument{},
		PersonalID:              []UploadedDocument{},
		AdditionalIncomeSources: []AdditionalIncomeSource{},
	}
}

// categorySlots maps each fixed category to an accessor for its document
// slice. Upload, progress patching, deletion, and submission flattening all
// go through this single table so the category wiring cannot drift.
var categorySlots = map[Category]func(*TaxFormData) *[]UploadedDocument{
	CategoryPreviousYearTax:         func(f *TaxFormData) *[]UploadedDocument { return &f.PreviousYearTax },
	CategoryW2Forms:                 func(f *TaxFormData) *[]UploadedDocument { return &f.W2Forms },
	CategoryAdditionalIncomeGeneral: func(f *TaxFormData) *[]UploadedDocument { return &f.AdditionalIncomeGeneral },
	CategoryMedical:                 func(f *TaxFormData) *[]UploadedDocument { return &f.Medical },
	CategoryEducation:               func(f *TaxFormData) *[]UploadedDocument { return &f.Education },
	CategoryDependentChildren:       func(f *TaxFormData) *[]UploadedDocument { return &f.DependentChildren },
	CategoryHomeownerDeduction:      func(f *TaxFormData) *[]UploadedDocument { return &f.HomeownerDeduction },
	CategoryPersonalID:              func(f *TaxFormData) *[]UploadedDocument { return &f.PersonalID },
}

// DocumentSlot returns a pointer to the slice owning the given category,
// or false for a category outside the fixed vocabulary.
func (f *TaxFormData) DocumentSlot(c Category) (*[]UploadedDocument, bool) {
	slot, ok := categorySlots[c]
	if !ok {
		return nil, false
	}
	return slot(f), true
}

// IncomeSource returns the income source with the given id, or nil.
func (f *TaxFormData) IncomeSource(id string) *AdditionalIncomeSource {
	for i := range f.AdditionalIncomeSources {
		if f.AdditionalIncomeSources[i].ID == id {
			return &f.AdditionalIncomeSources[i]
		}
	}
	return nil
}

// AllDocuments flattens the fixed categories plus every income source's
// nested documents, in category order then source order.
func (f *TaxFormData) AllDocuments() []UploadedDocument {
	var docs []UploadedDocument
	for _, c := range FixedCategories {
		slot, _ := f.DocumentSlot(c)
		docs = append(docs, *slot...)
	}
	for _, src := range f.AdditionalIncomeSources {
		docs = append(docs, src.Documents...)
	}
	return docs
}

// Clone returns a deep copy. Handed out by the wizard so callers can never
// mutate shared slices behind its mutex.
func (f TaxFormData) Clone() TaxFormData {
	out := f
	for _, c := range FixedCategories {
		src, _ := f.DocumentSlot(c)
		dst, _ := out.DocumentSlot(c)
		*dst = append([]UploadedDocument(nil), *src...)
	}
	out.AdditionalIncomeSources = make([]AdditionalIncomeSource, len(f.AdditionalIncomeSources))
	for i, s := range f.AdditionalIncomeSources {
		s.Documents = append([]UploadedDocument(nil), s.Documents...)
		out.AdditionalIncomeSources[i] = s
	}
	return out
}

// TotalDeclaredIncome sums the parsable, non-negative income-source amounts.
func (f *TaxFormData) TotalDeclaredIncome() decimal.Decimal {
	total := decimal.Zero
	for _, src := range f.AdditionalIncomeSources {
		total = total.Add(src.DeclaredAmount())
	}
	return total
}

// imageMimePrefixes and imageExtensions drive IsImageFile. The extension
// fallback covers pickers that hand over files without a mime type.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".heic": true, ".heif": true, ".webp": true, ".bmp": true,
}

// IsImageFile reports whether a file should get an inline image preview.
func IsImageFile(mimeType, name string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return true
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return imageExtensions[strings.ToLower(name[i:])]
	}
	return false
}
