// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package filing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmittable(t *testing.T) {
	tests := []struct {
		name string
		doc  UploadedDocument
		want bool
	}{
		{"completed with remote fields", UploadedDocument{Status: DocumentCompleted, RemotePath: "p", PublicURL: "u"}, true},
		{"completed missing remote path", UploadedDocument{Status: DocumentCompleted, PublicURL: "u"}, false},
		{"completed missing public url", UploadedDocument{Status: DocumentCompleted, RemotePath: "p"}, false},
		{"still uploading", UploadedDocument{Status: DocumentUploading, RemotePath: "p", PublicURL: "u"}, false},
		{"errored", UploadedDocument{Status: DocumentError}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.Submittable())
		})
	}
}

func TestDeclaredAmount(t *testing.T) {
	assert.True(t, AdditionalIncomeSource{Amount: "1250.50"}.DeclaredAmount().Equal(decimal.RequireFromString("1250.50")))
	assert.True(t, AdditionalIncomeSource{Amount: " 300 "}.DeclaredAmount().Equal(decimal.NewFromInt(300)))
	assert.True(t, AdditionalIncomeSource{Amount: "abc"}.DeclaredAmount().IsZero())
	assert.True(t, AdditionalIncomeSource{Amount: ""}.DeclaredAmount().IsZero())
	assert.True(t, AdditionalIncomeSource{Amount: "-50"}.DeclaredAmount().IsZero())
}

func TestTotalDeclaredIncome(t *testing.T) {
	form := NewTaxFormData()
	form.AdditionalIncomeSources = []AdditionalIncomeSource{
		{ID: "a", Amount: "100.25"},
		{ID: "b", Amount: "not-a-number"},
		{ID: "c", Amount: "49.75"},
	}
	assert.True(t, form.TotalDeclaredIncome().Equal(decimal.NewFromInt(150)))
}

func TestDependentBlank(t *testing.T) {
	assert.True(t, NewDependent().Blank())
	assert.True(t, Dependent{Name: "  "}.Blank())
	assert.False(t, Dependent{Name: "Ada"}.Blank())
	assert.False(t, Dependent{Age: "7"}.Blank())
	assert.False(t, Dependent{Relationship: "son"}.Blank())
}

func TestDocumentSlotVocabulary(t *testing.T) {
	form := NewTaxFormData()
	for _, c := range FixedCategories {
		slot, ok := form.DocumentSlot(c)
		require.True(t, ok, "category %s", c)
		require.NotNil(t, slot)
	}
	_, ok := form.DocumentSlot(Category("bogus"))
	assert.False(t, ok)
}

func TestAllDocumentsFlattens(t *testing.T) {
	form := NewTaxFormData()
	form.W2Forms = []UploadedDocument{{ID: "w1"}}
	form.Medical = []UploadedDocument{{ID: "m1"}, {ID: "m2"}}
	form.AdditionalIncomeSources = []AdditionalIncomeSource{
		{ID: "src", Documents: []UploadedDocument{{ID: "s1"}}},
	}

	docs := form.AllDocuments()
	require.Len(t, docs, 4)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"w1", "m1", "m2", "s1"}, ids)
}

func TestCloneIsDeep(t *testing.T) {
	form := NewTaxFormData()
	form.Medical = []UploadedDocument{{ID: "m1", Name: "scan.png"}}
	form.AdditionalIncomeSources = []AdditionalIncomeSource{
		{ID: "src", Documents: []UploadedDocument{{ID: "s1", Name: "inv.pdf"}}},
	}

	clone := form.Clone()
	clone.Medical[0].Name = "tampered"
	clone.AdditionalIncomeSources[0].Documents[0].Name = "tampered"

	assert.Equal(t, "scan.png", form.Medical[0].Name)
	assert.Equal(t, "inv.pdf", form.AdditionalIncomeSources[0].Documents[0].Name)
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("image/png", "whatever.bin"))
	assert.True(t, IsImageFile("IMAGE/JPEG", "x"))
	assert.True(t, IsImageFile("", "photo.HEIC"))
	assert.True(t, IsImageFile("application/octet-stream", "pic.webp"))
	assert.False(t, IsImageFile("application/pdf", "doc.pdf"))
	assert.False(t, IsImageFile("", "archive"))
}
