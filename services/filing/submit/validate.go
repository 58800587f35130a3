// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package submit assembles the wizard state into a submission payload,
// validates it, and posts it to the backend.
package submit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alpinetax/filingkit/services/filing"
)

// ssnPattern accepts SSNs with or without dashes (123-45-6789, 123456789).
var ssnPattern = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)

// ValidationResult carries human-readable reasons a form cannot be
// submitted. Validation failures are messages, never errors: the caller
// decides whether to block.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateFormData checks submission readiness: SSN shape, at least one
// completed document anywhere in the form (fixed categories and nested
// income-source documents both count), and no document still uploading or
// in error.
func ValidateFormData(form filing.TaxFormData) ValidationResult {
	var errs []string

	ssn := strings.TrimSpace(form.SocialSecurityNumber)
	switch {
	case ssn == "":
		errs = append(errs, "Social Security Number is required")
	case !ssnPattern.MatchString(ssn):
		errs = append(errs, "Social Security Number must be in the format XXX-XX-XXXX")
	}

	var completed, pending, failed int
	for _, doc := range form.AllDocuments() {
		switch doc.Status {
		case filing.DocumentCompleted:
			completed++
		case filing.DocumentUploading:
			pending++
		case filing.DocumentError:
			failed++
		}
	}

	if completed == 0 {
		errs = append(errs, "At least one document must be uploaded before submitting")
	}
	if pending > 0 {
		errs = append(errs, fmt.Sprintf("%d document(s) are still uploading, please wait for them to finish", pending))
	}
	if failed > 0 {
		errs = append(errs, fmt.Sprintf("%d document(s) failed to upload, please remove or replace them", failed))
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
