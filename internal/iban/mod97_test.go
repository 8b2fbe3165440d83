package iban

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidSlovakIBAN(t *testing.T) {
	d := Validate("SK89 7500 0000 0000 1234 5671")
	assert.True(t, d.Valid)
	assert.Equal(t, IssueNone, d.Issue)
	assert.Equal(t, "SK8975000000000012345671", d.Normalized)
}

func TestValidate_TooShort(t *testing.T) {
	d := Validate("SK20 0200 0000 0014 7073 725") // 23 chars, SK expects 24
	assert.False(t, d.Valid)
	assert.Equal(t, IssueTooShort, d.Issue)
	assert.Equal(t, 24, d.Expected)
	assert.Equal(t, 23, d.Actual)
}

func TestValidate_TooLong(t *testing.T) {
	d := Validate("SK2002000000001470737255999")
	assert.False(t, d.Valid)
	assert.Equal(t, IssueTooLong, d.Issue)
}

func TestValidate_ChecksumFailed(t *testing.T) {
	// Valid-length SK IBAN with a digit flipped, breaking the checksum.
	d := Validate("SK8975000000000012345672")
	assert.False(t, d.Valid)
	assert.Equal(t, IssueChecksumFailed, d.Issue)
}

func TestValidate_StructurallyInvalid(t *testing.T) {
	d := Validate("not-an-iban")
	assert.False(t, d.Valid)
	assert.Equal(t, IssueInvalid, d.Issue)
}

func TestValidate_Missing(t *testing.T) {
	d := Validate("")
	assert.False(t, d.Valid)
	assert.Equal(t, IssueMissing, d.Issue)
}

func TestValidate_StableUnderWhitespaceAndCase(t *testing.T) {
	a := Validate("SK89 7500 0000 0000 1234 5671")
	b := Validate("sk8975000000000012345671")
	assert.Equal(t, a.Valid, b.Valid)
	assert.Equal(t, a.Normalized, b.Normalized)
}

func TestCharSimilarity(t *testing.T) {
	same := CharSimilarity("SK8975000000000012345671", "SK8975000000000012345671")
	assert.Equal(t, 1.0, same)

	oneOff := CharSimilarity("SK8975000000000012345671", "SK8975000000000012345679")
	assert.Greater(t, oneOff, 0.8)

	empty := CharSimilarity("", "SK8975000000000012345671")
	assert.Equal(t, 0.0, empty)
}
