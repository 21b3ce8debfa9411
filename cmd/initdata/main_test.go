package main

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFakeFacultyPassesServerValidation(t *testing.T) {
	phone := regexp.MustCompile(`^\+\d{10,15}$`)

	for range 20 {
		f := fakeFaculty()

		assert.Regexp(t, phone, f["phone"])
		assert.Regexp(t, `@`+regexp.QuoteMeta(*domain)+`$`, f["email"])
		assert.Regexp(t, `[A-Z]`, f["password"])
		assert.Regexp(t, `[a-z]`, f["password"])
		assert.Regexp(t, `[0-9]`, f["password"])
		assert.GreaterOrEqual(t, len(f["password"]), 8)
		assert.Contains(t, specializations, f["specialization"])
	}
}
