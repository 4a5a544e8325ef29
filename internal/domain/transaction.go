// Package domain defines the core types and interfaces for fraudlens.
package domain

import "fmt"

// Schema field names. The record schema is fixed: one elapsed-time field,
// one monetary amount field, and 28 anonymized principal-component fields.
const (
	FieldTime   = "Time"
	FieldAmount = "Amount"

	// PCAFieldCount is the number of V1..V28 component fields.
	PCAFieldCount = 28
)

// FieldCount is the total number of fields in a transaction record.
const FieldCount = 2 + PCAFieldCount

// fieldNames is built once at init and never mutated.
var fieldNames = buildFieldNames()

func buildFieldNames() []string {
	names := make([]string, 0, FieldCount)
	names = append(names, FieldTime, FieldAmount)
	for i := 1; i <= PCAFieldCount; i++ {
		names = append(names, fmt.Sprintf("V%d", i))
	}
	return names
}

// FieldNames returns the full ordered schema field list (Time, Amount, V1..V28).
// The returned slice is a copy; callers may reorder it freely.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// IsSchemaField reports whether name is a valid schema field name.
// Field names are exact and case-sensitive.
func IsSchemaField(name string) bool {
	_, ok := fieldIndex[name]
	return ok
}

var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(fieldNames))
	for i, n := range fieldNames {
		idx[n] = i
	}
	return idx
}

// RawRecord is a caller-supplied transaction record before validation.
// Values are whatever the JSON decoder produced; the feature builder
// enforces presence, type, and finiteness.
type RawRecord map[string]any
