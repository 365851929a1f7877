// internal/models/entities.go
package models

import (
	"strconv"
)

// ValueKind tags the payload carried by an entity Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindDate
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// Value is a single extracted entity. Dates keep the literal word the user
// typed plus an optional day offset from today.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text"`
	Number float64   `json:"number,omitempty"`
	Offset *int      `json:"offset,omitempty"`
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Text: s}
}

func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Text: strconv.FormatFloat(n, 'f', -1, 64), Number: n}
}

// DateValue builds a date reference. offset is nil for weekday names.
func DateValue(word string, offset *int) Value {
	return Value{Kind: KindDate, Text: word, Offset: offset}
}

func TimeValue(s string) Value {
	return Value{Kind: KindTime, Text: s}
}

// DayOffset is a small helper for building date references.
func DayOffset(days int) *int {
	return &days
}

// Entity keys produced by the extractors.
const (
	EntityExpression     = "expression"
	EntityWordExpression = "wordExpression"
	EntityTime           = "time"
	EntityDate           = "date"
	EntityTitle          = "title"
	EntityCustomTitle    = "customTitle"
	EntitySubject        = "subject"
	EntityAssignmentType = "assignmentType"
	EntityDescription    = "description"
	EntityDueDate        = "dueDate"
	EntityAmount         = "amount"
	EntityCategory       = "category"
	EntityMemoryText     = "memoryText"
	EntityQuery          = "query"
)

// EntityBag holds the entities extracted from one message.
type EntityBag map[string]Value

func (b EntityBag) Has(key string) bool {
	v, ok := b[key]
	if !ok {
		return false
	}
	return v.Kind == KindNumber || v.Text != ""
}

// Text returns the textual form of key, or "" when absent.
func (b EntityBag) Text(key string) string {
	return b[key].Text
}

// Number returns the numeric payload of key and whether it was a number.
func (b EntityBag) Number(key string) (float64, bool) {
	v, ok := b[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Clone returns a shallow copy so defaults never leak into the source bag.
func (b EntityBag) Clone() EntityBag {
	out := make(EntityBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Flatten renders the bag as plain values for logging and job variables.
func (b EntityBag) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, len(b))
	for k, v := range b {
		if v.Kind == KindNumber {
			out[k] = v.Number
			continue
		}
		out[k] = v.Text
	}
	return out
}
