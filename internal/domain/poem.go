// Package domain defines the persistence model for submitted poems and the
// closed set of poem types the bot understands. Poem is mapped with GORM and
// forms the core data layer of the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LineSeparator separates poem lines inside a single chat message.
const LineSeparator = "/"

// ErrWrongLineCount is returned by PoemType.CheckLines when the submitted
// text does not have the number of lines the type requires.
var ErrWrongLineCount = errors.New("wrong number of lines")

// ErrUnknownPoemType is returned by ParsePoemType for names outside the
// supported set.
var ErrUnknownPoemType = errors.New("unknown poem type")

// PoemType is the category of a poem. It is immutable after creation.
type PoemType string

const (
	Haiku    PoemType = "haiku"
	Tanka    PoemType = "tanka"
	Limerick PoemType = "limerick"
)

// PoemTypes lists every supported type in command-registration order.
var PoemTypes = []PoemType{Haiku, Tanka, Limerick}

type typeInfo struct {
	lines  int
	plural string
}

var typeInfos = map[PoemType]typeInfo{
	Haiku:    {lines: 3, plural: "Haiku"},
	Tanka:    {lines: 5, plural: "Tanka"},
	Limerick: {lines: 5, plural: "Limericks"},
}

// ParsePoemType maps a user-supplied name (any case, surrounding spaces
// allowed) to a PoemType.
func ParsePoemType(s string) (PoemType, error) {
	t := PoemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPoemType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported types.
func (t PoemType) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Lines returns how many lines a poem of this type has, or 0 for unknown types.
func (t PoemType) Lines() int { return typeInfos[t].lines }

// Plural returns the capitalized plural label used in user-facing hints.
func (t PoemType) Plural() string { return typeInfos[t].plural }

// String implements fmt.Stringer.
func (t PoemType) String() string { return string(t) }

// CheckLines validates that content splits into exactly t.Lines() lines on
// LineSeparator. It returns ErrWrongLineCount otherwise.
//
// Submission callers run this before handing content to the service; the
// service itself stores content as-is.
func (t PoemType) CheckLines(content string) error {
	if n := len(strings.Split(content, LineSeparator)); n != t.Lines() {
		return fmt.Errorf("%w: %s needs %d, got %d", ErrWrongLineCount, t, t.Lines(), n)
	}
	return nil
}

// LinesHint is the reply sent when a submission has the wrong shape,
// e.g. "Haiku are 3 lines! Separate lines with /".
func (t PoemType) LinesHint() string {
	return fmt.Sprintf("%s are %d lines! Separate lines with %s", t.Plural(), t.Lines(), LineSeparator)
}

// Poem is a single submission. One row per submission; only TimesServed and
// LastServed change after creation.
//
// Fields:
//   - ID: UUID primary key (char(36)), never reused.
//   - PoemType: category; indexed together with DeletionKey for deletion lookups.
//   - SubmittedBy: chat nickname at submission time (indexed for "by" queries).
//   - SubmittedTime: creation timestamp (UTC).
//   - Content: body as submitted, lines separated by "/".
//   - DeletionKey: random secret; the only credential for deletion.
//   - TimesServed: incremented on every selection.
//   - LastServed: time of the latest selection; nil until first shown.
type Poem struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	PoemType      PoemType   `json:"poem_type"      gorm:"type:varchar(25);not null;index:idx_poem_type_served,priority:1;index:idx_poem_type_key,priority:1"`
	SubmittedBy   string     `json:"submitted_by"   gorm:"type:varchar(255);not null;index"`
	SubmittedTime time.Time  `json:"submitted_time" gorm:"not null"`
	Content       string     `json:"content"        gorm:"type:text;not null"`
	DeletionKey   string     `json:"-"              gorm:"type:varchar(25);not null;index:idx_poem_type_key,priority:2"`
	TimesServed   int        `json:"times_served"   gorm:"not null;default:0"`
	LastServed    *time.Time `json:"last_served,omitempty" gorm:"index:idx_poem_type_served,priority:2"`
}

// TableName returns the database table name for Poem.
func (Poem) TableName() string { return "poems" }

// DisplayMessage renders the poem for chat. With includeKey the deletion key
// is appended, which is only ever sent to moderators in private.
func (p Poem) DisplayMessage(includeKey bool) string {
	msg := fmt.Sprintf("%s -- submitted by %s", p.Content, p.SubmittedBy)
	if includeKey {
		msg += fmt.Sprintf(" (Deletion Key: %s)", p.DeletionKey)
	}
	return msg
}
