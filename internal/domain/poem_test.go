package domain

import (
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_poems?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (Poem{}).TableName() != "poems" {
		t.Fatalf("Poem.TableName() = %q; want %q", (Poem{}).TableName(), "poems")
	}
}

func TestParsePoemType(t *testing.T) {
	cases := map[string]PoemType{
		"haiku":      Haiku,
		" Tanka ":    Tanka,
		"LIMERICK":   Limerick,
		"\tlimerick": Limerick,
	}
	for in, want := range cases {
		got, err := ParsePoemType(in)
		if err != nil || got != want {
			t.Errorf("ParsePoemType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, bad := range []string{"", "sonnet", "haikus"} {
		if _, err := ParsePoemType(bad); !errors.Is(err, ErrUnknownPoemType) {
			t.Errorf("ParsePoemType(%q) err = %v; want ErrUnknownPoemType", bad, err)
		}
	}
}

func TestPoemType_Metadata(t *testing.T) {
	tests := []struct {
		typ    PoemType
		lines  int
		plural string
		hint   string
	}{
		{Haiku, 3, "Haiku", "Haiku are 3 lines! Separate lines with /"},
		{Tanka, 5, "Tanka", "Tanka are 5 lines! Separate lines with /"},
		{Limerick, 5, "Limericks", "Limericks are 5 lines! Separate lines with /"},
	}
	for _, tc := range tests {
		if !tc.typ.Valid() {
			t.Fatalf("%s should be valid", tc.typ)
		}
		if tc.typ.Lines() != tc.lines || tc.typ.Plural() != tc.plural {
			t.Fatalf("%s metadata = (%d, %q)", tc.typ, tc.typ.Lines(), tc.typ.Plural())
		}
		if got := tc.typ.LinesHint(); got != tc.hint {
			t.Fatalf("%s hint = %q; want %q", tc.typ, got, tc.hint)
		}
	}
	if PoemType("sonnet").Valid() || PoemType("sonnet").Lines() != 0 {
		t.Fatalf("unknown type must be invalid with 0 lines")
	}
}

func TestCheckLines(t *testing.T) {
	if err := Haiku.CheckLines("a/b/c"); err != nil {
		t.Fatalf("3-line haiku rejected: %v", err)
	}
	if err := Haiku.CheckLines("a/b"); !errors.Is(err, ErrWrongLineCount) {
		t.Fatalf("2-line haiku err = %v", err)
	}
	if err := Limerick.CheckLines("1/2/3/4/5"); err != nil {
		t.Fatalf("5-line limerick rejected: %v", err)
	}
	// Empty segments still count as lines.
	if err := Tanka.CheckLines("a//c//e"); err != nil {
		t.Fatalf("tanka with empty lines rejected: %v", err)
	}
	if err := Tanka.CheckLines("a/b/c"); !errors.Is(err, ErrWrongLineCount) {
		t.Fatalf("3-line tanka err = %v", err)
	}
}

func TestDisplayMessage(t *testing.T) {
	p := Poem{Content: "line1/line2/line3", SubmittedBy: "alice", DeletionKey: "AbCdEfGhIjKlMnOp"}

	if got := p.DisplayMessage(false); got != "line1/line2/line3 -- submitted by alice" {
		t.Fatalf("public display = %q", got)
	}
	want := "line1/line2/line3 -- submitted by alice (Deletion Key: AbCdEfGhIjKlMnOp)"
	if got := p.DisplayMessage(true); got != want {
		t.Fatalf("moderation display = %q; want %q", got, want)
	}
}

func TestMigration_Indexes_AndNullLastServed(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Poem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Poem{}) {
		t.Fatalf("expected poems table")
	}
	for _, idx := range []string{"idx_poem_type_served", "idx_poem_type_key"} {
		if !m.HasIndex(&Poem{}, idx) {
			t.Fatalf("expected index %s on poems", idx)
		}
	}

	p := Poem{
		ID:            "p1",
		PoemType:      Haiku,
		SubmittedBy:   "bob",
		SubmittedTime: time.Now().UTC(),
		Content:       "a/b/c",
		DeletionKey:   "k",
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Poem
	if err := db.First(&got, "id = ?", "p1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.LastServed != nil || got.TimesServed != 0 {
		t.Fatalf("fresh poem should be unserved, got %+v", got)
	}
}
