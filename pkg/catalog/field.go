package catalog

import "strings"

// Field selects the attribute a search matches against.
type Field int

const (
	FieldUnknown Field = iota
	FieldISBN
	FieldTitle
	FieldAuthor
	FieldGenre
)

var fieldNames = map[Field]string{
	FieldISBN:   "isbn",
	FieldTitle:  "title",
	FieldAuthor: "author",
	FieldGenre:  "genre",
}

// ParseField maps a case-insensitive field name onto a Field.
// Unsupported names yield FieldUnknown.
func ParseField(name string) Field {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == name {
			return f
		}
	}
	return FieldUnknown
}

func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return "unknown"
}

func (f Field) value(b *Book) (string, bool) {
	switch f {
	case FieldISBN:
		return b.ISBN, true
	case FieldTitle:
		return b.Title, true
	case FieldAuthor:
		return b.Author, true
	case FieldGenre:
		return b.Genre, true
	}
	return "", false
}
