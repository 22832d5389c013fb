package field

import (
	"fmt"
	"strings"
)

// Kind is the abstract kind of a schema field.
type Kind int

// Field kinds. The set is closed: every switch over Kind in this module is exhaustive.
const (
	KindInvalid Kind = iota

	// Short text, sent without a type token.
	KindTextLine
	KindASCIILine
	KindBytesLine
	KindURI
	KindID
	KindDottedName
	KindChoice

	// Long text and byte blobs.
	KindText
	KindASCII
	KindBytes

	KindInt
	KindFloat
	KindBool

	KindTuple
	KindList
	KindDict

	// Kinds a schema may declare that cannot travel on a query string.
	KindDate
	KindDatetime
	KindObject
)

var kindNames = map[Kind]string{
	KindTextLine:   "textline",
	KindASCIILine:  "asciiline",
	KindBytesLine:  "bytesline",
	KindURI:        "uri",
	KindID:         "id",
	KindDottedName: "dottedname",
	KindChoice:     "choice",
	KindText:       "text",
	KindASCII:      "ascii",
	KindBytes:      "bytes",
	KindInt:        "int",
	KindFloat:      "float",
	KindBool:       "bool",
	KindTuple:      "tuple",
	KindList:       "list",
	KindDict:       "dict",
	KindDate:       "date",
	KindDatetime:   "datetime",
	KindObject:     "object",
}

var kindAliases = map[string]Kind{
	"string":  KindTextLine,
	"integer": KindInt,
	"long":    KindInt,
	"boolean": KindBool,
	"record":  KindDict,
	"mapping": KindDict,
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a configuration name (case-insensitive) into a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("unknown field kind %q", s)
}

// IsSequence reports whether values of the kind are ordered collections.
func (k Kind) IsSequence() bool { return k == KindTuple || k == KindList }

// IsMapping reports whether values of the kind are string-keyed mappings.
func (k Kind) IsMapping() bool { return k == KindDict }

// IsBytes reports whether the kind holds raw bytes rather than text.
func (k Kind) IsBytes() bool { return k == KindBytes || k == KindBytesLine }

// IsText reports whether the kind holds a text string.
func (k Kind) IsText() bool {
	switch k {
	case KindTextLine, KindASCIILine, KindURI, KindID, KindDottedName, KindChoice, KindText, KindASCII:
		return true
	}
	return false
}
