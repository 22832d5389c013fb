package field

import (
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain"
)

// Token is the suffix appended to an encoded query-string key so the value's
// type can be recovered on decode, e.g. "count:long=5".
type Token string

// Wire type tokens.
const (
	TokenNone    Token = ""
	TokenText    Token = "text"
	TokenLong    Token = "long"
	TokenFloat   Token = "float"
	TokenBoolean Token = "boolean"
	TokenTuple   Token = "tuple"
	TokenList    Token = "list"
	TokenRecord  Token = "record"
)

// TokenFor returns the wire token of a field kind.
// Kinds outside the wire table fail with domain.ErrUnsupportedFieldKind.
func TokenFor(k Kind) (Token, error) {
	switch k {
	case KindTextLine, KindASCIILine, KindBytesLine, KindURI, KindID, KindDottedName, KindChoice:
		return TokenNone, nil
	case KindText, KindASCII, KindBytes:
		return TokenText, nil
	case KindInt:
		return TokenLong, nil
	case KindFloat:
		return TokenFloat, nil
	case KindBool:
		return TokenBoolean, nil
	case KindTuple:
		return TokenTuple, nil
	case KindList:
		return TokenList, nil
	case KindDict:
		return TokenRecord, nil
	case KindInvalid, KindDate, KindDatetime, KindObject:
	}
	return TokenNone, fmt.Errorf("%w: %s", domain.ErrUnsupportedFieldKind, k)
}
