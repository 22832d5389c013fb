package querystring

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain"
)

// maxFormBody caps the url-encoded request body read by ParseRequest.
const maxFormBody = 10 << 20

type converter func(string) (any, error)

var converters = map[string]converter{
	"int":     convertInt,
	"long":    convertInt,
	"float":   convertFloat,
	"boolean": convertBool,
	"string":  convertString,
	"ustring": convertString,
	"text":    convertText,
	"utext":   convertText,
	"bytes":   func(s string) (any, error) { return []byte(s), nil },
	"required": func(s string) (any, error) {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: value required", domain.ErrDecode)
		}
		return s, nil
	},
}

func convertInt(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an integer", domain.ErrDecode, s)
	}
	return n, nil
}

func convertFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a float", domain.ErrDecode, s)
	}
	return f, nil
}

func convertBool(s string) (any, error) { return s != "" && s != "False", nil }

func convertString(s string) (any, error) { return s, nil }

func convertText(s string) (any, error) {
	return strings.ReplaceAll(s, "\r\n", "\n"), nil
}

// ParseQuery marshals a raw query string into typed form data.
func ParseQuery(raw string) (map[string]any, error) {
	pairs, err := ParsePairs(raw)
	if err != nil {
		return nil, err
	}
	return Unmarshal(pairs), nil
}

// ParseRequest marshals the query string and, for url-encoded bodies, the
// request body of r into typed form data.
func ParseRequest(r *http.Request) (map[string]any, error) {
	pairs, err := ParsePairs(r.URL.RawQuery)
	if err != nil {
		return nil, err
	}
	if r.Body != nil && hasFormBody(r) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody))
		if err != nil {
			return nil, fmt.Errorf("read form body: %w", err)
		}
		bodyPairs, err := ParsePairs(string(body))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, bodyPairs...)
	}
	return Unmarshal(pairs), nil
}

func hasFormBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// ParsePairs splits a raw query string into unescaped pairs, keeping order
// and repeated keys.
func ParsePairs(raw string) ([]Pair, error) {
	var pairs []Pair
	for raw != "" {
		var part string
		part, raw, _ = strings.Cut(raw, "&")
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}

type keyFlags struct {
	sequence    bool
	record      bool
	records     bool
	ignoreEmpty bool
	convert     converter
}

// parseKey strips type tokens from the right of key until it meets one it
// does not know; that token and everything left of it stay in the name.
func parseKey(key string) (string, keyFlags) {
	var fl keyFlags
	name := key
	for {
		i := strings.LastIndexByte(name, ':')
		if i < 0 {
			break
		}
		switch tok := name[i+1:]; tok {
		case "list", "tuple":
			fl.sequence = true
		case "record":
			fl.record = true
		case "records":
			fl.records = true
		case "ignore_empty":
			fl.ignoreEmpty = true
		default:
			c, ok := converters[tok]
			if !ok {
				return name, fl
			}
			fl.convert = c
		}
		name = name[:i]
	}
	return name, fl
}

// Unmarshal aggregates pairs into form data. Values of ":list" keys collect
// into []any, ":record" keys fill a map[string]any, and ":records" keys
// build a []any of maps, starting a new map whenever an attribute repeats.
// Plain keys that repeat become a list. A value its type token cannot
// convert is kept as the raw string, so the failure surfaces when the data
// is decoded against a schema.
func Unmarshal(pairs []Pair) map[string]any {
	form := make(map[string]any)
	for _, p := range pairs {
		name, fl := parseKey(p.Key)
		if fl.ignoreEmpty && p.Value == "" {
			continue
		}
		var value any = p.Value
		if fl.convert != nil {
			if v, err := fl.convert(p.Value); err == nil {
				value = v
			}
		}

		if fl.record || fl.records {
			i := strings.LastIndexByte(name, '.')
			if i > 0 {
				recName, attr := name[:i], name[i+1:]
				if fl.records {
					addRecords(form, recName, attr, value, fl.sequence)
				} else {
					addRecord(form, recName, attr, value, fl.sequence)
				}
				continue
			}
		}

		existing, ok := form[name]
		switch {
		case fl.sequence:
			form[name] = appendValue(existing, ok, value)
		case ok:
			form[name] = appendValue(existing, true, value)
		default:
			form[name] = value
		}
	}
	return form
}

func appendValue(existing any, ok bool, value any) []any {
	if !ok {
		return []any{value}
	}
	if list, isList := existing.([]any); isList {
		return append(list, value)
	}
	return []any{existing, value}
}

func addRecord(form map[string]any, name, attr string, value any, sequence bool) {
	rec, ok := form[name].(map[string]any)
	if !ok {
		rec = make(map[string]any)
		form[name] = rec
	}
	if sequence {
		existing, has := rec[attr]
		rec[attr] = appendValue(existing, has, value)
		return
	}
	rec[attr] = value
}

func addRecords(form map[string]any, name, attr string, value any, sequence bool) {
	list, _ := form[name].([]any)
	var last map[string]any
	if len(list) > 0 {
		last, _ = list[len(list)-1].(map[string]any)
	}

	existing, has := last[attr]
	switch {
	case last == nil:
		last = make(map[string]any)
		list = append(list, last)
	case has && sequence:
		if items, isList := existing.([]any); isList {
			last[attr] = append(items, value)
			form[name] = list
			return
		}
		last = make(map[string]any)
		list = append(list, last)
	case has:
		last = make(map[string]any)
		list = append(list, last)
	}

	if sequence {
		last[attr] = []any{value}
	} else {
		last[attr] = value
	}
	form[name] = list
}
