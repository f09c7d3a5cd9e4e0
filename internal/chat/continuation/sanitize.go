package continuation

import (
	"regexp"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// digitKey is the corruption signature of an old bug that wrote array
// indexes as top-level bag keys. Any pure-digit key is stripped.
var digitKey = regexp.MustCompile(`^[0-9]+$`)

// SanitizeBag returns a clean notes bag. Non-object payloads (invalid
// JSON, arrays, scalars) degrade to {}; pure-digit keys are dropped;
// every other key's raw value is preserved byte-for-byte. The result
// is idempotent: sanitizing a sanitized bag changes nothing.
func SanitizeBag(raw string) (clean string, stripped int, changed bool) {
	// gjson.Parse is non-validating: anything starting with '{' reports
	// as an object, so truncated JSON must be caught explicitly.
	if !gjson.Valid(raw) {
		return "{}", 0, raw != "{}"
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return "{}", 0, raw != "{}"
	}

	clean = raw
	parsed.ForEach(func(key, _ gjson.Result) bool {
		if digitKey.MatchString(key.String()) {
			out, err := sjson.Delete(clean, escapePath(key.String()))
			if err == nil {
				clean = out
				stripped++
			}
		}
		return true
	})

	return clean, stripped, stripped > 0
}

// escapePath protects literal dots and wildcards in a bag key from
// being read as sjson path syntax.
func escapePath(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
