package sources

import (
	"strconv"
	"strings"
)

// flexFloat tolerates numbers serialized as JSON strings, optionally with
// a trailing percent sign. Unparseable values decode to zero instead of
// failing the whole payload.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexString tolerates strings serialized as bare JSON numbers or bools.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			*f = flexString(unquoted)
			return nil
		}
	}
	*f = flexString(s)
	return nil
}
