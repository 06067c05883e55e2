package tagstore

import "strings"

// Delim is the sentinel delimiter wrapping each tag name in the denormalized
// tag_names column. The column grammar is "\x00name1\x00name2\x00": a leading
// and trailing delimiter with names joined by single delimiters. A
// non-printable character keeps substring searches for a delimited name free
// of false positives on name prefixes.
const Delim = "\x00"

// EncodeNames encodes names into the tag_names column format. Returns "" for
// an empty set; callers store that as SQL NULL, never as an empty string.
func EncodeNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return Delim + strings.Join(names, Delim) + Delim
}

// DecodeNames decodes a tag_names column value into the set of names it
// carries. NULL columns arrive here as "".
func DecodeNames(encoded string) []string {
	trimmed := strings.Trim(encoded, Delim)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, Delim)
}

// delimited returns name wrapped in the sentinel delimiter on both sides,
// the token form used for exact-match replacement and LIKE searches.
func delimited(name string) string {
	return Delim + name + Delim
}

// applyName returns the encoded tag_names value after adding or removing
// name, and reports whether it differs from the input. Adding a name already
// present and removing an absent one are both no-ops.
func applyName(encoded, name string, add bool) (string, bool) {
	names := DecodeNames(encoded)
	for i, n := range names {
		if n != name {
			continue
		}
		if add {
			return encoded, false
		}
		return EncodeNames(append(names[:i], names[i+1:]...)), true
	}
	if !add {
		return encoded, false
	}
	return EncodeNames(append(names, name)), true
}
