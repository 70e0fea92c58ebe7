package shard

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	// DefaultPrefix is the directory that holds the index resources.
	DefaultPrefix = "index"

	// Suffix is appended to every shard path.
	Suffix = ".index"
)

// Path returns the resource path of the shard for gram under prefix.
//
// Every UTF-16 code unit c of the gram contributes two segments, the high and
// low byte of c as two lowercase hex digits, so "ab" maps to
// "index/00/61/00/62.index".
func Path(prefix, gram string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(prefix, "/"))
	for _, u := range utf16.Encode([]rune(gram)) {
		fmt.Fprintf(&b, "/%02x/%02x", u>>8, u&0xff)
	}
	b.WriteString(Suffix)
	return strings.TrimPrefix(b.String(), "/")
}
