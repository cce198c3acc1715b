package inp

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DomainModel separates model fingerprints from any other hash the bridge
// might compute over the same bytes. The version suffix allows a future
// change of normalization rules.
const DomainModel = "hydrobridge/inp/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the semantic content of model text.
//
// Formatting does not contribute: comments, blank lines, whitespace runs and
// the case of section headers. Any change to a section name or field value
// alters it. Lines are NFC normalized so that
// canonically equivalent element names hash identically.
func Fingerprint(src []byte) string {
	return hashWithDomain(DomainModel, Normalize(src))
}

// Normalize returns the canonical form hashed by Fingerprint: one line per
// non-comment source line, tokens joined by single spaces, lines joined by
// "\n". Section headers take the scanner's form, upper-cased and trimmed.
func Normalize(src []byte) []byte {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == CommentMarker {
			continue
		}
		if line[0] == '[' {
			if name, err := parseHeader(line, 0); err == nil {
				lines = append(lines, norm.NFC.String("["+name+"]"))
				continue
			}
		}
		tokens := Tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		for i, tok := range tokens {
			tokens[i] = quoteToken(tok)
		}
		lines = append(lines, norm.NFC.String(strings.Join(tokens, " ")))
	}
	return []byte(strings.Join(lines, "\n"))
}

func quoteToken(tok string) string {
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return `"` + tok + `"`
	}
	return tok
}
