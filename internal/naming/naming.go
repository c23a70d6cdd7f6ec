// Package naming converts between column and table names and Go identifiers.
package naming

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/inflect"
)

var (
	mu       sync.RWMutex
	acronyms = map[string]bool{
		"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true,
		"EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true,
		"IP": true, "JSON": true, "LHS": true, "QPS": true, "RAM": true, "RHS": true,
		"RPC": true, "SLA": true, "SMTP": true, "SQL": true, "SSH": true, "TCP": true,
		"TLS": true, "TTL": true, "UDP": true, "UI": true, "UID": true, "UUID": true,
		"URI": true, "URL": true, "UTF8": true, "VM": true, "XML": true, "XMPP": true,
		"XSRF": true, "XSS": true,
	}
)

// AddAcronym registers a word that Pascal keeps fully upper-cased.
func AddAcronym(word string) {
	mu.Lock()
	acronyms[strings.ToUpper(word)] = true
	mu.Unlock()
}

func isAcronym(word string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return acronyms[strings.ToUpper(word)]
}

// Pascal converts a snake_case or kebab-case name to a Go identifier,
// e.g. user_id to UserID.
func Pascal(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	var b strings.Builder
	for _, w := range words {
		if isAcronym(w) {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}

	out := b.String()
	if out == "" {
		return "X"
	}
	if !unicode.IsLetter([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// TypeName is the Go type name of a table: the singular Pascal form,
// e.g. user_accounts to UserAccount.
func TypeName(table string) string {
	i := strings.LastIndexAny(table, "_-")
	last := table[i+1:]
	return Pascal(table[:i+1] + inflect.Singularize(last))
}

// Snake converts a Go identifier to snake_case, keeping acronym runs
// together, e.g. UserID to user_id and HTTPCode to http_code.
func Snake(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			if i > 0 {
				prev := r[i-1]
				nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Unique returns name, or name with a numeric suffix when seen already holds
// it. The returned name is added to seen.
func Unique(name string, seen map[string]bool) string {
	out := name
	for n := 2; seen[out]; n++ {
		out = name + strconv.Itoa(n)
	}
	seen[out] = true
	return out
}
