package search

import "unicode"

// Segment is a run of label text, marked when it matches the query.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits label around every case-insensitive, non-overlapping
// occurrence of query.
func Highlight(label, query string) []Segment {
	lr := []rune(label)
	qr := []rune(query)
	if len(qr) == 0 || len(qr) > len(lr) {
		return []Segment{{Text: label}}
	}
	for i := range qr {
		qr[i] = unicode.ToLower(qr[i])
	}

	var out []Segment
	start := 0
	for i := 0; i+len(qr) <= len(lr); {
		if !matchAt(lr, qr, i) {
			i++
			continue
		}
		if i > start {
			out = append(out, Segment{Text: string(lr[start:i])})
		}
		out = append(out, Segment{Text: string(lr[i : i+len(qr)]), Match: true})
		i += len(qr)
		start = i
	}
	if start < len(lr) {
		out = append(out, Segment{Text: string(lr[start:])})
	}
	return out
}

func matchAt(label, lowerQuery []rune, at int) bool {
	for j, r := range lowerQuery {
		if unicode.ToLower(label[at+j]) != r {
			return false
		}
	}
	return true
}
