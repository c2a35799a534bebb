package devserver

import (
	"bytes"

	"golang.org/x/net/html"
)

// InjectScript inserts a script tag loading src before the closing body tag,
// or appends it when the document has none. Everything else is copied byte for byte.
func InjectScript(doc []byte, src string) []byte {
	tag := `<script src="` + html.EscapeString(src) + `"></script>`

	var out bytes.Buffer
	out.Grow(len(doc) + len(tag))

	injected := false
	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// TagName lowercases the tokenizer's buffer in place.
		raw := bytes.Clone(z.Raw())
		if !injected && tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "body" {
				out.WriteString(tag)
				injected = true
			}
		}
		out.Write(raw)
	}

	if !injected {
		out.WriteString(tag)
	}
	return out.Bytes()
}
