package styles

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type mediaBlock struct {
	query string
	body  bytes.Buffer
}

type lexState int

const (
	stateRules lexState = iota
	statePrelude
	stateMediaBody
)

// CombineMediaQueries moves every top-level @media block to the end of the
// stylesheet and merges blocks with the same query into one, in order of first
// appearance. Nested @media rules are left where they are. Input that ends
// inside an @media block is returned unchanged so the bundler can report it.
func CombineMediaQueries(src []byte) ([]byte, error) {
	l := css.NewLexer(parse.NewInputBytes(src))

	var (
		out     bytes.Buffer
		prelude bytes.Buffer
		blocks  []*mediaBlock
		current *mediaBlock
		state   = stateRules
		depth   int
		trim    bool
	)
	index := make(map[string]*mediaBlock)

	for {
		tt, text := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}

		switch state {
		case stateRules:
			if trim && tt == css.WhitespaceToken {
				trim = false
				continue
			}
			trim = false
			if depth == 0 && tt == css.AtKeywordToken && strings.EqualFold(string(text), "@media") {
				state = statePrelude
				prelude.Reset()
				continue
			}
			switch tt {
			case css.LeftBraceToken:
				depth++
			case css.RightBraceToken:
				depth--
			}
			out.Write(text)

		case statePrelude:
			switch tt {
			case css.LeftBraceToken:
				query := strings.Join(strings.Fields(prelude.String()), " ")
				current = index[query]
				if current == nil {
					current = &mediaBlock{query: query}
					index[query] = current
					blocks = append(blocks, current)
				}
				state = stateMediaBody
				depth = 1
			case css.SemicolonToken:
				// Not a block; keep it verbatim.
				out.WriteString("@media")
				out.Write(prelude.Bytes())
				out.Write(text)
				state = stateRules
			default:
				prelude.Write(text)
			}

		case stateMediaBody:
			switch tt {
			case css.LeftBraceToken:
				depth++
			case css.RightBraceToken:
				depth--
				if depth == 0 {
					state = stateRules
					trim = true
					continue
				}
			}
			current.body.Write(text)
		}
	}

	if state != stateRules {
		return src, nil
	}

	for _, b := range blocks {
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
			out.WriteByte('\n')
		}
		out.WriteString("@media ")
		out.WriteString(b.query)
		out.WriteString(" {")
		out.Write(b.body.Bytes())
		out.WriteString("}\n")
	}
	return out.Bytes(), nil
}
