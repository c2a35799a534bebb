package stylestats

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

type selector struct {
	text        string
	identifiers int
	ids         int
	specificity int
}

// legacyPseudoElements may be written with a single colon.
var legacyPseudoElements = []string{"before", "after", "first-line", "first-letter"}

// newSelector scores one complex selector. Specificity is folded into one
// number as ids*100 + classes*10 + types.
func newSelector(tokens []token) selector {
	a, b, c, idents := weigh(tokens)
	return selector{
		text:        join(tokens),
		identifiers: idents,
		ids:         a,
		specificity: a*100 + b*10 + c,
	}
}

// weigh counts id, class-like and type-like simple selectors. Arguments of
// :not, :is and :has count like the selector they hold; :where counts nothing.
func weigh(tokens []token) (a, b, c, idents int) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.tt {
		case css.HashToken:
			a++
			idents++
		case css.IdentToken:
			c++
			idents++
		case css.DelimToken:
			switch tok.text {
			case ".":
				b++
				idents++
				i++
			case "*":
				idents++
			}
		case css.LeftBracketToken:
			b++
			idents++
			i = closing(tokens, i)
		case css.ColonToken:
			i++
			if i >= len(tokens) {
				break
			}
			idents++
			if tokens[i].tt == css.ColonToken {
				// ::pseudo-element, possibly a function like ::part(x).
				c++
				i++
				if i < len(tokens) && tokens[i].tt == css.FunctionToken {
					i = closing(tokens, i)
				}
				continue
			}
			switch tokens[i].tt {
			case css.IdentToken:
				if contains(legacyPseudoElements, tokens[i].text) {
					c++
				} else {
					b++
				}
			case css.FunctionToken:
				end := closing(tokens, i)
				name := strings.ToLower(strings.TrimSuffix(tokens[i].text, "("))
				switch name {
				case "not", "is", "has", "matches":
					ia, ib, ic := heaviest(tokens[i+1 : end])
					a, b, c = a+ia, b+ib, c+ic
				case "where":
				default:
					b++
				}
				i = end
			}
		}
	}
	return a, b, c, idents
}

// heaviest returns the weights of the most specific selector in a list.
func heaviest(tokens []token) (a, b, c int) {
	best := -1
	for _, part := range splitTopLevel(tokens) {
		pa, pb, pc, _ := weigh(part)
		if score := pa*100 + pb*10 + pc; score > best {
			best = score
			a, b, c = pa, pb, pc
		}
	}
	return a, b, c
}

// closing returns the index of the token closing the bracket or function at
// open, or the last index when it is never closed.
func closing(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens) - 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
