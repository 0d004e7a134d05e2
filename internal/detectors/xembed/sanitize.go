package xembed

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Sanitize drops script elements, strips on* event attributes and comments
// out iframe and embed elements. Everything else is passed through.
func Sanitize(src string) (string, error) {
	var out bytes.Buffer

	z := html.NewTokenizer(strings.NewReader(src))
	inScript := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return out.String(), nil
			}

			return "", z.Err()
		}

		raw := append([]byte(nil), z.Raw()...)
		token := z.Token()

		switch tt {
		case html.StartTagToken:
			switch {
			case token.Data == "script":
				inScript = true
			case isFrame(token.Data):
				out.WriteString("<!-- iframe removed: " + token.Data + " ")
			default:
				writeTag(&out, token, false)
			}
		case html.EndTagToken:
			switch {
			case token.Data == "script":
				inScript = false
			case isFrame(token.Data):
				out.WriteString(" -->")
			default:
				out.WriteString("</" + token.Data + ">")
			}
		case html.SelfClosingTagToken:
			switch {
			case token.Data == "script":
			case isFrame(token.Data):
				out.WriteString("<!-- self-closing " + token.Data + " removed -->")
			default:
				writeTag(&out, token, true)
			}
		case html.TextToken:
			if !inScript {
				out.Write(raw)
			}
		case html.CommentToken, html.DoctypeToken:
			out.Write(raw)
		case html.ErrorToken:
		}
	}
}

func isFrame(tag string) bool {
	return tag == "iframe" || tag == "embed"
}

func writeTag(out *bytes.Buffer, token html.Token, selfClosing bool) {
	out.WriteString("<" + token.Data)

	for _, attr := range token.Attr {
		if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
			continue
		}

		out.WriteString(" " + attr.Key + `="` + html.EscapeString(attr.Val) + `"`)
	}

	if selfClosing {
		out.WriteString(" />")
		return
	}

	out.WriteString(">")
}
