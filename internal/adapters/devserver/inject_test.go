package devserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/swatch/internal/adapters/devserver"
)

func TestInjectScript(t *testing.T) {
	const tag = `<script src="/lr.js"></script>`

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "before closing body",
			doc:  "<!DOCTYPE html>\n<html><body><p>Hi</p></body></html>\n",
			want: "<!DOCTYPE html>\n<html><body><p>Hi</p>" + tag + "</body></html>\n",
		},
		{
			name: "uppercase tag",
			doc:  "<HTML><BODY>x</BODY></HTML>",
			want: "<HTML><BODY>x" + tag + "</BODY></HTML>",
		},
		{
			name: "mixed case closing tags",
			doc:  "<Main><P>x</P></Main></Body>",
			want: "<Main><P>x</P></Main>" + tag + "</Body>",
		},
		{
			name: "no body",
			doc:  "<p>fragment</p>",
			want: "<p>fragment</p>" + tag,
		},
		{
			name: "body inside script is not a tag",
			doc:  `<body><script>var s = "</body>";</script></body>`,
			want: `<body><script>var s = "</body>";</script>` + tag + `</body>`,
		},
		{
			name: "empty",
			doc:  "",
			want: tag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(devserver.InjectScript([]byte(tt.doc), "/lr.js")))
		})
	}
}
