package assembler

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

var (
	fmOpen  = []byte("---\n")
	fmClose = []byte("\n---\n")
)

// splitFrontMatter separates a leading "---" delimited YAML block from the
// document body. Documents without one yield empty metadata.
func splitFrontMatter(content []byte) (map[string]any, []byte, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	meta := map[string]any{}
	if !bytes.HasPrefix(content, fmOpen) {
		return meta, content, nil
	}

	rest := content[len(fmOpen):]
	if bytes.HasPrefix(rest, fmOpen) {
		return meta, rest[len(fmOpen):], nil
	}

	idx := bytes.Index(rest, fmClose)
	if idx < 0 {
		return meta, content, nil
	}

	if err := yaml.Unmarshal(rest[:idx], &meta); err != nil {
		return nil, nil, err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, rest[idx+len(fmClose):], nil
}
