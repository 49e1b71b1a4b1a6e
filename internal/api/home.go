package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed usage.md
var usageMarkdown []byte

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>dxfnet</title>
<style>body{font-family:sans-serif;max-width:50em;margin:2em auto;padding:0 1em}code,pre{background:#f4f4f4}</style>
</head>
<body>
%s
<form action="/process-dxf" method="post" enctype="multipart/form-data">
<input type="file" name="dxfFile" accept=".dxf,.geojson,.json">
<button type="submit">Convert</button>
</form>
</body>
</html>
`

func renderHome() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(usageMarkdown, &body); err != nil {
		return nil, fmt.Errorf("render usage page: %w", err)
	}
	return fmt.Appendf(nil, pageTemplate, body.String()), nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.home)
}
