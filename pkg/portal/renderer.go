package portal

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

const loadingTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Loading</title>
</head>
<body>
<div id="root"><div class="loading" role="progressbar" aria-busy="true"></div></div>
</body>
</html>
`

const shellTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.View.Title}}</title>
<base href="{{.AppContext}}/">
<style>:root { --palette-primary-main: {{.View.Theme.PrimaryColor}}; }</style>
{{- if .View.Stylesheet}}
<link rel="stylesheet" type="text/css" href="{{.View.Stylesheet}}">
{{- end}}
</head>
<body>
<div id="root" data-basename="{{.AppContext}}" data-route="{{.View.Route}}">
<div class="progress" role="progressbar"></div>
</div>
<script id="portal-context" type="application/json">{{.View.Context}}</script>
<script id="portal-theme" type="application/json">{{.View.Theme}}</script>
{{- if .Bundle}}
<script src="{{.Bundle}}" defer></script>
{{- end}}
</body>
</html>
`

// Renderer writes views as HTTP responses
type Renderer struct {
	appContext string
	bundle     string
	loading    *template.Template
	shell      *template.Template
}

type shellData struct {
	AppContext string
	Bundle     string
	View       View
}

// NewRenderer parses the page templates. bundle is the script that boots the
// protected application inside the shell.
func NewRenderer(appContext, bundle string) (*Renderer, error) {
	loading, err := template.New("loading").Parse(loadingTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse loading template: %w", err)
	}
	shell, err := template.New("shell").Parse(shellTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shell template: %w", err)
	}

	return &Renderer{
		appContext: appContext,
		bundle:     bundle,
		loading:    loading,
		shell:      shell,
	}, nil
}

// Write renders v. The empty view is a 200 with no body.
func (r *Renderer) Write(w http.ResponseWriter, req *http.Request, v View) error {
	switch v.Kind {
	case ViewRedirect:
		http.Redirect(w, req, v.Redirect, http.StatusFound)
		return nil
	case ViewEmpty:
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		return nil
	case ViewLoading:
		return r.execute(w, r.loading, nil)
	default:
		return r.execute(w, r.shell, shellData{
			AppContext: r.appContext,
			Bundle:     r.bundle,
			View:       v,
		})
	}
}

func (r *Renderer) execute(w http.ResponseWriter, tmpl *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", tmpl.Name(), err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(buf.Bytes())
	return err
}
