package api

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/xintone/xintone/pkg/kintone"
)

var fragmentTemplates = template.Must(template.New("fragments").Parse(`
{{- define "records" -}}
{{- range . }}<div class="record-item"><pre>{{ . }}</pre></div>
{{ else }}<p class="empty">No records found</p>
{{ end -}}
{{- end -}}
{{- define "error" }}<div class="error">Error: {{ . }}</div>
{{ end -}}
`))

// writeRecordsFragment renders records, in order, as HTML fragments.
func writeRecordsFragment(w http.ResponseWriter, status int, records []kintone.Record) error {
	pretty := make([]string, 0, len(records))
	for _, rec := range records {
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		pretty = append(pretty, string(b))
	}

	var buf bytes.Buffer
	if err := fragmentTemplates.ExecuteTemplate(&buf, "records", pretty); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// writeErrorFragment renders msg as an HTML error fragment.
func writeErrorFragment(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = fragmentTemplates.ExecuteTemplate(w, "error", msg)
}
