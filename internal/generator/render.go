package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/natefinch/atomic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName title-cases a group key for presentation: "W MARKHAM" becomes
// "W Markham". The result is never fed back into grouping.
func DisplayName(key string) string {
	// Casers are stateful; one per call.
	return cases.Title(language.English).String(key)
}

func toJSON(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// render executes tmpl into memory and then replaces outputPath atomically,
// so a browser never reads a half-written page.
func render(tmpl *template.Template, data any, outputPath string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	if err := atomic.WriteFile(outputPath, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}
