package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sync"
)

//go:embed templates/report.html.tmpl
var reportTemplateSource string

var (
	reportTemplate     *template.Template
	reportTemplateErr  error
	reportTemplateOnce sync.Once
)

func compiledTemplate() (*template.Template, error) {
	reportTemplateOnce.Do(func() {
		reportTemplate, reportTemplateErr = template.New("report").Parse(reportTemplateSource)
	})
	return reportTemplate, reportTemplateErr
}

// WriteHTML renders the report as a standalone HTML page.
func (r Report) WriteHTML(w io.Writer) error {
	tmpl, err := compiledTemplate()
	if err != nil {
		return fmt.Errorf("compile report template: %w", err)
	}
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
