package build

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"bix/config"
	"bix/layout"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	SourceFile string
	Format     string
	Date       string
	Entries    int
	FirstTopic string
	LastTopic  string
}

func expandTemplate(name config.TemplateFieldName, field, src string, format config.OutputFmt, recs []layout.Raw) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	title := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	values := Values{
		Context:    string(name),
		Title:      title,
		SourceFile: title,
		Format:     format.String(),
		Date:       time.Now().Format("2006-01-02"),
		Entries:    len(recs),
	}
	if len(recs) > 0 {
		values.FirstTopic = recs[0].Topic
		values.LastTopic = recs[len(recs)-1].Topic
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
