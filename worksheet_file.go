package worksheets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/worksheets/api"
	"gopkg.in/yaml.v3"
)

// LoadWorksheet reads a worksheet from a JSON or YAML file, "-" reads JSON
// from stdin
func LoadWorksheet(path string) (*api.Worksheet, error) {
	if path == "-" {
		return DecodeWorksheet(os.Stdin, "json")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	doc, err := DecodeWorksheet(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeWorksheet decodes a worksheet in format "json" or "yaml"
func DecodeWorksheet(r io.Reader, format string) (*api.Worksheet, error) {
	var doc api.Worksheet
	switch format {
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid worksheet: %w", err)
		}
	case "json", "":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid worksheet: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported worksheet format %q", format)
	}
	return &doc, nil
}

// ExampleWorksheet is a small worksheet exercising every block type
func ExampleWorksheet() *api.Worksheet {
	imageURL := "https://placehold.co/400x300.png"
	one, three := 1, 3
	description := "Leia com atenção e responda às questões."
	return &api.Worksheet{
		Title:       "Matemática &amp; Ciências",
		Description: &description,
		Header:      &api.Header{StudentName: "", School: "Escola Municipal", TeacherName: "Ana"},
		Questions: []api.Question{
			{Number: 1, Type: api.MultipleChoice, QuestionText: "Quanto é 2+2?", Alternatives: []string{"3", "4", "5"}},
			{Number: 2, Type: api.CheckBox, QuestionText: "Quais são mamíferos?", Alternatives: []string{"Gato", "Peixe", "Cachorro"}},
			{Number: 3, Type: api.TrueFalse, QuestionText: "O sol é uma estrela.", Alternatives: []string{"Verdadeiro", "Falso"}},
			{Number: 4, Type: api.Counting, QuestionText: "Quantas frutas há na imagem?", ImageURL: &imageURL, AnswerLines: &one},
			{Number: 5, Type: api.Writing, QuestionText: "Descreva o seu animal favorito.", AnswerLines: &three},
		},
	}
}
