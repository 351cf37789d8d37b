package layout

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// DefaultLocale is used when no locale is configured
const DefaultLocale = "pt-BR"

// Labels are the fixed strings the engine prints around caller content
type Labels struct {
	Question         string `yaml:"question" json:"question"`
	ImageUnavailable string `yaml:"image_unavailable" json:"imageUnavailable"`
	StudentName      string `yaml:"student_name" json:"studentName"`
	School           string `yaml:"school" json:"school"`
	TeacherName      string `yaml:"teacher_name" json:"teacherName"`
}

var locales = map[string]Labels{
	"pt-BR": {
		Question:         "Questão",
		ImageUnavailable: "[Imagem não disponível]",
		StudentName:      "Nome do aluno:",
		School:           "Escola:",
		TeacherName:      "Professor(a):",
	},
	"en": {
		Question:         "Question",
		ImageUnavailable: "[Image not available]",
		StudentName:      "Student name:",
		School:           "School:",
		TeacherName:      "Teacher:",
	},
}

// LabelsFor returns the labels of locale, "" selects DefaultLocale
func LabelsFor(locale string) (Labels, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	labels, ok := locales[locale]
	if !ok {
		return Labels{}, fmt.Errorf("unsupported locale %q, expected one of %v", locale, Locales())
	}
	return labels, nil
}

// Locales lists the supported locales
func Locales() []string {
	keys := lo.Keys(locales)
	sort.Strings(keys)
	return keys
}
