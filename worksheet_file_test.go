package worksheets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flanksource/worksheets/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWorksheetJSON(t *testing.T) {
	doc, err := DecodeWorksheet(strings.NewReader(`{
		"title": "Teste",
		"header": {"studentNameLabel": "João", "school": "Escola"},
		"questions": [
			{"number": 1, "type": "multiple_choice", "questionText": "2+2=?", "alternatives": ["3","4"], "imageUrl": null, "answerLines": 2},
			{"number": 1, "type": "unknown_kind", "questionText": "dup"}
		],
		"extra": true
	}`), "json")
	require.NoError(t, err)

	assert.Equal(t, "Teste", doc.Title)
	require.NotNil(t, doc.Header)
	assert.Equal(t, "João", doc.Header.StudentName)
	assert.Equal(t, "Escola", doc.Header.School)
	assert.Empty(t, doc.Header.TeacherName)

	require.Len(t, doc.Questions, 2)
	assert.False(t, doc.Questions[0].HasImage())
	assert.Equal(t, 2, doc.Questions[0].Lines())
	assert.False(t, doc.Questions[1].Type.IsKnown())
	assert.Nil(t, doc.Content)
}

func TestDecodeWorksheetQuestionsPresence(t *testing.T) {
	absent, err := DecodeWorksheet(strings.NewReader(`{"title": "a", "content": [{"type": "text", "value": "x"}]}`), "json")
	require.NoError(t, err)
	assert.False(t, absent.HasQuestions())

	empty, err := DecodeWorksheet(strings.NewReader(`{"title": "a", "questions": []}`), "json")
	require.NoError(t, err)
	assert.True(t, empty.HasQuestions())
}

func TestDecodeWorksheetYAML(t *testing.T) {
	doc, err := DecodeWorksheet(strings.NewReader(`
title: Frações
questions:
  - number: 1
    type: check_box
    questionText: Marque as frações
    alternatives: ["1/2", "3"]
`), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "Frações", doc.Title)
	assert.Equal(t, api.CheckBox, doc.Questions[0].Type)

	_, err = DecodeWorksheet(strings.NewReader("x"), "toml")
	assert.Error(t, err)
}

func TestLoadWorksheet(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(ExampleWorksheet())
	require.NoError(t, err)
	path := filepath.Join(dir, "example.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	doc, err := LoadWorksheet(path)
	require.NoError(t, err)
	assert.Equal(t, ExampleWorksheet(), doc)

	_, err = LoadWorksheet(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
