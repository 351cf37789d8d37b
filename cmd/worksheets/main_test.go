package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flanksource/worksheets"
	"github.com/flanksource/worksheets/pdf/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	saved := worksheets.Flags
	t.Cleanup(func() { worksheets.Flags = saved })

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderAndInspect(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "teste.yaml")
	require.NoError(t, os.WriteFile(input, []byte(`
title: Teste
questions:
  - number: 1
    type: multiple_choice
    questionText: "2+2=?"
    alternatives: ["3", "4", "5"]
`), 0644))
	output := filepath.Join(dir, "out", "teste.pdf")

	_, err := run(t, "render", "-i", input, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	pdftest.AssertPDFBasicStructure(t, data)
	pdftest.AssertPDFContainsText(t, data, "Teste", "2+2=?")

	out, err := run(t, "inspect", output, "--text", "--json")
	require.NoError(t, err)

	var info struct {
		Pages int      `json:"pages"`
		Size  int      `json:"size"`
		Text  []string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, len(data), info.Size)
	require.Len(t, info.Text, 1)
	assert.Contains(t, info.Text[0], "Questão 1")
}

func TestRenderMaroto(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "w.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"title": "Maroto", "questions": [{"number": 1, "type": "writing", "questionText": "Write", "answerLines": 2}]}`), 0644))
	output := filepath.Join(dir, "w.pdf")

	_, err := run(t, "render", "-i", input, "-o", output, "--renderer", "maroto", "--locale", "en")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	pdftest.AssertPDFContainsText(t, data, "Maroto", "Question 1", "Write")
}

func TestRenderErrors(t *testing.T) {
	_, err := run(t, "render")
	assert.Error(t, err, "input is required")

	_, err = run(t, "render", "-i", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "render", "-i", "x.json", "--renderer", "latex")
	assert.Error(t, err)
}

func TestInspectInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))
	_, err := run(t, "inspect", path)
	assert.Error(t, err)
}

func TestExampleAndVersion(t *testing.T) {
	out, err := run(t, "example")
	require.NoError(t, err)
	assert.Contains(t, out, `"questionText"`)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "worksheets dev")
}
