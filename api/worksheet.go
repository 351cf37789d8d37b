package api

import (
	"encoding/json"
	"fmt"
)

// QuestionType selects which optional question fields are rendered
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	CheckBox       QuestionType = "check_box"
	TrueFalse      QuestionType = "true_false"
	Writing        QuestionType = "writing"
	Matching       QuestionType = "matching"
	ImageSelection QuestionType = "image_selection"
	Counting       QuestionType = "counting"
	Completion     QuestionType = "completion"
	Pintar         QuestionType = "pintar"
)

// QuestionTypes lists every type the generator knows about
var QuestionTypes = []QuestionType{
	MultipleChoice, CheckBox, TrueFalse, Writing, Matching,
	ImageSelection, Counting, Completion, Pintar,
}

// IsKnown reports whether t is one of QuestionTypes. Unknown types are still
// rendered, using the generic list prefix.
func (t QuestionType) IsKnown() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Worksheet is the request body of the PDF endpoint. It only lives for the
// duration of one request.
type Worksheet struct {
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Header      *Header `json:"header,omitempty" yaml:"header,omitempty"`

	// Questions is nil when the field was absent from the request, which is
	// what enables the legacy Content path.
	Questions []Question `json:"questions,omitempty" yaml:"questions,omitempty"`

	// Content is the legacy item list, used only when Questions is absent
	Content []ContentItem `json:"content,omitempty" yaml:"content,omitempty"`
}

// UnmarshalJSON only fails when data is not a JSON object. Mistyped fields
// are left empty and list entries that are not objects are skipped.
func (w *Worksheet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       json.RawMessage `json:"title"`
		Description json.RawMessage `json:"description"`
		Header      json.RawMessage `json:"header"`
		Questions   json.RawMessage `json:"questions"`
		Content     json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid worksheet: %w", err)
	}

	*w = Worksheet{}
	w.Title, _ = decodeString(raw.Title)
	if description, ok := decodeString(raw.Description); ok {
		w.Description = &description
	}
	if isObject(raw.Header) {
		var header Header
		if err := json.Unmarshal(raw.Header, &header); err == nil {
			w.Header = &header
		}
	}
	if items, ok := decodeArray(raw.Questions); ok {
		w.Questions = make([]Question, 0, len(items))
		for _, item := range items {
			var question Question
			if isObject(item) && json.Unmarshal(item, &question) == nil {
				w.Questions = append(w.Questions, question)
			}
		}
	}
	if items, ok := decodeArray(raw.Content); ok {
		w.Content = make([]ContentItem, 0, len(items))
		for _, item := range items {
			var content ContentItem
			if isObject(item) && json.Unmarshal(item, &content) == nil {
				w.Content = append(w.Content, content)
			}
		}
	}
	return nil
}

// HasQuestions reports whether the modern questions field was supplied,
// even if it is empty.
func (w Worksheet) HasQuestions() bool {
	return w.Questions != nil
}

// Header holds the free-text values printed at the top of the first page.
// Values are never validated and may be empty.
type Header struct {
	StudentName string `json:"studentName" yaml:"studentName"`
	School      string `json:"school" yaml:"school"`
	TeacherName string `json:"teacherName" yaml:"teacherName"`
}

// UnmarshalJSON accepts both the short field names and the *Label variants
// sent by older clients. Any scalar is accepted as a value.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw struct {
		StudentName      json.RawMessage `json:"studentName"`
		School           json.RawMessage `json:"school"`
		TeacherName      json.RawMessage `json:"teacherName"`
		StudentNameLabel json.RawMessage `json:"studentNameLabel"`
		SchoolLabel      json.RawMessage `json:"schoolLabel"`
		TeacherNameLabel json.RawMessage `json:"teacherNameLabel"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	h.StudentName = firstOf(raw.StudentName, raw.StudentNameLabel)
	h.School = firstOf(raw.School, raw.SchoolLabel)
	h.TeacherName = firstOf(raw.TeacherName, raw.TeacherNameLabel)
	return nil
}

func firstOf(values ...json.RawMessage) string {
	for _, v := range values {
		if s, ok := decodeString(v); ok {
			return s
		}
	}
	return ""
}

// Question is a single numbered block of the worksheet. Number is caller
// assigned and rendered verbatim, duplicates and gaps included.
type Question struct {
	Number       int          `json:"number" yaml:"number"`
	Type         QuestionType `json:"type" yaml:"type"`
	QuestionText string       `json:"questionText" yaml:"questionText"`
	Alternatives []string     `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	ImageURL     *string      `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	AnswerLines  *int         `json:"answerLines,omitempty" yaml:"answerLines,omitempty"`
}

// UnmarshalJSON decodes a question leniently: a number sent as a string or
// float is accepted, any other mistyped field is left empty.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Number       json.RawMessage `json:"number"`
		Type         json.RawMessage `json:"type"`
		QuestionText json.RawMessage `json:"questionText"`
		Alternatives json.RawMessage `json:"alternatives"`
		ImageURL     json.RawMessage `json:"imageUrl"`
		AnswerLines  json.RawMessage `json:"answerLines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}

	*q = Question{}
	q.Number, _ = decodeInt(raw.Number)
	kind, _ := decodeString(raw.Type)
	q.Type = QuestionType(kind)
	q.QuestionText, _ = decodeString(raw.QuestionText)
	q.Alternatives = decodeStrings(raw.Alternatives)
	if url, ok := decodeString(raw.ImageURL); ok {
		q.ImageURL = &url
	}
	if lines, ok := decodeInt(raw.AnswerLines); ok {
		q.AnswerLines = &lines
	}
	return nil
}

// HasImage reports whether an image url was supplied (null and "" do not count)
func (q Question) HasImage() bool {
	return q.ImageURL != nil && *q.ImageURL != ""
}

// Lines returns the number of answer lines requested, 0 when absent or negative
func (q Question) Lines() int {
	if q.AnswerLines == nil || *q.AnswerLines < 0 {
		return 0
	}
	return *q.AnswerLines
}

// ContentItemType is the kind of a legacy content item
type ContentItemType string

const (
	ContentText     ContentItemType = "text"
	ContentQuestion ContentItemType = "question"
)

// ContentItem is an entry of the legacy content list
type ContentItem struct {
	Type  ContentItemType `json:"type" yaml:"type"`
	Value string          `json:"value" yaml:"value"`
}

// UnmarshalJSON decodes a legacy item, scalars of any type are accepted
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  json.RawMessage `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid content item: %w", err)
	}
	kind, _ := decodeString(raw.Type)
	c.Type = ContentItemType(kind)
	c.Value, _ = decodeString(raw.Value)
	return nil
}

// ErrorResponse is the JSON body written for any failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
