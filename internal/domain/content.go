package domain

import "errors"

// ContentType selects how a lesson is presented.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVideo ContentType = "video"
	ContentPDF   ContentType = "pdf"
	ContentEmbed ContentType = "embed"
	ContentQuiz  ContentType = "quiz"
)

// ErrUnsupportedContent is returned for a lesson type with no view.
var ErrUnsupportedContent = errors.New("Unsupported content type") //nolint:staticcheck // user-facing text

// LessonContent is the union of every content shape. Only the fields that
// belong to the lesson's type are populated.
type LessonContent struct {
	Text       string         `json:"text,omitempty"`
	VideoURL   string         `json:"videoUrl,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	PDFURL     string         `json:"pdfUrl,omitempty"`
	EmbedURL   string         `json:"embedUrl,omitempty"`
	Questions  []QuizQuestion `json:"questions,omitempty"`
}

// QuizQuestion is a multiple-choice question. Correct indexes Options.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// ContentView is what a lesson page shows for the lesson's type.
type ContentView struct {
	Type       ContentType  `json:"type"`
	Text       string       `json:"text,omitempty"`
	VideoURL   string       `json:"videoUrl,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
	PDFURL     string       `json:"pdfUrl,omitempty"`
	EmbedURL   string       `json:"embedUrl,omitempty"`
	Questions  []QuizPrompt `json:"questions,omitempty"`
}

// QuizPrompt is a question as shown to a student, without the answer.
type QuizPrompt struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// SelectContent builds the view for l's content type.
func SelectContent(l Lesson) (ContentView, error) {
	v := ContentView{Type: l.Type}
	switch l.Type {
	case ContentText:
		v.Text = l.Content.Text
	case ContentVideo:
		v.VideoURL = l.Content.VideoURL
		v.Transcript = l.Content.Transcript
	case ContentPDF:
		v.PDFURL = l.Content.PDFURL
	case ContentEmbed:
		v.EmbedURL = l.Content.EmbedURL
	case ContentQuiz:
		v.Questions = make([]QuizPrompt, 0, len(l.Content.Questions))
		for i, q := range l.Content.Questions {
			v.Questions = append(v.Questions, QuizPrompt{Index: i, Question: q.Question, Options: q.Options})
		}
	default:
		return ContentView{}, ErrUnsupportedContent
	}
	return v, nil
}

// Check reports whether selected is the correct option.
func (q QuizQuestion) Check(selected int) bool {
	return selected == q.Correct
}

// QuizResult is the outcome of checking a set of answers.
type QuizResult struct {
	Correct int          `json:"correct"`
	Total   int          `json:"total"`
	Answers []AnswerMark `json:"answers"`
}

// AnswerMark records whether one question was answered correctly.
type AnswerMark struct {
	Index    int  `json:"index"`
	Selected *int `json:"selected,omitempty"`
	Correct  bool `json:"correct"`
}

// CheckQuiz marks each question against answers, keyed by question index.
// Unanswered questions count as wrong.
func CheckQuiz(questions []QuizQuestion, answers map[int]int) QuizResult {
	res := QuizResult{Total: len(questions), Answers: make([]AnswerMark, 0, len(questions))}
	for i, q := range questions {
		mark := AnswerMark{Index: i}
		if sel, ok := answers[i]; ok {
			mark.Selected = &sel
			mark.Correct = q.Check(sel)
		}
		if mark.Correct {
			res.Correct++
		}
		res.Answers = append(res.Answers, mark)
	}
	return res
}
