package views

import "cuckoo-backend/internal/models"

type MainData struct {
	Count int
}

type QuestionData struct {
	Question     *models.Question
	Comments     []*models.Comment
	ShowComments bool
	CommentError string
}

type QuestionsData struct {
	Questions []*models.Question
	Tags      []string
	Search    string
	Tag       string
}

// QuestionForm is the add/edit form as submitted; Tags is comma separated.
type QuestionForm struct {
	Title string
	Text  string
	Tags  string
}

type QuestionFormData struct {
	Action string
	Form   QuestionForm
	Errors map[string]string
}

type LoginData struct {
	Login string
	Next  string
	Error string
}

type RegisterData struct {
	Username string
	Email    string
	Error    string
	Errors   map[string]string
}

type QuizStartData struct {
	Size       int
	InProgress bool
	Index      int
}

// QuizStepData renders both the question and the revealed answer. A nil
// Question means it was deleted after the quiz began.
type QuizStepData struct {
	Index    int
	Total    int
	Question *models.Question
	Revealed bool
}

type QuizRow struct {
	Question *models.Question
	Answered bool
}

type QuizFinishData struct {
	Correct int
	Total   int
	Rows    []QuizRow
}
