package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/quiz"
	"cuckoo-backend/internal/repository"
)

const (
	maxTitleLen   = 128
	maxCommentLen = 2000
)

// QuestionStore is implemented by repository.QuestionRepo.
type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	Random(ctx context.Context) (*models.Question, error)
	List(ctx context.Context, filter models.QuestionFilter) ([]*models.Question, error)
	ListIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]string, error)
}

// CommentStore is implemented by repository.CommentRepo.
type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	ListByQuestion(ctx context.Context, questionID int64) ([]*models.Comment, error)
}

// CommentPublisher fans a stored comment out to live viewers.
type CommentPublisher interface {
	PublishComment(ctx context.Context, c *models.Comment) error
}

type QuestionService struct {
	questions QuestionStore
	comments  CommentStore
	publisher CommentPublisher
}

func NewQuestionService(questions QuestionStore, comments CommentStore, publisher CommentPublisher) *QuestionService {
	return &QuestionService{questions: questions, comments: comments, publisher: publisher}
}

func validateQuestion(title, text string) map[string]string {
	fields := make(map[string]string)
	if title == "" {
		fields["title"] = "Title is required"
	} else if utf8.RuneCountInString(title) > maxTitleLen {
		fields["title"] = fmt.Sprintf("Title must be at most %d characters", maxTitleLen)
	}
	if text == "" {
		fields["text"] = "Text is required"
	}
	return fields
}

func duplicateError() error {
	return &ValidationError{Fields: map[string]string{"title": "Question already exists"}}
}

func (s *QuestionService) Create(ctx context.Context, req models.CreateQuestionRequest) (*models.Question, error) {
	q := &models.Question{
		Title: strings.TrimSpace(req.Title),
		Text:  strings.TrimSpace(req.Text),
		Tags:  models.NormalizeTags(req.Tags),
	}
	if fields := validateQuestion(q.Title, q.Text); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.questions.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateError()
		}
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Question not found"}
		}
		return nil, err
	}
	return q, nil
}

// Random returns a NotFoundError when there are no questions at all.
func (s *QuestionService) Random(ctx context.Context) (*models.Question, error) {
	q, err := s.questions.Random(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "No questions yet"}
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, filter models.QuestionFilter) ([]*models.Question, error) {
	return s.questions.List(ctx, filter)
}

func (s *QuestionService) Tags(ctx context.Context) ([]string, error) {
	return s.questions.ListTags(ctx)
}

func (s *QuestionService) Count(ctx context.Context) (int, error) {
	return s.questions.Count(ctx)
}

// QuizPool snapshots the ids a quiz can be drawn from.
func (s *QuestionService) QuizPool(ctx context.Context) ([]quiz.QuestionID, error) {
	ids, err := s.questions.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	out := make([]quiz.QuestionID, len(ids))
	for i, id := range ids {
		out[i] = quiz.QuestionID(id)
	}
	return out, nil
}

// Update applies a partial update; nil request fields keep their value.
func (s *QuestionService) Update(ctx context.Context, id int64, req models.UpdateQuestionRequest) (*models.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Text != nil {
		q.Text = strings.TrimSpace(*req.Text)
	}
	if req.Tags != nil {
		q.Tags = models.NormalizeTags(*req.Tags)
	}
	if fields := validateQuestion(q.Title, q.Text); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.questions.Update(ctx, q); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, duplicateError()
		case errors.Is(err, pgx.ErrNoRows):
			return nil, &NotFoundError{Message: "Question not found"}
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Question not found"}
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *QuestionService) Comments(ctx context.Context, questionID int64) ([]*models.Comment, error) {
	return s.comments.ListByQuestion(ctx, questionID)
}

// AddComment stores the comment and pushes it to live viewers. A failed
// publish is logged only; the comment is already saved.
func (s *QuestionService) AddComment(ctx context.Context, questionID, userID int64, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, &ValidationError{Fields: map[string]string{"text": "Comment cannot be empty"}}
	case utf8.RuneCountInString(text) > maxCommentLen:
		return nil, &ValidationError{Fields: map[string]string{"text": fmt.Sprintf("Comment must be at most %d characters", maxCommentLen)}}
	}

	if _, err := s.Get(ctx, questionID); err != nil {
		return nil, err
	}

	c := &models.Comment{Text: text, UserID: userID, QuestionID: questionID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishComment(ctx, c); err != nil {
			log.Printf("publish comment %d: %v", c.ID, err)
		}
	}
	return c, nil
}
