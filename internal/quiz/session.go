// Package quiz holds the quiz session state machine shared by the web and
// bot front-ends. It knows nothing about HTTP, Telegram or storage: callers
// hand it a Store and the ids of the questions that exist right now.
package quiz

import (
	"errors"
	"math/rand/v2"
)

// DefaultSize is the number of questions drawn for one attempt.
const DefaultSize = 10

// QuestionID identifies a question record.
type QuestionID int64

var (
	ErrNotStarted  = errors.New("quiz: not started")
	ErrNoQuestions = errors.New("quiz: no questions available")
	ErrOutOfRange  = errors.New("quiz: question index out of range")
	ErrFinished    = errors.New("quiz: already finished")
	ErrNotFinished = errors.New("quiz: not finished yet")
)

// State is the coarse position of a session.
type State int

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return "not_started"
	}
}

// Session is one actor's single attempt.
type Session struct {
	OrderedIDs []QuestionID        `json:"ordered_ids"`
	Index      int                 `json:"current_index"`
	Correct    int                 `json:"correct_count"`
	Answers    map[QuestionID]bool `json:"answers"`
}

// Transition is the outcome of a Mark call.
type Transition struct {
	Finished bool
	Index    int
	Correct  int
	Total    int
}

// Result is the summary of a finished session.
type Result struct {
	Correct int
	Total   int
	Answers []Answer
}

// Answer is one marked question, in quiz order.
type Answer struct {
	QuestionID QuestionID
	Answered   bool
}

// NewSession draws min(size, len(available)) distinct ids in random order.
// The input slice is not modified.
func NewSession(available []QuestionID, size int, rng *rand.Rand) *Session {
	pool := dedupe(available)
	k := size
	if k > len(pool) {
		k = len(pool)
	}

	// partial Fisher-Yates: the first k slots are a uniform sample
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return &Session{
		OrderedIDs: pool[:k:k],
		Answers:    make(map[QuestionID]bool, k),
	}
}

func dedupe(ids []QuestionID) []QuestionID {
	seen := make(map[QuestionID]struct{}, len(ids))
	out := make([]QuestionID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Total is the number of questions in the attempt.
func (s *Session) Total() int { return len(s.OrderedIDs) }

// State reports where the session is.
func (s *Session) State() State {
	if s == nil {
		return NotStarted
	}
	if s.Index >= len(s.OrderedIDs) {
		return Finished
	}
	return InProgress
}

// Current returns the id under the cursor.
func (s *Session) Current() (QuestionID, error) {
	if len(s.OrderedIDs) == 0 {
		return 0, ErrNoQuestions
	}
	if s.Index < 0 || s.Index >= len(s.OrderedIDs) {
		return 0, ErrOutOfRange
	}
	return s.OrderedIDs[s.Index], nil
}

// At is Current with a position check: n must be the cursor.
func (s *Session) At(n int) (QuestionID, error) {
	id, err := s.Current()
	if err != nil {
		return 0, err
	}
	if n != s.Index {
		return 0, ErrOutOfRange
	}
	return id, nil
}

// Mark records the verdict for the current question and advances.
func (s *Session) Mark(answered bool) (Transition, error) {
	if len(s.OrderedIDs) == 0 {
		return Transition{}, ErrNoQuestions
	}
	if s.Index >= len(s.OrderedIDs) {
		return Transition{}, ErrFinished
	}

	id := s.OrderedIDs[s.Index]
	if s.Answers == nil {
		s.Answers = make(map[QuestionID]bool, len(s.OrderedIDs))
	}
	s.Answers[id] = answered
	if answered {
		s.Correct++
	}
	s.Index++

	return Transition{
		Finished: s.Index >= len(s.OrderedIDs),
		Index:    s.Index,
		Correct:  s.Correct,
		Total:    len(s.OrderedIDs),
	}, nil
}

// Result summarises the session in quiz order.
func (s *Session) Result() Result {
	res := Result{Correct: s.Correct, Total: len(s.OrderedIDs)}
	for _, id := range s.OrderedIDs[:s.Index] {
		res.Answers = append(res.Answers, Answer{QuestionID: id, Answered: s.Answers[id]})
	}
	return res
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := &Session{
		OrderedIDs: append([]QuestionID(nil), s.OrderedIDs...),
		Index:      s.Index,
		Correct:    s.Correct,
		Answers:    make(map[QuestionID]bool, len(s.Answers)),
	}
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	return cp
}
