package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// Question defaults applied when the input leaves them unset.
const (
	DefaultQuestionType     = "multiple_choice"
	DefaultDifficulty       = "medium"
	DefaultTimeLimitSeconds = 20
)

// PackWithQuestions bundles a pack with its ordered question set.
type PackWithQuestions struct {
	domain.QuizPack
	Questions []domain.Question `json:"questions"`
}

// QuestionInput is one question as uploaded by a teacher. Options holds 2-4
// choices; the third and fourth are optional.
type QuestionInput struct {
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correct_answer"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

// CreatePackInput is the payload for creating a pack from uploaded notes.
type CreatePackInput struct {
	Title          string          `json:"title"`
	Subject        string          `json:"subject"`
	SourceFilename string          `json:"source_filename"`
	Questions      []QuestionInput `json:"questions"`
}

// PackService owns quiz pack content for teachers.
type PackService struct {
	packs PackStore
	now   func() time.Time
	newID func() string
}

func NewPackService(packs PackStore) *PackService {
	return &PackService{packs: packs, now: time.Now, newID: uuid.NewString}
}

// ListMyPacks returns the teacher's packs, newest first, each carrying its
// question count.
func (s *PackService) ListMyPacks(ctx context.Context, teacherID string) ([]domain.QuizPack, error) {
	return s.packs.PacksByTeacher(ctx, teacherID)
}

// CreatePack persists a pack and its questions in one atomic store call.
// Question order follows input position via sort_order; per-question defaults
// are filled in here. No further validation happens locally.
func (s *PackService) CreatePack(ctx context.Context, teacherID string, in CreatePackInput) (domain.QuizPack, error) {
	now := s.now()
	pack := domain.QuizPack{
		ID:             s.newID(),
		TeacherID:      teacherID,
		Title:          in.Title,
		Subject:        in.Subject,
		SourceFilename: in.SourceFilename,
		QuestionCount:  len(in.Questions),
		CreatedAt:      now,
	}

	questions := make([]domain.Question, len(in.Questions))
	for i, q := range in.Questions {
		questions[i] = domain.Question{
			ID:               s.newID(),
			QuizPackID:       pack.ID,
			Text:             q.Text,
			Type:             orDefault(q.Type, DefaultQuestionType),
			Difficulty:       orDefault(q.Difficulty, DefaultDifficulty),
			OptionA:          optionAt(q.Options, 0),
			OptionB:          optionAt(q.Options, 1),
			OptionC:          optionalAt(q.Options, 2),
			OptionD:          optionalAt(q.Options, 3),
			CorrectAnswer:    q.CorrectAnswer,
			TimeLimitSeconds: orDefaultInt(q.TimeLimitSeconds, DefaultTimeLimitSeconds),
			SortOrder:        i,
			CreatedAt:        now,
		}
	}

	if err := s.packs.CreatePack(ctx, pack, questions); err != nil {
		return domain.QuizPack{}, err
	}
	return pack, nil
}

// GetPackWithQuestions fetches a pack and its full question set.
func (s *PackService) GetPackWithQuestions(ctx context.Context, packID string) (PackWithQuestions, error) {
	pack, err := s.packs.PackByID(ctx, packID)
	if err != nil {
		return PackWithQuestions{}, err
	}
	questions, err := s.packs.QuestionsByPack(ctx, packID)
	if err != nil {
		return PackWithQuestions{}, err
	}
	return PackWithQuestions{QuizPack: pack, Questions: questions}, nil
}

// DeletePack removes a pack. Its questions go with it; cascading is the
// store's responsibility.
func (s *PackService) DeletePack(ctx context.Context, packID string) error {
	return s.packs.DeletePack(ctx, packID)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orDefaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func optionAt(options []string, i int) string {
	if i < len(options) {
		return options[i]
	}
	return ""
}

func optionalAt(options []string, i int) *string {
	if i < len(options) {
		v := options[i]
		return &v
	}
	return nil
}
