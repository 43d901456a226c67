package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// Store is a mutex-guarded in-memory implementation of every storage
// interface the services need. It backs unit tests and the no-database dev
// mode.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	packs     map[string]domain.QuizPack
	questions map[string]domain.Question
	games     map[string]domain.Game
	players   map[string]*domain.Player
	responses []domain.Response
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]domain.Account),
		packs:     make(map[string]domain.QuizPack),
		questions: make(map[string]domain.Question),
		games:     make(map[string]domain.Game),
		players:   make(map[string]*domain.Player),
	}
}

// --- accounts ---

func (s *Store) CreateAccount(_ context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return domain.ErrEmailTaken
		}
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) AccountByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *Store) AccountByID(_ context.Context, accountID string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return a, nil
}

// --- packs and questions ---

func (s *Store) CreatePack(_ context.Context, pack domain.QuizPack, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs[pack.ID] = pack
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	return nil
}

func (s *Store) PacksByTeacher(_ context.Context, teacherID string) ([]domain.QuizPack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var packs []domain.QuizPack
	for _, p := range s.packs {
		if p.TeacherID == teacherID {
			packs = append(packs, p)
		}
	}
	sort.Slice(packs, func(i, j int) bool {
		return packs[i].CreatedAt.After(packs[j].CreatedAt)
	})
	return packs, nil
}

func (s *Store) PackByID(_ context.Context, packID string) (domain.QuizPack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packs[packID]
	if !ok {
		return domain.QuizPack{}, domain.ErrPackNotFound
	}
	return p, nil
}

func (s *Store) QuestionsByPack(_ context.Context, packID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []domain.Question
	for _, q := range s.questions {
		if q.QuizPackID == packID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].SortOrder < questions[j].SortOrder
	})
	return questions, nil
}

func (s *Store) DeletePack(_ context.Context, packID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packs[packID]; !ok {
		return domain.ErrPackNotFound
	}
	delete(s.packs, packID)
	for id, q := range s.questions {
		if q.QuizPackID == packID {
			delete(s.questions, id)
		}
	}
	return nil
}

func (s *Store) Question(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) IncrementGamesPlayed(_ context.Context, packID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packs[packID]
	if !ok {
		return domain.ErrPackNotFound
	}
	p.GamesPlayed++
	s.packs[packID] = p
	return nil
}

// --- games ---

func (s *Store) CreateGame(_ context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

func (s *Store) GameByID(_ context.Context, gameID string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, nil
}

func (s *Store) GameByCode(_ context.Context, code string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if g.Code == code && (g.Status == domain.StatusLobby || g.Status == domain.StatusInProgress) {
			return g, nil
		}
	}
	return domain.Game{}, domain.ErrGameNotFound
}

func (s *Store) StartGame(_ context.Context, gameID string, now time.Time) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if g.Status != domain.StatusLobby {
		return domain.Game{}, domain.ErrInvalidTransition
	}
	g.Status = domain.StatusInProgress
	g.StartedAt = &now
	g.CurrentQuestionStartedAt = &now
	s.games[gameID] = g
	return g, nil
}

func (s *Store) AdvanceGame(_ context.Context, gameID string, questionIndex int, now time.Time) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if g.Status != domain.StatusInProgress {
		return domain.Game{}, domain.ErrInvalidTransition
	}
	g.CurrentQuestionIndex = questionIndex
	g.CurrentQuestionStartedAt = &now
	s.games[gameID] = g
	return g, nil
}

func (s *Store) FinishGame(_ context.Context, gameID string, now time.Time) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if g.Status != domain.StatusInProgress {
		return domain.Game{}, domain.ErrInvalidTransition
	}
	g.Status = domain.StatusFinished
	g.FinishedAt = &now
	s.games[gameID] = g
	return g, nil
}

func (s *Store) IncrementPlayerCount(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.ErrGameNotFound
	}
	g.PlayerCount++
	s.games[gameID] = g
	return nil
}

// --- players and responses ---

func (s *Store) CreatePlayer(_ context.Context, p domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := p
	s.players[p.ID] = &player
	return nil
}

// RecordAnswer applies score under the store lock, so concurrent submissions
// for the same player serialize instead of losing updates.
func (s *Store) RecordAnswer(_ context.Context, playerID string, score func(p *domain.Player) domain.Response) (domain.Player, domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.Player{}, domain.Response{}, domain.ErrPlayerNotFound
	}
	response := score(player)
	s.responses = append(s.responses, response)
	return *player, response, nil
}

func (s *Store) PlayersByGame(_ context.Context, gameID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []domain.Player
	for _, p := range s.players {
		if p.GameID == gameID {
			players = append(players, *p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players, nil
}

// ResponsesByGame is used by tests to inspect the append-only answer log.
func (s *Store) ResponsesByGame(_ context.Context, gameID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var responses []domain.Response
	for _, r := range s.responses {
		if r.GameID == gameID {
			responses = append(responses, r)
		}
	}
	return responses, nil
}
