package domain

import "time"

// Plan tiers control how many players may join a teacher's game.
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// Game lifecycle states. Transitions only move forward:
// lobby -> in_progress -> finished.
const (
	StatusLobby      = "lobby"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Account is a teacher identity. PasswordHash is empty for accounts
// created through a third-party provider.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the account view exposed to clients, including the plan tier.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
}

// QuizPack is a named, ordered collection of questions owned by a teacher.
type QuizPack struct {
	ID             string    `json:"id"`
	TeacherID      string    `json:"teacher_id"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject"`
	SourceFilename string    `json:"source_filename"`
	QuestionCount  int       `json:"question_count"`
	GamesPlayed    int       `json:"games_played"`
	CreatedAt      time.Time `json:"created_at"`
}

// Question is a single multiple-choice question within a pack. OptionC and
// OptionD are nil when the question has fewer than four choices. SortOrder is
// unique within a pack and defines presentation order.
type Question struct {
	ID               string    `json:"id"`
	QuizPackID       string    `json:"quiz_pack_id"`
	Text             string    `json:"question_text"`
	Type             string    `json:"question_type"`
	Difficulty       string    `json:"difficulty"`
	OptionA          string    `json:"option_a"`
	OptionB          string    `json:"option_b"`
	OptionC          *string   `json:"option_c"`
	OptionD          *string   `json:"option_d"`
	CorrectAnswer    string    `json:"correct_answer"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	SortOrder        int       `json:"sort_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// Game is one live play-through of a pack, joined by a human-enterable code.
type Game struct {
	ID                       string     `json:"id"`
	QuizPackID               string     `json:"quiz_pack_id"`
	TeacherID                string     `json:"teacher_id"`
	Code                     string     `json:"game_code"`
	Status                   string     `json:"status"`
	MaxPlayers               int        `json:"max_players"`
	PlayerCount              int        `json:"player_count"`
	CurrentQuestionIndex     int        `json:"current_question_index"`
	CurrentQuestionStartedAt *time.Time `json:"current_question_started_at"`
	StartedAt                *time.Time `json:"started_at"`
	FinishedAt               *time.Time `json:"finished_at"`
	CreatedAt                time.Time  `json:"created_at"`
}

// Player is a student's presence within one game. Score, streak and counters
// are mutated only by answer submission.
type Player struct {
	ID            string    `json:"id"`
	GameID        string    `json:"game_id"`
	Nickname      string    `json:"nickname"`
	Score         int       `json:"score"`
	Streak        int       `json:"streak"`
	BestStreak    int       `json:"best_streak"`
	CorrectCount  int       `json:"correct_count"`
	TotalAnswered int       `json:"total_answered"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Response is an append-only record of one player's answer to one question.
type Response struct {
	ID             string    `json:"id"`
	GameID         string    `json:"game_id"`
	PlayerID       string    `json:"player_id"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	TimeTakenMs    int       `json:"time_taken_ms"`
	PointsEarned   int       `json:"points_earned"`
	StreakBonus    int       `json:"streak_bonus"`
	CreatedAt      time.Time `json:"created_at"`
}
