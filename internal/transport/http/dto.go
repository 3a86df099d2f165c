package http

import (
	"time"

	"github.com/questroom/progress-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserItem struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	User        UserItem `json:"user"`
	AccessToken string   `json:"access_token"`
}

type MeResponse struct {
	User             UserItem `json:"user"`
	CompletedModules []int    `json:"completed_modules"`
}

type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"room_code" validate:"required,len=6"`
}

type RoomItem struct {
	ID          string    `json:"id"`
	Code        string    `json:"room_code"`
	Name        string    `json:"name"`
	IsProtected bool      `json:"is_protected"`
	MemberCount int       `json:"member_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}

type MemberItem struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type MembersResponse struct {
	Items []MemberItem `json:"items"`
}

type CompleteModuleRequest struct {
	ModuleNumber int `json:"module_number" validate:"required"`
}

type CompleteModuleResponse struct {
	ModuleNumber     int    `json:"module_number"`
	AlreadyCompleted bool   `json:"already_completed"`
	ModuleComplete   bool   `json:"module_complete"`
	RoomComplete     bool   `json:"room_complete"`
	IsDemo           bool   `json:"is_demo"`
	CompletedModules []int  `json:"completed_modules"`
	Message          string `json:"message"`
}

type MyProgressResponse struct {
	CompletedModules   []int   `json:"completed_modules"`
	TotalModules       int     `json:"total_modules"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

type MemberProgressItem struct {
	UserID           int64  `json:"user_id"`
	Username         string `json:"username"`
	CompletedModules []int  `json:"completed_modules"`
}

type RoomProgressResponse struct {
	TotalModules     int                  `json:"total_modules"`
	CompletedModules []int                `json:"completed_modules"`
	Members          []MemberProgressItem `json:"members"`
}

type GlossaryEntryRequest struct {
	Term       string `json:"term" validate:"required,min=1,max=200"`
	Definition string `json:"definition" validate:"required,min=1"`
}

type GlossaryUpdateRequest struct {
	Term       string `json:"term" validate:"omitempty,max=200"`
	Definition string `json:"definition"`
}

type GlossaryEntryItem struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"room_id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GlossaryListResponse struct {
	Entries          []GlossaryEntryItem `json:"entries"`
	EntryCount       int                 `json:"entry_count"`
	ContributorCount int                 `json:"contributor_count"`
	Search           string              `json:"search,omitempty"`
}

type QuizItem struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	Questions   []QuestionItem `json:"questions,omitempty"`
}

type QuestionItem struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Points  int          `json:"points"`
	Choices []ChoiceItem `json:"choices"`
}

type ChoiceItem struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type SubmitAttemptRequest struct {
	Answers []AnswerItem `json:"answers" validate:"required,dive"`
}

type AnswerItem struct {
	QuestionID int64 `json:"question_id" validate:"required"`
	ChoiceID   int64 `json:"choice_id" validate:"required"`
}

type AttemptItem struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type LeaderboardItem struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toRoomItem(r *domain.Room) RoomItem {
	return RoomItem{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		IsProtected: r.IsProtected,
		CreatedAt:   r.CreatedAt,
	}
}
