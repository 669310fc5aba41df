package domain

import "time"

// ThemeType selects how questions are generated and graded.
type ThemeType string

const (
	ThemeNameFromImage     ThemeType = "GUESS_NAME_FROM_IMAGE"
	ThemeProvinceFromImage ThemeType = "GUESS_PROVINCE_FROM_IMAGE"
	ThemeProvinceFromName  ThemeType = "GUESS_PROVINCE_FROM_NAME"
	ThemeNameFromSummary   ThemeType = "GUESS_NAME_FROM_SUMMARY"
)

// ThemeTypes lists every supported theme in display order.
var ThemeTypes = []ThemeType{
	ThemeNameFromImage,
	ThemeProvinceFromImage,
	ThemeProvinceFromName,
	ThemeNameFromSummary,
}

// Valid reports whether t is a known theme.
func (t ThemeType) Valid() bool {
	for _, known := range ThemeTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t ThemeType) RequiresImage() bool {
	return t == ThemeNameFromImage || t == ThemeProvinceFromImage
}

func (t ThemeType) RequiresSummary() bool {
	return t == ThemeNameFromSummary
}

// RequiresProvinces reports whether questions are answered with a province.
func (t ThemeType) RequiresProvinces() bool {
	return t == ThemeProvinceFromImage || t == ThemeProvinceFromName
}

// CandidateFilter returns the storage filter for this theme.
func (t ThemeType) CandidateFilter() CandidateFilter {
	return CandidateFilter{RequireImage: t.RequiresImage(), RequireSummary: t.RequiresSummary()}
}

// Difficulty is one of easy, medium or hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty rejects anything outside the three known levels.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", Invalid("difficulty must be one of easy, medium, hard (got %q)", raw)
}

// LevelSettings holds the question count per difficulty.
type LevelSettings struct {
	Easy   int `json:"easy" yaml:"easy" validate:"gte=1"`
	Medium int `json:"medium" yaml:"medium" validate:"gte=1"`
	Hard   int `json:"hard" yaml:"hard" validate:"gte=1"`
}

// Count returns the configured question count for d.
func (l LevelSettings) Count(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return l.Easy
	case DifficultyMedium:
		return l.Medium
	case DifficultyHard:
		return l.Hard
	}
	return 0
}

// DefaultLevelSettings matches the defaults applied when an admin omits counts.
func DefaultLevelSettings() LevelSettings {
	return LevelSettings{Easy: 5, Medium: 10, Hard: 15}
}

// QuizTheme is an admin-managed quiz rule set.
type QuizTheme struct {
	ID          string        `json:"id"`
	Type        ThemeType     `json:"themeType"`
	Description string        `json:"description,omitempty"`
	Levels      LevelSettings `json:"levelSettings"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Validate checks the theme type and that every count is positive.
func (t QuizTheme) Validate() error {
	if !t.Type.Valid() {
		return Invalid("unsupported theme type %q", t.Type)
	}
	if t.Levels.Easy < 1 || t.Levels.Medium < 1 || t.Levels.Hard < 1 {
		return Invalid("question count for every level must be at least 1")
	}
	return nil
}

// Option is one multiple-choice answer.
type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// QuestionData carries what the client needs to render a question.
type QuestionData struct {
	HID     string `json:"hid"`
	Name    string `json:"name,omitempty"`
	Image   *Image `json:"img,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Question is a generated multiple-choice question. QuestionID is the hid of
// the record the question is about.
type Question struct {
	QuestionID   string       `json:"questionId"`
	QuestionText string       `json:"questionText"`
	Data         QuestionData `json:"questionData"`
	Options      []Option     `json:"options"`
}

// QuizSession is the result of starting a quiz.
type QuizSession struct {
	ThemeID    string     `json:"themeId"`
	ThemeType  ThemeType  `json:"themeType"`
	Difficulty Difficulty `json:"difficulty"`
	Requested  int        `json:"requested"`
	Questions  []Question `json:"questions"`
}
