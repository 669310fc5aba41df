package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"heritage-quiz-service/internal/domain"
)

// PartialPolicy decides what happens when fewer questions than requested
// could be built.
type PartialPolicy string

const (
	// PartialBestEffort returns the shorter question set.
	PartialBestEffort PartialPolicy = "best_effort"
	// PartialStrict fails the session unless every requested question was built.
	PartialStrict PartialPolicy = "strict"
)

// ParsePartialPolicy maps a config value to a policy; "" means best effort.
func ParsePartialPolicy(raw string) (PartialPolicy, error) {
	switch p := PartialPolicy(raw); p {
	case "":
		return PartialBestEffort, nil
	case PartialBestEffort, PartialStrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown partial policy %q", raw)
}

// DefaultTimezone is used for streak day boundaries and the weekly schedule.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

const (
	attemptWriteTries       = 3
	defaultAttemptRetryBase = 100 * time.Millisecond
)

// QuizRepositories groups the stores the quiz use cases depend on.
type QuizRepositories struct {
	Themes    ThemeRepository
	Heritages HeritageRepository
	Attempts  AttemptRepository
	Users     UserRepository
}

// QuizService contains the start and submit use cases.
type QuizService struct {
	themes    ThemeRepository
	heritages HeritageRepository
	attempts  AttemptRepository
	users     UserRepository
	sampler   CandidateSampler
	areas     AreaProvider
	logger    zerolog.Logger

	now       func() time.Time
	loc       *time.Location
	partial   PartialPolicy
	rnd       *lockedRand
	retryBase time.Duration
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithSeed makes question generation reproducible.
func WithSeed(seed int64) Option {
	return func(s *QuizService) { s.rnd = newLockedRand(seed) }
}

// WithLocation sets the timezone used for streak day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *QuizService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithPartialPolicy(p PartialPolicy) Option {
	return func(s *QuizService) { s.partial = p }
}

// WithRetryBackoff sets the first delay between attempt insert retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *QuizService) { s.retryBase = d }
}

func NewQuizService(repos QuizRepositories, areas AreaProvider, logger zerolog.Logger, opts ...Option) *QuizService {
	s := &QuizService{
		themes:    repos.Themes,
		heritages: repos.Heritages,
		attempts:  repos.Attempts,
		users:     repos.Users,
		sampler:   NewCandidateSampler(repos.Heritages),
		areas:     areas,
		logger:    logger,
		now:       time.Now,
		loc:       time.UTC,
		partial:   PartialBestEffort,
		retryBase: defaultAttemptRetryBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = newTimeSeededRand()
	}
	return s
}

// Start generates a randomized question set for a theme and difficulty.
func (s *QuizService) Start(ctx context.Context, themeID, rawDifficulty string) (domain.QuizSession, error) {
	difficulty, err := domain.ParseDifficulty(rawDifficulty)
	if err != nil {
		return domain.QuizSession{}, err
	}
	theme, err := s.themes.Get(ctx, themeID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	count := theme.Levels.Count(difficulty)
	if count < 1 {
		return domain.QuizSession{}, domain.Invalid("theme %s has no questions configured for %s", theme.ID, difficulty)
	}

	candidates, err := s.sampler.Sample(ctx, theme.Type, count)
	if err != nil {
		return domain.QuizSession{}, err
	}

	var areas domain.AreaMap
	if theme.Type.RequiresProvinces() {
		areas, err = s.areas.Provinces(ctx)
		if err != nil {
			return domain.QuizSession{}, err
		}
		if len(areas.Provinces) < optionsPerQuestion || len(areas.WardToProvince) == 0 {
			return domain.QuizSession{}, domain.Insufficient("area data has %d provinces and %d wards",
				len(areas.Provinces), len(areas.WardToProvince))
		}
	}

	builder := questionBuilder{theme: theme.Type, candidates: candidates, areas: areas, rnd: s.rnd}
	questions := make([]domain.Question, 0, count)
	for _, correct := range shuffled(s.rnd, candidates)[:count] {
		q, reason := builder.build(correct)
		if reason != "" {
			s.logger.Warn().
				Str("theme", string(theme.Type)).
				Str("hid", correct.HID).
				Str("reason", reason).
				Msg("skipping question")
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return domain.QuizSession{}, domain.Insufficient("no question could be built for theme %s", theme.Type)
	}
	if len(questions) < count {
		if s.partial == PartialStrict {
			return domain.QuizSession{}, domain.Insufficient("built %d of %d questions", len(questions), count)
		}
		s.logger.Warn().
			Str("theme_id", theme.ID).
			Int("built", len(questions)).
			Int("requested", count).
			Msg("returning partial question set")
	}

	return domain.QuizSession{
		ThemeID:    theme.ID,
		ThemeType:  theme.Type,
		Difficulty: difficulty,
		Requested:  count,
		Questions:  questions,
	}, nil
}

// SubmitRequest is a completed quiz as sent by the client.
type SubmitRequest struct {
	UserID     string
	ThemeID    string
	Difficulty string
	Answers    []domain.AnswerSubmission
	StartedAt  *time.Time
}

// SubmitResult is the graded attempt plus the user's updated aggregates.
type SubmitResult struct {
	Attempt            domain.QuizAttempt `json:"attempt"`
	XPGained           int                `json:"xpGained"`
	WeeklyScoreGained  int                `json:"weeklyScoreGained"`
	Experience         int                `json:"currentExperience"`
	WeeklyScore        int                `json:"currentWeeklyScore"`
	Streak             int                `json:"currentStreak"`
	LastQuizCompletion *time.Time         `json:"lastQuizCompletionDate,omitempty"`
}

// Submit grades the answers server-side, records the attempt and updates the
// user's experience, weekly score and streak.
func (s *QuizService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	difficulty, err := validateSubmission(req)
	if err != nil {
		return SubmitResult{}, err
	}
	theme, err := s.themes.Get(ctx, req.ThemeID)
	if err != nil {
		return SubmitResult{}, err
	}
	if limit := theme.Levels.Count(difficulty); len(req.Answers) > limit {
		return SubmitResult{}, domain.Invalid("%d answers submitted, %s allows %d", len(req.Answers), difficulty, limit)
	}

	answers, correct, err := s.grade(ctx, theme.Type, req.Answers)
	if err != nil {
		return SubmitResult{}, err
	}

	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	total := len(answers)
	startedAt := now
	if req.StartedAt != nil && !req.StartedAt.IsZero() && !req.StartedAt.After(now) {
		startedAt = *req.StartedAt
	}
	attempt := domain.QuizAttempt{
		ID:             uuid.NewString(),
		ThemeID:        theme.ID,
		UserID:         req.UserID,
		Difficulty:     difficulty,
		TotalQuestions: total,
		CorrectCount:   correct,
		Percent:        Percent(correct, total),
		StartedAt:      startedAt,
		FinishedAt:     now,
		XPGained:       ExperienceFor(difficulty, correct, total),
		Answers:        answers,
	}
	delta := domain.QuizResultDelta{
		XP:     attempt.XPGained,
		Weekly: correct,
		Streak: ComputeStreak(user.LastQuizCompletion, now, s.loc),
	}

	// The attempt and the aggregate are disjoint rows; write them concurrently
	// and report any one-sided success. Only the attempt insert is retried,
	// the aggregate update increments and must run once.
	var (
		g          errgroup.Group
		updated    domain.UserAggregate
		attemptErr error
		userErr    error
	)
	g.Go(func() error {
		attemptErr = s.createAttempt(ctx, attempt)
		return attemptErr
	})
	g.Go(func() error {
		updated, userErr = s.users.ApplyQuizResult(ctx, req.UserID, delta)
		return userErr
	})
	if err := g.Wait(); err != nil {
		event := s.logger.Error().
			Str("user_id", req.UserID).
			Str("attempt_id", attempt.ID).
			AnErr("attempt_err", attemptErr).
			AnErr("aggregate_err", userErr)
		switch {
		case attemptErr == nil:
			event.Msg("attempt recorded but user aggregate update failed")
		case userErr == nil:
			event.Msg("user aggregate updated but attempt was not recorded")
		default:
			event.Msg("failed to record quiz submission")
		}
		return SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, errors.Join(attemptErr, userErr))
	}

	return SubmitResult{
		Attempt:            attempt,
		XPGained:           attempt.XPGained,
		WeeklyScoreGained:  delta.Weekly,
		Experience:         updated.Experience,
		WeeklyScore:        updated.WeeklyScore,
		Streak:             updated.Streak,
		LastQuizCompletion: updated.LastQuizCompletion,
	}, nil
}

// createAttempt retries the insert with exponential backoff. Attempts are
// keyed by id, so replaying an insert that did land is a no-op.
func (s *QuizService) createAttempt(ctx context.Context, a domain.QuizAttempt) error {
	var err error
	for try := 0; try < attemptWriteTries; try++ {
		if try > 0 {
			delay := s.retryBase << (try - 1)
			s.logger.Warn().Err(err).Str("attempt_id", a.ID).Dur("retry_in", delay).Msg("retrying attempt insert")
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(delay):
			}
		}
		if err = s.attempts.Create(ctx, a); err == nil {
			return nil
		}
	}
	return err
}

func validateSubmission(req SubmitRequest) (domain.Difficulty, error) {
	if req.UserID == "" {
		return "", domain.Invalid("user id is required")
	}
	if req.ThemeID == "" {
		return "", domain.Invalid("themeId is required")
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		return "", err
	}
	if len(req.Answers) == 0 {
		return "", domain.Invalid("answers must be a non-empty list")
	}
	seen := make(map[string]struct{}, len(req.Answers))
	for i, a := range req.Answers {
		if a.QuestionID == "" {
			return "", domain.Invalid("answer %d has no questionId", i)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return "", domain.Invalid("question %s answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return difficulty, nil
}

// grade re-derives correctness from stored content; client claims are ignored.
func (s *QuizService) grade(ctx context.Context, theme domain.ThemeType, submitted []domain.AnswerSubmission) ([]domain.AnswerRecord, int, error) {
	var (
		areas domain.AreaMap
		wards map[string]string
	)
	if theme.RequiresProvinces() {
		var err error
		if areas, err = s.areas.Provinces(ctx); err != nil {
			return nil, 0, err
		}
		hids := make([]string, 0, len(submitted))
		for _, a := range submitted {
			hids = append(hids, a.QuestionID)
		}
		if wards, err = s.heritages.WardCodes(ctx, hids); err != nil {
			return nil, 0, fmt.Errorf("load heritage wards: %w", err)
		}
	}

	records := make([]domain.AnswerRecord, 0, len(submitted))
	correct := 0
	for _, a := range submitted {
		var ok bool
		if theme.RequiresProvinces() {
			if ward, found := wards[a.QuestionID]; found {
				province, mapped := areas.ProvinceCodename(ward)
				ok = mapped && province == a.SelectedValue
			}
		} else {
			ok = a.SelectedValue != "" && a.SelectedValue == a.QuestionID
		}
		if ok {
			correct++
		}
		records = append(records, domain.AnswerRecord{
			QuestionID:         a.QuestionID,
			QuestionText:       a.QuestionText,
			QuestionImage:      a.QuestionImage,
			SelectedValue:      a.SelectedValue,
			SelectedAnswerText: a.SelectedAnswerText,
			Correct:            ok,
		})
	}
	return records, correct, nil
}
