package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/domain"
	"heritage-quiz-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	service   *app.QuizService
	users     *memory.UserRepository
	attempts  *memory.AttemptRepository
	heritages *countingHeritages
	areas     domain.AreaMap
}

type countingHeritages struct {
	*memory.HeritageRepository
	samples int
}

func (c *countingHeritages) Sample(ctx context.Context, f domain.CandidateFilter, size int) ([]domain.HeritageRecord, error) {
	c.samples++
	return c.HeritageRepository.Sample(ctx, f, size)
}

type staticAreas struct {
	m   domain.AreaMap
	err error
}

func (s staticAreas) Provinces(context.Context) (domain.AreaMap, error) { return s.m, s.err }

func newTestEnv(t *testing.T, records []domain.HeritageRecord, areas domain.AreaMap, opts ...app.Option) *testEnv {
	t.Helper()
	themes := memory.NewThemeRepository()
	for _, tt := range domain.ThemeTypes {
		_ = themes.Create(context.Background(), domain.QuizTheme{ID: string(tt), Type: tt, Levels: domain.DefaultLevelSettings()})
	}
	env := &testEnv{
		users:     memory.NewUserRepository(domain.UserAggregate{ID: "u1", Name: "Alice"}),
		attempts:  memory.NewAttemptRepository(),
		heritages: &countingHeritages{HeritageRepository: memory.NewHeritageRepository(records)},
		areas:     areas,
	}
	opts = append([]app.Option{app.WithClock(func() time.Time { return fixedNow }), app.WithSeed(42)}, opts...)
	env.service = app.NewQuizService(app.QuizRepositories{
		Themes:    themes,
		Heritages: env.heritages,
		Attempts:  env.attempts,
		Users:     env.users,
	}, staticAreas{m: areas}, zerolog.Nop(), opts...)
	return env
}

// heritageFixture builds n records; record i lives in ward wNN which belongs to province pMM (i % provinces).
func heritageFixture(n, provinces int) ([]domain.HeritageRecord, domain.AreaMap) {
	var ps []domain.Province
	for i := 0; i < provinces; i++ {
		ps = append(ps, domain.Province{Code: i + 1, Name: fmt.Sprintf("Province %d", i), Codename: fmt.Sprintf("p%02d", i)})
	}
	var records []domain.HeritageRecord
	var wards []domain.Ward
	for i := 0; i < n; i++ {
		ward := fmt.Sprintf("w%02d", i)
		records = append(records, domain.HeritageRecord{
			HID:      fmt.Sprintf("h%02d", i),
			WardCode: ward,
			Name:     fmt.Sprintf("Heritage %d", i),
			Category: domain.CategoryTangible,
			Level:    domain.LevelNational,
			Image:    &domain.Image{URL: fmt.Sprintf("https://img.example/%d.jpg", i)},
			Summary:  fmt.Sprintf("Summary %d", i),
		})
		wards = append(wards, domain.Ward{Codename: ward, ProvinceCode: i%provinces + 1})
	}
	return records, domain.BuildAreaMap(ps, wards)
}

func TestStartRejectsUnknownDifficultyBeforeSampling(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)

	for _, d := range []string{"", "EASY", "expert", "medium "} {
		_, err := env.service.Start(context.Background(), string(domain.ThemeNameFromImage), d)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("difficulty %q: expected invalid input, got %v", d, err)
		}
	}
	if env.heritages.samples != 0 {
		t.Fatalf("expected no sampling, got %d calls", env.heritages.samples)
	}
}

func TestStartUnknownTheme(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)
	if _, err := env.service.Start(context.Background(), "nope", "easy"); !errors.Is(err, domain.ErrThemeNotFound) {
		t.Fatalf("expected theme not found, got %v", err)
	}
}

func TestStartBuildsValidQuestionsForEveryTheme(t *testing.T) {
	records, areas := heritageFixture(60, 10)
	wardOf := map[string]string{}
	for _, r := range records {
		wardOf[r.HID] = r.WardCode
	}

	for _, theme := range domain.ThemeTypes {
		for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
			env := newTestEnv(t, records, areas)
			session, err := env.service.Start(context.Background(), string(theme), string(d))
			if err != nil {
				t.Fatalf("%s/%s: start: %v", theme, d, err)
			}
			want := domain.DefaultLevelSettings().Count(d)
			if len(session.Questions) == 0 || len(session.Questions) > want {
				t.Fatalf("%s/%s: got %d questions, want 1..%d", theme, d, len(session.Questions), want)
			}

			seen := map[string]bool{}
			for _, q := range session.Questions {
				if seen[q.QuestionID] {
					t.Fatalf("%s/%s: record %s used for two questions", theme, d, q.QuestionID)
				}
				seen[q.QuestionID] = true

				if len(q.Options) != 4 {
					t.Fatalf("%s/%s: question %s has %d options", theme, d, q.QuestionID, len(q.Options))
				}
				correct := q.QuestionID
				if theme.RequiresProvinces() {
					correct, _ = areas.ProvinceCodename(wardOf[q.QuestionID])
				}
				matches := 0
				distinct := map[string]bool{}
				for _, o := range q.Options {
					distinct[o.Value] = true
					if o.Value == correct {
						matches++
					}
				}
				if matches != 1 || len(distinct) != 4 {
					t.Fatalf("%s/%s: question %s options %+v (correct %s)", theme, d, q.QuestionID, q.Options, correct)
				}
				if theme.RequiresImage() && q.Data.Image == nil {
					t.Fatalf("%s: question without image", theme)
				}
				if theme == domain.ThemeNameFromSummary && q.Data.Summary == "" {
					t.Fatalf("%s: question without summary", theme)
				}
				if !theme.RequiresProvinces() && q.Data.Name != "" {
					t.Fatalf("%s: name-guessing question leaks the name", theme)
				}
			}
		}
	}
}

func TestStartInsufficientCandidates(t *testing.T) {
	records, areas := heritageFixture(10, 10)
	for i := range records {
		if i >= 2 {
			records[i].Image = nil
		}
	}
	env := newTestEnv(t, records, areas)

	session, err := env.service.Start(context.Background(), string(domain.ThemeNameFromImage), "easy")
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	if len(session.Questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(session.Questions))
	}
}

func TestStartRequiresEnoughProvinces(t *testing.T) {
	records, areas := heritageFixture(50, 3)
	env := newTestEnv(t, records, areas)
	_, err := env.service.Start(context.Background(), string(domain.ThemeProvinceFromName), "easy")
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data with 3 provinces, got %v", err)
	}
}

func TestStartPropagatesAreaOutage(t *testing.T) {
	records, _ := heritageFixture(50, 10)
	themes := memory.NewThemeRepository(domain.QuizTheme{ID: "t", Type: domain.ThemeProvinceFromImage, Levels: domain.DefaultLevelSettings()})
	service := app.NewQuizService(app.QuizRepositories{
		Themes:    themes,
		Heritages: memory.NewHeritageRepository(records),
		Attempts:  memory.NewAttemptRepository(),
		Users:     memory.NewUserRepository(),
	}, staticAreas{err: fmt.Errorf("%w: boom", domain.ErrAreaDataUnavailable)}, zerolog.Nop())

	if _, err := service.Start(context.Background(), "t", "easy"); !errors.Is(err, domain.ErrAreaDataUnavailable) {
		t.Fatalf("expected area outage, got %v", err)
	}
}

func TestStartPartialPolicy(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	// Half of the wards are unknown to the reference data, so some questions are skipped.
	for ward := range areas.WardToProvince {
		if ward > "w24" {
			delete(areas.WardToProvince, ward)
		}
	}

	env := newTestEnv(t, records, areas)
	session, err := env.service.Start(context.Background(), string(domain.ThemeProvinceFromName), "hard")
	if err != nil {
		t.Fatalf("best effort: %v", err)
	}
	if len(session.Questions) == 0 || len(session.Questions) >= 15 {
		t.Fatalf("expected a partial set, got %d", len(session.Questions))
	}
	if session.Requested != 15 {
		t.Fatalf("expected requested=15, got %d", session.Requested)
	}

	strict := newTestEnv(t, records, areas, app.WithPartialPolicy(app.PartialStrict))
	if _, err := strict.service.Start(context.Background(), string(domain.ThemeProvinceFromName), "hard"); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("strict: expected insufficient data, got %v", err)
	}
}

func TestProvinceQuizEndToEnd(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)
	ctx := context.Background()

	session, err := env.service.Start(ctx, string(domain.ThemeProvinceFromName), "easy")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(session.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(session.Questions))
	}

	wardOf := map[string]string{}
	for _, r := range records {
		wardOf[r.HID] = r.WardCode
	}
	var answers []domain.AnswerSubmission
	for _, q := range session.Questions {
		province, _ := areas.ProvinceCodename(wardOf[q.QuestionID])
		answers = append(answers, domain.AnswerSubmission{QuestionID: q.QuestionID, SelectedValue: province, QuestionText: q.QuestionText})
	}

	res, err := env.service.Submit(ctx, app.SubmitRequest{
		UserID:     "u1",
		ThemeID:    session.ThemeID,
		Difficulty: "easy",
		Answers:    answers,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Attempt.CorrectCount != 5 || res.Attempt.Percent != 100 || res.XPGained != 90 {
		t.Fatalf("unexpected result %+v", res.Attempt)
	}
	if res.WeeklyScoreGained != 5 || res.Experience != 90 || res.WeeklyScore != 5 || res.Streak != 1 {
		t.Fatalf("unexpected aggregate result %+v", res)
	}

	history, _ := env.attempts.ListByUser(ctx, "u1")
	if len(history) != 1 || history[0].ID != res.Attempt.ID {
		t.Fatalf("expected attempt to be recorded, got %+v", history)
	}
}

func TestSubmitGradesIndependentlyOfClient(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)
	answers := []domain.AnswerSubmission{
		{QuestionID: "h01", SelectedValue: "h01"},
		{QuestionID: "h02", SelectedValue: "h03", SelectedAnswerText: "Heritage 2"},
		{QuestionID: "h04", SelectedValue: ""},
	}

	for i := 0; i < 2; i++ {
		res, err := env.service.Submit(context.Background(), app.SubmitRequest{
			UserID: "u1", ThemeID: string(domain.ThemeNameFromSummary), Difficulty: "medium", Answers: answers,
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if res.Attempt.CorrectCount != 1 || res.Attempt.Percent != 33 || res.XPGained != 12 {
			t.Fatalf("unexpected grading %+v", res.Attempt)
		}
		if !res.Attempt.Answers[0].Correct || res.Attempt.Answers[1].Correct || res.Attempt.Answers[2].Correct {
			t.Fatalf("unexpected per-answer grading %+v", res.Attempt.Answers)
		}
	}
}

func TestSubmitProvinceThemeUsesStoredWard(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)
	res, err := env.service.Submit(context.Background(), app.SubmitRequest{
		UserID:     "u1",
		ThemeID:    string(domain.ThemeProvinceFromImage),
		Difficulty: "easy",
		Answers: []domain.AnswerSubmission{
			{QuestionID: "h11", SelectedValue: "p01"},
			{QuestionID: "h12", SelectedValue: "p05"},
			{QuestionID: "unknown", SelectedValue: "p00"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Attempt.CorrectCount != 1 {
		t.Fatalf("expected only h11 to be correct, got %+v", res.Attempt.Answers)
	}
}

func TestSubmitValidation(t *testing.T) {
	records, areas := heritageFixture(50, 10)
	env := newTestEnv(t, records, areas)
	theme := string(domain.ThemeNameFromImage)
	one := []domain.AnswerSubmission{{QuestionID: "h01", SelectedValue: "h01"}}
	six := make([]domain.AnswerSubmission, 6)
	for i := range six {
		six[i] = domain.AnswerSubmission{QuestionID: fmt.Sprintf("h%02d", i)}
	}

	cases := []struct {
		name string
		req  app.SubmitRequest
		want error
	}{
		{"bad difficulty", app.SubmitRequest{UserID: "u1", ThemeID: theme, Difficulty: "insane", Answers: one}, domain.ErrInvalidInput},
		{"no answers", app.SubmitRequest{UserID: "u1", ThemeID: theme, Difficulty: "easy"}, domain.ErrInvalidInput},
		{"missing theme id", app.SubmitRequest{UserID: "u1", Difficulty: "easy", Answers: one}, domain.ErrInvalidInput},
		{"duplicate question", app.SubmitRequest{UserID: "u1", ThemeID: theme, Difficulty: "easy", Answers: append(one, one...)}, domain.ErrInvalidInput},
		{"too many answers", app.SubmitRequest{UserID: "u1", ThemeID: theme, Difficulty: "easy", Answers: six}, domain.ErrInvalidInput},
		{"unknown theme", app.SubmitRequest{UserID: "u1", ThemeID: "nope", Difficulty: "easy", Answers: one}, domain.ErrThemeNotFound},
		{"unknown user", app.SubmitRequest{UserID: "ghost", ThemeID: theme, Difficulty: "easy", Answers: one}, domain.ErrUserNotFound},
	}
	for _, tc := range cases {
		if _, err := env.service.Submit(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if history, _ := env.attempts.ListByUser(context.Background(), "u1"); len(history) != 0 {
		t.Fatalf("rejected submissions must not be recorded, got %d", len(history))
	}
}

func TestSubmitStreakTransitions(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 10:00 UTC is 17:00 in Ho Chi Minh City.
	yesterday := fixedNow.Add(-24 * time.Hour)
	threeDaysAgo := fixedNow.Add(-72 * time.Hour)
	earlierToday := fixedNow.Add(-2 * time.Hour)

	cases := []struct {
		name       string
		last       *time.Time
		streak     int
		wantStreak int
		wantLast   time.Time
	}{
		{"first quiz", nil, 0, 1, fixedNow},
		{"yesterday", &yesterday, 4, 5, fixedNow},
		{"gap", &threeDaysAgo, 4, 1, fixedNow},
		{"today", &earlierToday, 4, 4, earlierToday},
	}
	for _, tc := range cases {
		records, areas := heritageFixture(50, 10)
		env := newTestEnv(t, records, areas, app.WithLocation(loc))
		env.users.Put(domain.UserAggregate{ID: "u1", Streak: tc.streak, LastQuizCompletion: tc.last})

		res, err := env.service.Submit(context.Background(), app.SubmitRequest{
			UserID: "u1", ThemeID: string(domain.ThemeNameFromImage), Difficulty: "easy",
			Answers: []domain.AnswerSubmission{{QuestionID: "h01", SelectedValue: "h01"}},
		})
		if err != nil {
			t.Fatalf("%s: submit: %v", tc.name, err)
		}
		if res.Streak != tc.wantStreak || res.LastQuizCompletion == nil || !res.LastQuizCompletion.Equal(tc.wantLast) {
			t.Fatalf("%s: got streak=%d last=%v, want %d %v", tc.name, res.Streak, res.LastQuizCompletion, tc.wantStreak, tc.wantLast)
		}
	}
}

type failingAttempts struct{ *memory.AttemptRepository }

func (failingAttempts) Create(context.Context, domain.QuizAttempt) error {
	return errors.New("disk full")
}

func TestSubmitReportsPersistenceFailure(t *testing.T) {
	records, _ := heritageFixture(50, 10)
	themes := memory.NewThemeRepository(domain.QuizTheme{ID: "t", Type: domain.ThemeNameFromImage, Levels: domain.DefaultLevelSettings()})
	service := app.NewQuizService(app.QuizRepositories{
		Themes:    themes,
		Heritages: memory.NewHeritageRepository(records),
		Attempts:  failingAttempts{memory.NewAttemptRepository()},
		Users:     memory.NewUserRepository(domain.UserAggregate{ID: "u1"}),
	}, staticAreas{}, zerolog.Nop(), app.WithRetryBackoff(time.Millisecond))

	_, err := service.Submit(context.Background(), app.SubmitRequest{
		UserID: "u1", ThemeID: "t", Difficulty: "easy",
		Answers: []domain.AnswerSubmission{{QuestionID: "h01", SelectedValue: "h01"}},
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

type flakyAttempts struct {
	*memory.AttemptRepository
	failures int
}

func (f *flakyAttempts) Create(ctx context.Context, a domain.QuizAttempt) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.AttemptRepository.Create(ctx, a)
}

func TestSubmitRetriesTransientAttemptFailure(t *testing.T) {
	records, _ := heritageFixture(50, 10)
	themes := memory.NewThemeRepository(domain.QuizTheme{ID: "t", Type: domain.ThemeNameFromImage, Levels: domain.DefaultLevelSettings()})
	attempts := &flakyAttempts{AttemptRepository: memory.NewAttemptRepository(), failures: 2}
	users := memory.NewUserRepository(domain.UserAggregate{ID: "u1"})
	service := app.NewQuizService(app.QuizRepositories{
		Themes:    themes,
		Heritages: memory.NewHeritageRepository(records),
		Attempts:  attempts,
		Users:     users,
	}, staticAreas{}, zerolog.Nop(), app.WithRetryBackoff(time.Millisecond))

	res, err := service.Submit(context.Background(), app.SubmitRequest{
		UserID: "u1", ThemeID: "t", Difficulty: "easy",
		Answers: []domain.AnswerSubmission{{QuestionID: "h01", SelectedValue: "h01"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	history, _ := attempts.ListByUser(context.Background(), "u1")
	if len(history) != 1 || history[0].ID != res.Attempt.ID {
		t.Fatalf("expected one stored attempt, got %+v", history)
	}
	// 8 base XP plus the perfect bonus, applied once despite the retries.
	if u, _ := users.Get(context.Background(), "u1"); u.Experience != 58 || u.WeeklyScore != 1 {
		t.Fatalf("aggregate applied more than once: %+v", u)
	}
}
