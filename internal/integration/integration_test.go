package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"heritage-quiz-service/internal/app"
	"heritage-quiz-service/internal/domain"
	"heritage-quiz-service/internal/infra/areas"
	"heritage-quiz-service/internal/infra/postgres"
	infraredis "heritage-quiz-service/internal/infra/redis"
	"heritage-quiz-service/internal/seed"
)

const provinceCount = 6

func TestQuizRoundTripAndRollover(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applied, err := postgres.Migrate(ctx, pgURL)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied) != 4 {
		t.Fatalf("expected 4 migrations, got %v", applied)
	}
	if again, err := postgres.Migrate(ctx, pgURL); err != nil || len(again) != 0 {
		t.Fatalf("second migrate should be a no-op, got %v err=%v", again, err)
	}

	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	heritages := postgres.NewHeritageRepository(pool)
	themes := postgres.NewThemeRepository(pool)
	users := postgres.NewUserRepository(pool)
	attempts := postgres.NewAttemptRepository(pool)

	summary, err := seed.Apply(ctx, sampleSeed(), seed.Writers{Heritages: heritages, Themes: themes, Users: users})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if summary.Heritages != 30 || summary.Themes != 1 || summary.Users != 3 {
		t.Fatalf("unexpected seed summary %+v", summary)
	}

	candidates, err := heritages.Sample(ctx, domain.CandidateFilter{RequireImage: true}, 50)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(candidates) != 30 {
		t.Fatalf("expected all 30 records sampled, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.ImageURL() == "" || c.Summary == "" || c.WardCode == "" || c.Name == "" {
			t.Fatalf("candidate missing projected fields %+v", c)
		}
		if c.History != "" || c.Location != nil || len(c.Gallery) != 0 {
			t.Fatalf("candidate carries columns outside the projection %+v", c)
		}
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	refSrv := referenceServer(t)
	defer refSrv.Close()
	resolver := app.NewAreaResolver(
		areas.NewClient(refSrv.URL+"/v2/provinces", refSrv.URL+"/v2/wards", 5*time.Second),
		infraredis.NewAreaCache(redisClient),
		time.Hour, 5*time.Second, zerolog.Nop(),
	)

	service := app.NewQuizService(app.QuizRepositories{
		Themes:    themes,
		Heritages: heritages,
		Attempts:  attempts,
		Users:     users,
	}, resolver, zerolog.Nop())

	session, err := service.Start(ctx, "province-name", "easy")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(session.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(session.Questions))
	}

	var answers []domain.AnswerSubmission
	for _, q := range session.Questions {
		answers = append(answers, domain.AnswerSubmission{QuestionID: q.QuestionID, SelectedValue: provinceOf(q.QuestionID)})
	}
	res, err := service.Submit(ctx, app.SubmitRequest{
		UserID:     "u1",
		ThemeID:    session.ThemeID,
		Difficulty: "easy",
		Answers:    answers,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Attempt.CorrectCount != 5 || res.XPGained != 90 || res.WeeklyScore != 5 || res.Streak != 1 {
		t.Fatalf("unexpected submit result %+v", res)
	}

	stored, err := attempts.Get(ctx, "u1", res.Attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Percent != 100 || len(stored.Answers) != 5 || !stored.Answers[0].Correct {
		t.Fatalf("unexpected stored attempt %+v", stored)
	}
	if _, err := attempts.Get(ctx, "u2", res.Attempt.ID); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected attempt hidden from other users, got %v", err)
	}

	// u2 ties u1 on the weekly board; admins never appear on it.
	if _, err := users.ApplyQuizResult(ctx, "u2", domain.QuizResultDelta{XP: 10, Weekly: 5}); err != nil {
		t.Fatalf("apply u2: %v", err)
	}
	board, err := users.Leaderboard(ctx, domain.LeaderboardQuery{Board: domain.BoardWeekly, Limit: 10})
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].Score != 5 || board[1].Score != 5 {
		t.Fatalf("unexpected weekly board %+v", board)
	}

	rollover := app.NewRolloverService(users, infraredis.NewLocker(redisClient), time.Minute, zerolog.Nop())
	result, err := rollover.Run(ctx)
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if result.UsersReset != 3 || result.WinningScore != 5 || !reflect.DeepEqual(result.Winners, []string{"u1", "u2"}) {
		t.Fatalf("unexpected rollover result %+v", result)
	}

	u1, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get u1: %v", err)
	}
	if u1.WeeklyScore != 0 || u1.LastWeeklyScore != 5 || u1.LastWeekRank != 1 || u1.WeeklyWins != 1 || u1.Experience != 90 {
		t.Fatalf("unexpected u1 after rollover %+v", u1)
	}

	last, _ := users.Leaderboard(ctx, domain.LeaderboardQuery{Board: domain.BoardLastWeekly, Limit: 10})
	if len(last) != 2 || last[0].LastWeekRank != 1 {
		t.Fatalf("unexpected lastweekly board %+v", last)
	}
}

func TestRedisLockerAgainstRealServer(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	locker := infraredis.NewLocker(client)
	unlock, ok, err := locker.TryLock(ctx, app.RolloverLockKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first lock, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := locker.TryLock(ctx, app.RolloverLockKey, time.Minute); ok {
		t.Fatalf("expected second lock to be refused")
	}
	unlock()
	if _, ok, _ := locker.TryLock(ctx, app.RolloverLockKey, time.Minute); !ok {
		t.Fatalf("expected lock after release")
	}
}

func provinceOf(hid string) string {
	var i int
	_, _ = fmt.Sscanf(hid, "h%02d", &i)
	return fmt.Sprintf("p%02d", i%provinceCount)
}

func sampleSeed() seed.Data {
	data := seed.Data{
		Themes: []domain.QuizTheme{{
			ID:     "province-name",
			Type:   domain.ThemeProvinceFromName,
			Levels: domain.DefaultLevelSettings(),
		}},
		Users: []domain.UserAggregate{
			{ID: "u1", Name: "Alice", Role: domain.RoleUser},
			{ID: "u2", Name: "Bob", Role: domain.RoleUser},
			{ID: "root", Name: "Admin", Role: domain.RoleAdmin},
		},
	}
	for i := 0; i < 30; i++ {
		data.Heritages = append(data.Heritages, domain.HeritageRecord{
			HID:      fmt.Sprintf("h%02d", i),
			WardCode: fmt.Sprintf("w%02d", i),
			Name:     fmt.Sprintf("Heritage %d", i),
			Category: domain.CategoryTangible,
			Level:    domain.LevelNational,
			Summary:  fmt.Sprintf("Summary %d", i),
			History:  fmt.Sprintf("History %d", i),
			Image:    &domain.Image{URL: fmt.Sprintf("https://img.example/%d.jpg", i)},
		})
	}
	return data
}

// referenceServer serves the province and ward lists the seeded records point at.
func referenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	var provinces, wards []string
	for i := 0; i < provinceCount; i++ {
		provinces = append(provinces, fmt.Sprintf(`{"code":%d,"name":"Province %d","codename":"p%02d"}`, i+1, i, i))
	}
	for i := 0; i < 30; i++ {
		wards = append(wards, fmt.Sprintf(`{"codename":"w%02d","province_code":%d}`, i, i%provinceCount+1))
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/provinces":
			_, _ = w.Write([]byte("[" + strings.Join(provinces, ",") + "]"))
		case "/v2/wards":
			_, _ = w.Write([]byte("[" + strings.Join(wards, ",") + "]"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
