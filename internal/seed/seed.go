// Package seed imports heritage records, quiz themes and demo users from a
// YAML or JSON file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"heritage-quiz-service/internal/domain"
)

var validate = validator.New()

// File is the on-disk layout. JSON files parse as YAML.
type File struct {
	Themes    []ThemeEntry    `yaml:"themes"`
	Users     []UserEntry     `yaml:"users"`
	Heritages []HeritageEntry `yaml:"heritages"`
}

type ThemeEntry struct {
	ID          string               `yaml:"id"`
	Type        string               `yaml:"type" validate:"required"`
	Description string               `yaml:"description"`
	Levels      domain.LevelSettings `yaml:"levels"`
}

type UserEntry struct {
	ID           string `yaml:"id" validate:"required"`
	Name         string `yaml:"name"`
	Avatar       string `yaml:"avatar"`
	Role         string `yaml:"role" validate:"omitempty,oneof=user admin"`
	ProvinceCode string `yaml:"provinceCode"`
}

type HeritageEntry struct {
	HID          string         `yaml:"hid" validate:"required"`
	WardCodename string         `yaml:"wardCodename" validate:"required"`
	Name         string         `yaml:"name" validate:"required"`
	Type         string         `yaml:"type" validate:"required"`
	TypeCode     int            `yaml:"typeCode" validate:"omitempty,min=1,max=3"`
	Level        string         `yaml:"level" validate:"required"`
	LevelCode    int            `yaml:"levelCode" validate:"omitempty,min=1,max=8"`
	Img          *domain.Image  `yaml:"img"`
	PhotoLibrary []domain.Image `yaml:"photoLibrary"`
	Summary      string         `yaml:"summary"`
	History      string         `yaml:"history"`
	Heritage     string         `yaml:"heritage"`
	WikiLink     string         `yaml:"wikiLink"`
	MapLink      string         `yaml:"googleMapLink"`
	Coordinate   []float64      `yaml:"coordinate"`
	Tags         []string       `yaml:"tags"`
}

// Data is a parsed and validated seed file.
type Data struct {
	Themes    []domain.QuizTheme
	Users     []domain.UserAggregate
	Heritages []domain.HeritageRecord
}

// Load reads and validates path. Every invalid entry is reported.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Data, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Data{}, fmt.Errorf("%w: parse seed file: %v", domain.ErrInvalidInput, err)
	}

	var (
		data Data
		errs []error
	)
	for i, e := range f.Themes {
		t, err := e.toDomain()
		if err != nil {
			errs = append(errs, fmt.Errorf("themes[%d]: %w", i, err))
			continue
		}
		data.Themes = append(data.Themes, t)
	}
	for i, e := range f.Users {
		if err := validate.Struct(e); err != nil {
			errs = append(errs, fmt.Errorf("users[%d]: %w", i, domain.Invalid("%v", err)))
			continue
		}
		data.Users = append(data.Users, domain.UserAggregate{
			ID:           e.ID,
			Name:         e.Name,
			Avatar:       e.Avatar,
			Role:         e.Role,
			ProvinceCode: e.ProvinceCode,
		})
	}
	seen := make(map[string]int, len(f.Heritages))
	for i, e := range f.Heritages {
		rec, err := e.toDomain()
		if err != nil {
			errs = append(errs, fmt.Errorf("heritages[%d]: %w", i, err))
			continue
		}
		if j, dup := seen[rec.HID]; dup {
			errs = append(errs, fmt.Errorf("heritages[%d]: %w", i, domain.Invalid("hid %s already used by heritages[%d]", rec.HID, j)))
			continue
		}
		seen[rec.HID] = i
		data.Heritages = append(data.Heritages, rec)
	}
	if len(errs) > 0 {
		return Data{}, errors.Join(errs...)
	}
	return data, nil
}

func (e ThemeEntry) toDomain() (domain.QuizTheme, error) {
	if e.Levels == (domain.LevelSettings{}) {
		e.Levels = domain.DefaultLevelSettings()
	}
	if err := validate.Struct(e); err != nil {
		return domain.QuizTheme{}, domain.Invalid("%v", err)
	}
	t := domain.QuizTheme{
		ID:          e.ID,
		Type:        domain.ThemeType(e.Type),
		Description: e.Description,
		Levels:      e.Levels,
	}
	if t.ID == "" {
		t.ID = strings.ToLower(e.Type)
	}
	return t, t.Validate()
}

func (e HeritageEntry) toDomain() (domain.HeritageRecord, error) {
	if err := validate.Struct(e); err != nil {
		return domain.HeritageRecord{}, domain.Invalid("%v", err)
	}
	category, err := domain.ParseCategory(e.Type, e.TypeCode)
	if err != nil {
		return domain.HeritageRecord{}, err
	}
	level, err := domain.ParseProtectionLevel(e.Level, e.LevelCode)
	if err != nil {
		return domain.HeritageRecord{}, err
	}
	rec := domain.HeritageRecord{
		HID:       strings.TrimSpace(e.HID),
		WardCode:  strings.TrimSpace(e.WardCodename),
		Name:      strings.TrimSpace(e.Name),
		Category:  category,
		Level:     level,
		Image:     e.Img,
		Gallery:   e.PhotoLibrary,
		Summary:   e.Summary,
		History:   e.History,
		Narrative: e.Heritage,
		WikiLink:  e.WikiLink,
		MapLink:   e.MapLink,
		Location:  domain.NewGeoPoint(e.Coordinate),
		Tags:      e.Tags,
	}
	rec.Normalize()
	return rec, rec.Validate()
}

type HeritageWriter interface {
	Upsert(ctx context.Context, records []domain.HeritageRecord) (int, error)
}

type ThemeWriter interface {
	Create(ctx context.Context, theme domain.QuizTheme) error
}

type UserWriter interface {
	Upsert(ctx context.Context, users []domain.UserAggregate) (int, error)
}

// Writers are the stores a seed is applied to. Nil writers are skipped.
type Writers struct {
	Heritages HeritageWriter
	Themes    ThemeWriter
	Users     UserWriter
}

// Summary counts what Apply wrote.
type Summary struct {
	Themes    int
	Users     int
	Heritages int
}

// Apply upserts data into the given stores.
func Apply(ctx context.Context, data Data, w Writers) (Summary, error) {
	var s Summary
	if w.Themes != nil {
		for _, t := range data.Themes {
			if err := w.Themes.Create(ctx, t); err != nil {
				return s, fmt.Errorf("seed theme %s: %w", t.ID, err)
			}
			s.Themes++
		}
	}
	if w.Users != nil && len(data.Users) > 0 {
		n, err := w.Users.Upsert(ctx, data.Users)
		if err != nil {
			return s, fmt.Errorf("seed users: %w", err)
		}
		s.Users = n
	}
	if w.Heritages != nil && len(data.Heritages) > 0 {
		n, err := w.Heritages.Upsert(ctx, data.Heritages)
		if err != nil {
			return s, fmt.Errorf("seed heritages: %w", err)
		}
		s.Heritages = n
	}
	return s, nil
}
