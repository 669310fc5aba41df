package app

import (
	"fmt"

	"heritage-quiz-service/internal/domain"
)

// questionBuilder turns one correct record into a four-option question.
type questionBuilder struct {
	theme      domain.ThemeType
	candidates []domain.HeritageRecord
	areas      domain.AreaMap
	rnd        *lockedRand
}

// build returns the question or a reason it had to be skipped.
func (b questionBuilder) build(correct domain.HeritageRecord) (domain.Question, string) {
	q := domain.Question{
		QuestionID: correct.HID,
		Data:       domain.QuestionData{HID: correct.HID},
	}
	if b.theme.RequiresImage() {
		q.Data.Image = correct.Image
	}
	if b.theme.RequiresSummary() {
		q.Data.Summary = correct.Summary
	}

	var reason string
	switch b.theme {
	case domain.ThemeNameFromImage:
		q.QuestionText = "Which heritage site is this?"
		q.Options, reason = b.nameOptions(correct)
	case domain.ThemeNameFromSummary:
		q.QuestionText = "Which heritage site does this description refer to?"
		q.Options, reason = b.nameOptions(correct)
	case domain.ThemeProvinceFromImage:
		q.Data.Name = correct.Name
		q.QuestionText = "Which province is this heritage site in?"
		q.Options, reason = b.provinceOptions(correct)
	case domain.ThemeProvinceFromName:
		q.Data.Name = correct.Name
		q.QuestionText = fmt.Sprintf("Which province is %q in?", correct.Name)
		q.Options, reason = b.provinceOptions(correct)
	default:
		return domain.Question{}, fmt.Sprintf("unsupported theme %s", b.theme)
	}
	if reason != "" {
		return domain.Question{}, reason
	}
	if len(q.Options) != optionsPerQuestion {
		return domain.Question{}, fmt.Sprintf("built %d options", len(q.Options))
	}
	return q, ""
}

func (b questionBuilder) nameOptions(correct domain.HeritageRecord) ([]domain.Option, string) {
	others := make([]domain.HeritageRecord, 0, len(b.candidates))
	for _, c := range b.candidates {
		if c.HID != correct.HID {
			others = append(others, c)
		}
	}
	if len(others) < distractorCount {
		return nil, fmt.Sprintf("only %d distractor records", len(others))
	}
	choices := append([]domain.HeritageRecord{correct}, pick(b.rnd, others, distractorCount)...)
	options := make([]domain.Option, 0, len(choices))
	for _, c := range shuffled(b.rnd, choices) {
		options = append(options, domain.Option{Text: c.Name, Value: c.HID})
	}
	return options, ""
}

func (b questionBuilder) provinceOptions(correct domain.HeritageRecord) ([]domain.Option, string) {
	province, ok := b.areas.ProvinceOf(correct.WardCode)
	if !ok {
		return nil, fmt.Sprintf("no province for ward %q", correct.WardCode)
	}
	others := b.areas.OtherProvinces(province.Codename)
	if len(others) < distractorCount {
		return nil, fmt.Sprintf("only %d distractor provinces", len(others))
	}
	choices := append([]domain.Province{province}, pick(b.rnd, others, distractorCount)...)
	options := make([]domain.Option, 0, len(choices))
	for _, p := range shuffled(b.rnd, choices) {
		options = append(options, domain.Option{Text: p.Name, Value: p.Codename})
	}
	return options, ""
}
