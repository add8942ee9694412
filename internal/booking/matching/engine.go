// Package matching derives the set of translators eligible for a
// booking: sub-type, certification level, language, gender and the
// customer's blacklist. The predicate is pushed down to the data layer
// as a Criteria so eligibility is a single query over candidates, not
// a scan of every user.
package matching

import (
	"context"

	"github.com/interpretly/booking-be/internal/booking/domain"
)

// Criteria is the eligibility predicate evaluated by the data layer.
type Criteria struct {
	TranslatorType domain.TranslatorType
	LanguageID     int64
	Gender         string // "" = any
	Levels         []domain.TranslatorLevel

	// ExcludeBlacklistedBy removes translators blacklisted by this
	// customer. ExcludeTranslatorID removes a single translator, used
	// when re-fanning out after a translator cancels.
	ExcludeBlacklistedBy string
	ExcludeTranslatorID  string
}

// TranslatorSource lists candidate translators matching a Criteria.
type TranslatorSource interface {
	ListEligibleTranslators(ctx context.Context, c Criteria) ([]domain.User, error)
}

// Engine produces the eligible translator set for a job.
type Engine struct {
	src TranslatorSource
}

func New(src TranslatorSource) *Engine {
	return &Engine{src: src}
}

// RequiredLevels maps a job's certification requirement to the
// qualification tiers that satisfy it. An unset requirement accepts
// every tier.
func RequiredLevels(c domain.Certified) []domain.TranslatorLevel {
	switch c {
	case domain.CertifiedYes, domain.CertifiedBoth:
		return []domain.TranslatorLevel{
			domain.LevelCertified,
			domain.LevelCertifiedLaw,
			domain.LevelCertifiedHealth,
		}
	case domain.CertifiedLaw, domain.CertifiedNLaw:
		return []domain.TranslatorLevel{domain.LevelCertifiedLaw}
	case domain.CertifiedHealth, domain.CertifiedNHealth:
		return []domain.TranslatorLevel{domain.LevelCertifiedHealth}
	case domain.CertifiedNormal:
		return []domain.TranslatorLevel{domain.LevelLayman, domain.LevelReadCourses}
	default:
		return domain.AllTranslatorLevels()
	}
}

// CriteriaFor builds the eligibility predicate for a job.
func CriteriaFor(job *domain.Job) Criteria {
	return Criteria{
		TranslatorType:       domain.TranslatorTypeForJob(job.JobType),
		LanguageID:           job.FromLanguageID,
		Gender:               job.Gender,
		Levels:               RequiredLevels(job.Certified),
		ExcludeBlacklistedBy: job.CustomerID,
	}
}

// FindEligibleTranslators returns the deduplicated set of translators
// eligible for the job. An empty result is a valid state, not an
// error: the job simply stays pending. Ordering is unspecified.
func (e *Engine) FindEligibleTranslators(ctx context.Context, job *domain.Job) ([]domain.User, error) {
	return e.find(ctx, CriteriaFor(job))
}

// FindEligibleTranslatorsExcluding is FindEligibleTranslators with one
// translator removed, used when the excluded translator just cancelled
// the job.
func (e *Engine) FindEligibleTranslatorsExcluding(ctx context.Context, job *domain.Job, translatorID string) ([]domain.User, error) {
	c := CriteriaFor(job)
	c.ExcludeTranslatorID = translatorID
	return e.find(ctx, c)
}

func (e *Engine) find(ctx context.Context, c Criteria) ([]domain.User, error) {
	users, err := e.src.ListEligibleTranslators(ctx, c)
	if err != nil {
		return nil, err
	}

	// dedup by id, keeping first occurrence
	seen := make(map[string]struct{}, len(users))
	out := users[:0]
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		if c.ExcludeTranslatorID != "" && u.ID == c.ExcludeTranslatorID {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
