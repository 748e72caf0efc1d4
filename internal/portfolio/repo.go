package portfolio

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repo is the read side of the portfolio content store. Writes happen
// elsewhere (admin tooling); the API only ever queries.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// FirstProfile returns the profile, or (nil, nil) when none exists yet.
func (r *Repo) FirstProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Order("id ASC").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListSkills(ctx context.Context) ([]Skill, error) {
	var skills []Skill
	if err := r.db.WithContext(ctx).
		Order("display_order ASC, name ASC").
		Find(&skills).Error; err != nil {
		return nil, err
	}
	return skills, nil
}

func (r *Repo) ListExperiences(ctx context.Context) ([]Experience, error) {
	var exps []Experience
	if err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&exps).Error; err != nil {
		return nil, err
	}
	return exps, nil
}

func (r *Repo) ListEducations(ctx context.Context) ([]Education, error) {
	var edus []Education
	if err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&edus).Error; err != nil {
		return nil, err
	}
	return edus, nil
}
