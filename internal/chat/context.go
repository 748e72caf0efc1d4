package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dhlee-dev/portfolio-api/internal/portfolio"
	"github.com/dhlee-dev/portfolio-api/internal/store/redisstore"
)

// NoDataPlaceholder stands in for any portfolio field that is empty or
// unreadable, so the chat keeps working when the content store is down.
const NoDataPlaceholder = "no data available"

// Context is the bounded portfolio summary embedded in the system prompt.
type Context struct {
	Profile    string `json:"profile"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
}

// PortfolioReader is the subset of the portfolio repo the chat needs.
type PortfolioReader interface {
	FirstProfile(ctx context.Context) (*portfolio.Profile, error)
	ListSkills(ctx context.Context) ([]portfolio.Skill, error)
	ListExperiences(ctx context.Context) ([]portfolio.Experience, error)
	ListEducations(ctx context.Context) ([]portfolio.Education, error)
}

// ContextProvider assembles the chat context, optionally caching the result
// in redis for cacheTTL since portfolio content changes rarely.
type ContextProvider struct {
	reader   PortfolioReader
	cache    *redisstore.Store
	cacheTTL time.Duration
}

func NewContextProvider(reader PortfolioReader, cache *redisstore.Store, cacheTTL time.Duration) *ContextProvider {
	return &ContextProvider{reader: reader, cache: cache, cacheTTL: cacheTTL}
}

// BuildContext never fails: every read error degrades the affected field to
// NoDataPlaceholder. Cache trouble falls through to a direct build.
func (p *ContextProvider) BuildContext(ctx context.Context) Context {
	if cached, err := p.cache.GetChatContext(ctx); err == nil && cached != "" {
		var c Context
		if err := json.Unmarshal([]byte(cached), &c); err == nil {
			return c
		}
	}

	c := Context{
		Profile:    p.profileSummary(ctx),
		Skills:     p.skillsSummary(ctx),
		Experience: p.experienceSummary(ctx),
		Education:  p.educationSummary(ctx),
	}

	if p.cacheTTL > 0 {
		if b, err := json.Marshal(c); err == nil {
			if err := p.cache.SetChatContext(ctx, string(b), p.cacheTTL); err != nil {
				log.Printf("[context] cache set failed: %v", err)
			}
		}
	}
	return c
}

func (p *ContextProvider) profileSummary(ctx context.Context) string {
	prof, err := p.reader.FirstProfile(ctx)
	if err != nil || prof == nil {
		return NoDataPlaceholder
	}
	return fmt.Sprintf("Name: %s, Email: %s, Introduction: %s", prof.Name, prof.Email, prof.Introduce)
}

func (p *ContextProvider) skillsSummary(ctx context.Context) string {
	skills, err := p.reader.ListSkills(ctx)
	if err != nil || len(skills) == 0 {
		return NoDataPlaceholder
	}
	parts := make([]string, 0, len(skills))
	for _, s := range skills {
		parts = append(parts, fmt.Sprintf("%s(%.1f/5)", s.Name, s.Level))
	}
	return strings.Join(parts, ", ")
}

func (p *ContextProvider) experienceSummary(ctx context.Context) string {
	exps, err := p.reader.ListExperiences(ctx)
	if err != nil || len(exps) == 0 {
		return NoDataPlaceholder
	}
	parts := make([]string, 0, len(exps))
	for _, e := range exps {
		parts = append(parts, fmt.Sprintf("%s %s", e.Company, e.Position))
	}
	return strings.Join(parts, ", ")
}

func (p *ContextProvider) educationSummary(ctx context.Context) string {
	edus, err := p.reader.ListEducations(ctx)
	if err != nil || len(edus) == 0 {
		return NoDataPlaceholder
	}
	parts := make([]string, 0, len(edus))
	for _, e := range edus {
		parts = append(parts, fmt.Sprintf("%s %s", e.School, e.Major))
	}
	return strings.Join(parts, ", ")
}
