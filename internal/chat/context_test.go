package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/dhlee-dev/portfolio-api/internal/portfolio"
)

func TestBuildContext_AllReadsFailing(t *testing.T) {
	p := NewContextProvider(&stubReader{fail: true}, nil, 0)

	c := p.BuildContext(context.Background())

	for field, got := range map[string]string{
		"profile":    c.Profile,
		"skills":     c.Skills,
		"experience": c.Experience,
		"education":  c.Education,
	} {
		if got != NoDataPlaceholder {
			t.Errorf("%s: want placeholder, got %q", field, got)
		}
	}
}

func TestBuildContext_SummarizesPortfolio(t *testing.T) {
	p := NewContextProvider(&stubReader{}, nil, 0)

	c := p.BuildContext(context.Background())

	if !strings.Contains(c.Profile, "Donghyuk Lee") || !strings.Contains(c.Profile, "dh@example.com") {
		t.Errorf("profile summary incomplete: %q", c.Profile)
	}
	if c.Skills != "Go(4.5/5)" {
		t.Errorf("skills summary: got %q", c.Skills)
	}
	if c.Experience != "Acme Engineer" {
		t.Errorf("experience summary: got %q", c.Experience)
	}
	if c.Education != "State University CS" {
		t.Errorf("education summary: got %q", c.Education)
	}
}

type emptyReader struct{ stubReader }

func (r *emptyReader) ListSkills(ctx context.Context) ([]portfolio.Skill, error) { return nil, nil }

func TestBuildContext_EmptyCollectionIsPlaceholder(t *testing.T) {
	p := NewContextProvider(&emptyReader{}, nil, 0)

	c := p.BuildContext(context.Background())

	if c.Skills != NoDataPlaceholder {
		t.Errorf("empty skills: want placeholder, got %q", c.Skills)
	}
	if c.Profile == NoDataPlaceholder {
		t.Errorf("profile should still come from the reader")
	}
}
