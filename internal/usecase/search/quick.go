package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/response"
)

// Suggestion limits.
const (
	MaxSuggestions      = 10
	MinSuggestionPrefix = 2
)

var technologyTerms = []string{
	"3d printing",
	"5g network",
	"additive manufacturing",
	"artificial intelligence",
	"augmented reality",
	"autonomous vehicle",
	"battery management",
	"biometric authentication",
	"blockchain",
	"carbon capture",
	"cloud computing",
	"computer vision",
	"crispr gene editing",
	"cybersecurity",
	"deep learning",
	"drone delivery",
	"edge computing",
	"electric vehicle",
	"energy storage",
	"fuel cell",
	"gene therapy",
	"graphene",
	"hydrogen production",
	"image recognition",
	"internet of things",
	"lidar",
	"lithium ion battery",
	"machine learning",
	"medical imaging",
	"mrna vaccine",
	"nanotechnology",
	"natural language processing",
	"neural network",
	"optical communication",
	"quantum computing",
	"robotics",
	"semiconductor",
	"smart grid",
	"solar cell",
	"solid state battery",
	"speech recognition",
	"virtual reality",
	"wearable device",
	"wind turbine",
	"wireless charging",
}

// Quick runs a keyword-only search with the fixed quick limit.
func (s *Service) Quick(ctx context.Context, query string) (response.Response, error) {
	req, err := request.New(query, mode.Keyword, filter.Filters{}, s.policy.QuickLimit, nil)
	if err != nil {
		return response.Response{}, err
	}
	return s.Search(ctx, &req)
}

// Suggest returns up to MaxSuggestions technology terms containing q,
// case-insensitively, in alphabetical order.
func Suggest(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []string{}
	if utf8.RuneCountInString(q) < MinSuggestionPrefix {
		return out
	}
	for _, term := range technologyTerms {
		if strings.Contains(term, q) {
			out = append(out, term)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
