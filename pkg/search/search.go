// Package search provides web search providers behind the
// research.Searcher interface.
package search

import (
	"fmt"

	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search/brave"
	"github.com/mikeboe/deep-research/pkg/search/serper"
)

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

func NewSearcher(provider Provider, apiKey string) (research.Searcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider %q", provider)
	}
}
