// Package chatctx renders retrieved places into the context block handed
// to the LLM alongside the user's travel question.
package chatctx

import (
	"context"
	"fmt"
	"strings"

	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// NoResults is the fixed sentinel injected when retrieval found nothing.
// The LLM prompt keys off this exact string; an empty context block would
// invite the model to invent places instead.
const NoResults = "추천할 장소를 찾지 못했습니다."

// Searcher is the retrieval port of the formatter.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]place.Place, error)
}

// Formatter builds LLM context blocks from ranked places.
type Formatter struct {
	searcher Searcher
}

// New creates a formatter backed by the given searcher.
func New(searcher Searcher) *Formatter {
	return &Formatter{searcher: searcher}
}

// BuildContext retrieves places for the query and formats them. Retrieval
// errors other than input validation surface as errors; an empty result is
// not an error, it renders the no-results sentinel.
func (f *Formatter) BuildContext(ctx context.Context, query string, limit int) (string, error) {
	places, err := f.searcher.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	return Format(places), nil
}

// Format renders places best-first into a deterministic plain-text block.
// Empty input yields NoResults, never the empty string.
func Format(places []place.Place) string {
	if len(places) == 0 {
		return NoResults
	}

	var b strings.Builder
	for i := range places {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		writePlace(&b, i+1, &places[i])
	}
	return b.String()
}

func writePlace(b *strings.Builder, n int, p *place.Place) {
	fmt.Fprintf(b, "%d. %s", n, p.Name())
	if c := p.Category(); c != "" {
		fmt.Fprintf(b, " (%s)", c)
	}
	b.WriteByte('\n')

	if addr := p.Address(); addr != "" {
		b.WriteString("주소: ")
		b.WriteString(addr)
		if d := p.AddressDetail(); d != "" {
			b.WriteByte(' ')
			b.WriteString(d)
		}
		b.WriteByte('\n')
	}

	if desc := strings.TrimSpace(p.Description()); desc != "" {
		b.WriteString("설명: ")
		b.WriteString(desc)
		b.WriteByte('\n')
	}
}
