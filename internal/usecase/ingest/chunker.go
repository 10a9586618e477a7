package ingest

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// chunker splits parsed document text into overlapping windows.
type chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func newChunker(chunkSize, overlap int) chunker {
	return chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// split turns one file's text into ordered chunks.
func (c chunker) split(source, text string) ([]domain.Chunk, error) {
	pieces, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", source, err)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if piece == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:      uuid.NewString(),
			Text:    piece,
			Source:  source,
			Ordinal: i,
		})
	}
	return chunks, nil
}
