package domain

import (
	"context"
)

// ContentGenerator is the capability set every provider translator offers.
type ContentGenerator interface {
	// GenerateContent performs a single round trip.
	GenerateContent(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// GenerateContentStream returns a channel of partial responses.
	// The channel is closed by the generator when the stream ends; callers
	// must drain it to release the underlying network reader.
	GenerateContentStream(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)

	// CountTokens returns an approximate token count. It never performs I/O.
	CountTokens(ctx context.Context, req *CountTokensRequest) (*CountTokensResponse, error)

	// EmbedContent returns embeddings or ErrUnsupported.
	EmbedContent(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)
}
