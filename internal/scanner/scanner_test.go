package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (namedScanner) Scan(context.Context, Request) ([]domain.Entry, error) { return nil, nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedScanner("rss"))
	reg.Register(namedScanner("reddit"))

	got, err := reg.Resolve("rss")
	require.NoError(t, err)
	assert.Equal(t, "rss", got.Name())
	assert.Equal(t, []string{"reddit", "rss"}, reg.Names())

	_, err = reg.Resolve("gopher")
	assert.ErrorIs(t, err, ErrUnknownScanner)
}

func TestRequestOption(t *testing.T) {
	t.Parallel()

	req := Request{Source: domain.Source{Options: map[string]string{"listing": "new", "empty": ""}}}
	assert.Equal(t, "new", req.Option("listing", "hot"))
	assert.Equal(t, "hot", req.Option("empty", "hot"))
	assert.Equal(t, "day", req.Option("missing", "day"))
}

func TestFetchErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	netErr := fmt.Errorf("scan: %w", NetworkError("https://example.com/feed", cause))
	assert.Equal(t, KindNetwork, KindOf(netErr))
	assert.ErrorIs(t, netErr, cause)

	statusErr := StatusError("r/golang", 503)
	assert.Equal(t, KindStatus, KindOf(statusErr))
	assert.Contains(t, statusErr.Error(), "503")

	assert.Equal(t, KindMalformed, KindOf(MalformedError("feed", errors.New("bad xml"))))
	assert.Equal(t, FetchErrorKind(""), KindOf(errors.New("plain")))
}
