package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubPages(t *testing.T, pages []string, err error) {
	t.Helper()
	old := readPages
	readPages = func([]byte) ([]string, error) { return pages, err }
	t.Cleanup(func() { readPages = old })
}

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := Extract(context.Background(), []byte("definitely not a pdf"))
	require.True(t, errors.Is(err, ErrExtraction), "got %v", err)
}

func TestExtractRejectsEmptyPayload(t *testing.T) {
	_, err := Extract(context.Background(), nil)
	require.True(t, errors.Is(err, ErrExtraction))
}

func TestExtractJoinsPagesAndTrims(t *testing.T) {
	stubPages(t, []string{"  Page one", "Page two  \n"}, nil)

	text, err := Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "Page one\nPage two", text)
}

func TestExtractWhitespaceOnlyIsEmptyContent(t *testing.T) {
	stubPages(t, []string{" ", "\n\t"}, nil)

	_, err := Extract(context.Background(), []byte("%PDF"))
	require.True(t, errors.Is(err, ErrEmptyContent))
	require.False(t, errors.Is(err, ErrExtraction))
}

func TestExtractParserFailureWrapped(t *testing.T) {
	stubPages(t, nil, errors.New("xref broken"))

	_, err := Extract(context.Background(), []byte("%PDF"))
	require.True(t, errors.Is(err, ErrExtraction))
	require.True(t, strings.Contains(err.Error(), "xref broken"))
}

func TestExtractHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Extract(ctx, []byte("%PDF"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPDFPagesRecoversFromPanics(t *testing.T) {
	inputs := [][]byte{
		[]byte("%PDF-1.4\n%%EOF"),
		[]byte("%PDF-1.7\nxref\n0 1\ntrailer<</Root 1 0 R>>\nstartxref\n9\n%%EOF"),
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { _, _ = pdfPages(in) })
	}
}

func TestExtractReadsEveryPage(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "two_pages.pdf"))
	require.NoError(t, err)

	text, err := Extract(context.Background(), data)
	require.NoError(t, err)
	require.Equal(t, "Install the app on page one\n\nSecond page text", text)
}
