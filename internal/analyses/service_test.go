package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-review/internal/documents"
	"persona-review/internal/extract"
	"persona-review/internal/llm"
	"persona-review/internal/shared/storage/object/memory"
	"persona-review/internal/structurer"
)

const sampleCompletion = "SCORE: 0.4\nJUSTIFICATION: Too much jargon\n\nMAJOR CONCERNS:\n- Assumes broadband\n"

type fixture struct {
	svc   *Service
	docs  *documents.Service
	repo  *MemoryRepo
	calls *atomic.Int32
}

func newFixture(t *testing.T, complete llm.ClientFunc) fixture {
	t.Helper()
	docs := &documents.Service{Store: memory.New(), Repo: documents.NewMemoryRepo()}
	repo := NewMemoryRepo()
	calls := &atomic.Int32{}
	client := llm.ClientFunc(func(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
		calls.Add(1)
		return complete(ctx, messages, params)
	})
	svc := &Service{
		Repo: repo,
		Docs: docs,
		LLM:  client,
		Extract: func(_ context.Context, data []byte) (string, error) {
			return string(data), nil
		},
	}
	return fixture{svc: svc, docs: docs, repo: repo, calls: calls}
}

func seedDocument(t *testing.T, docs *documents.Service, content string) documents.Document {
	t.Helper()
	in := documents.CreateInput{Title: "Guide"}
	if content != "" {
		in.FileName = "guide.pdf"
		in.Body = strings.NewReader(content)
	}
	doc, err := docs.Create(context.Background(), in)
	require.NoError(t, err)
	return doc
}

func fixedCompletion(text string) llm.ClientFunc {
	return func(context.Context, []llm.Message, llm.Params) (string, error) { return text, nil }
}

func TestAnalyzeStoresStructuredResult(t *testing.T) {
	var gotMessages []llm.Message
	var gotParams llm.Params
	f := newFixture(t, func(_ context.Context, messages []llm.Message, params llm.Params) (string, error) {
		gotMessages = messages
		gotParams = params
		return sampleCompletion, nil
	})
	doc := seedDocument(t, f.docs, "document body text")

	analysis, created, err := f.svc.Analyze(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, doc.ID, analysis.DocumentID)

	require.Len(t, gotMessages, 2)
	assert.Equal(t, llm.RoleSystem, gotMessages[0].Role)
	assert.Equal(t, llm.RoleUser, gotMessages[1].Role)
	assert.Contains(t, gotMessages[1].Content, "document body text")
	require.NotNil(t, gotParams.Temperature)
	assert.InDelta(t, 0.7, *gotParams.Temperature, 1e-9)
	assert.Equal(t, 2000, gotParams.MaxTokens)

	var result structurer.Result
	require.NoError(t, json.Unmarshal(analysis.StructuredResult, &result))
	assert.InDelta(t, 0.4, result.OverallAssessment.InclusivityScore, 1e-9)
	assert.Equal(t, []string{"Assumes broadband"}, result.OverallAssessment.MajorConcerns)
	assert.Equal(t, sampleCompletion, result.RawAnalysis)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	f := newFixture(t, fixedCompletion(sampleCompletion))
	doc := seedDocument(t, f.docs, "body")

	first, created, err := f.svc.Analyze(context.Background(), doc.ID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.Analyze(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestAnalyzeConcurrentFirstRequestsPersistOnce(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	f := newFixture(t, func(context.Context, []llm.Message, llm.Params) (string, error) {
		arrived.Done()
		arrived.Wait()
		return sampleCompletion, nil
	})
	doc := seedDocument(t, f.docs, "body")

	type outcome struct {
		analysis Analysis
		created  bool
		err      error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			a, created, err := f.svc.Analyze(context.Background(), doc.ID)
			results <- outcome{a, created, err}
		}()
	}

	a, b := <-results, <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.analysis.ID, b.analysis.ID)
	assert.NotEqual(t, a.created, b.created)

	all, err := f.repo.List(context.Background(), doc.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalyzeFailuresPersistNothing(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		complete llm.ClientFunc
		extract  ExtractFunc
		wantErr  error
	}{
		{
			name:     "no file",
			complete: fixedCompletion(sampleCompletion),
			wantErr:  ErrNoFile,
		},
		{
			name:     "extraction",
			content:  "not a pdf",
			complete: fixedCompletion(sampleCompletion),
			extract: func(context.Context, []byte) (string, error) {
				return "", extract.ErrExtraction
			},
			wantErr: extract.ErrExtraction,
		},
		{
			name:    "completion",
			content: "body",
			complete: func(context.Context, []llm.Message, llm.Params) (string, error) {
				return "", fmt.Errorf("%w: upstream 500", llm.ErrCompletion)
			},
			wantErr: llm.ErrCompletion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.complete)
			if tt.extract != nil {
				f.svc.Extract = tt.extract
			}
			doc := seedDocument(t, f.docs, tt.content)

			_, _, err := f.svc.Analyze(context.Background(), doc.ID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			_, err = f.repo.GetByDocument(context.Background(), doc.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAnalyzeUnknownDocument(t *testing.T) {
	f := newFixture(t, fixedCompletion(sampleCompletion))

	_, _, err := f.svc.Analyze(context.Background(), "missing")
	assert.ErrorIs(t, err, documents.ErrNotFound)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestAnalyzeTruncatesLongText(t *testing.T) {
	var prompt string
	f := newFixture(t, func(_ context.Context, messages []llm.Message, _ llm.Params) (string, error) {
		prompt = messages[1].Content
		return sampleCompletion, nil
	})
	doc := seedDocument(t, f.docs, strings.Repeat("x", 20000))

	_, _, err := f.svc.Analyze(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.Repeat("x", 14000)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 14001))
}

func TestCreateDirect(t *testing.T) {
	f := newFixture(t, fixedCompletion(sampleCompletion))
	doc := seedDocument(t, f.docs, "")

	_, err := f.svc.Create(context.Background(), doc.ID, json.RawMessage(`{"note":"manual"}`))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), doc.ID, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.Create(context.Background(), doc.ID, json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), "missing", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestDeleteByDocument(t *testing.T) {
	f := newFixture(t, fixedCompletion(sampleCompletion))
	doc := seedDocument(t, f.docs, "body")
	_, _, err := f.svc.Analyze(context.Background(), doc.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByDocument(context.Background(), doc.ID))
	items, err := f.svc.ForDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
