package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-review/internal/llm"
	"persona-review/internal/shared/config"
	"persona-review/internal/shared/storage/object/memory"
)

const analysisCompletion = "SCORE: 0.35\nJUSTIFICATION: Assumes fast internet\n\nMAJOR CONCERNS:\n- Large video tutorials\n"

func fakeCompletion() llm.Client {
	return llm.ClientFunc(func(_ context.Context, messages []llm.Message, params llm.Params) (string, error) {
		if params.MaxTokens == 2000 {
			return analysisCompletion, nil
		}
		return "Fee replies to: " + messages[len(messages)-1].Content, nil
	})
}

func testConfig(driver string, sqlitePath string) config.Config {
	return config.Config{
		Env:                  "dev",
		DBDriver:             driver,
		SQLitePath:           sqlitePath,
		ObjectStoreType:      config.StoreMemory,
		CompletionRatePerMin: 0,
		MaxUploadBytes:       1 << 20,
	}
}

func buildTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := BuildWith(context.Background(), cfg, Deps{
		Completion: fakeCompletion(),
		Store:      memory.New(),
		Extract: func(_ context.Context, data []byte) (string, error) {
			return string(data), nil
		},
	})
	require.NoError(t, err)
	return app
}

func do(t *testing.T, app *App, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func upload(t *testing.T, app *App, title, content string) string {
	t.Helper()
	return uploadBytes(t, app, title, []byte(content))
}

func uploadBytes(t *testing.T, app *App, title string, content []byte) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("title", title))
	part, err := w.CreateFormFile("file", "guide.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp := do(t, app, http.MethodPost, "/api/v1/documents", buf.Bytes(), w.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var doc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	return doc.ID
}

func runEndToEnd(t *testing.T, app *App) {
	docID := upload(t, app, "Getting started", "Download the 2GB installer and watch the videos.")

	resp := do(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/analyze", nil, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var analyzed struct {
		AnalysisID       string          `json:"analysisId"`
		StructuredResult json.RawMessage `json:"structuredResult"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &analyzed))
	assert.NotEmpty(t, analyzed.AnalysisID)
	assert.Contains(t, string(analyzed.StructuredResult), `"inclusivity_score":0.35`)

	resp = do(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/analyze", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Analysis already exists")

	resp = do(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/chat", []byte(`{"message":"Is this usable offline?"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var chat struct {
		Conversation []struct {
			ID             string  `json:"id"`
			Message        string  `json:"message"`
			IsPersonaReply bool    `json:"isPersonaReply"`
			ParentTurnID   *string `json:"parentTurnId"`
		} `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chat))
	require.Len(t, chat.Conversation, 2)
	assert.Equal(t, "Fee replies to: Is this usable offline?", chat.Conversation[1].Message)
	require.NotNil(t, chat.Conversation[1].ParentTurnID)
	assert.Equal(t, chat.Conversation[0].ID, *chat.Conversation[1].ParentTurnID)

	resp = do(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/conversations", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var turns []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, false, turns[0]["isPersonaReply"])
	assert.Equal(t, true, turns[1]["isPersonaReply"])

	resp = do(t, app, http.MethodGet, "/api/v1/documents/"+docID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var detail map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Len(t, detail["analyses"], 1)
	assert.Len(t, detail["conversations"], 2)

	resp = do(t, app, http.MethodDelete, "/api/v1/documents/"+docID, nil, "")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, app, http.MethodGet, "/api/v1/analyses?documentId="+docID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items":[]`)

	resp = do(t, app, http.MethodGet, "/api/v1/conversations?documentId="+docID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items":[]`)
}

func TestEndToEndMemory(t *testing.T) {
	runEndToEnd(t, buildTestApp(t, testConfig(config.DriverMemory, "")))
}

func TestEndToEndSQLite(t *testing.T) {
	app := buildTestApp(t, testConfig(config.DriverSQLite, filepath.Join(t.TempDir(), "app.db")))
	require.NotNil(t, app.Gorm)

	runEndToEnd(t, app)

	resp := do(t, app, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"ok"`)
}

func TestEndToEndExtractsUploadedPDF(t *testing.T) {
	pdf, err := os.ReadFile(filepath.Join("..", "extract", "testdata", "two_pages.pdf"))
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		analysed string
	)
	completion := llm.ClientFunc(func(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
		if params.MaxTokens == 2000 {
			mu.Lock()
			analysed = messages[len(messages)-1].Content
			mu.Unlock()
		}
		return fakeCompletion().Complete(ctx, messages, params)
	})
	app, err := BuildWith(context.Background(), testConfig(config.DriverMemory, ""), Deps{
		Completion: completion,
		Store:      memory.New(),
	})
	require.NoError(t, err)

	docID := uploadBytes(t, app, "Install guide", pdf)

	resp := do(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/analyze", nil, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	mu.Lock()
	assert.Contains(t, analysed, "Install the app on page one\n\nSecond page text")
	mu.Unlock()

	resp = do(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/chat", []byte(`{"message":"What's the risk here?"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "What's the risk here?")
}

func TestGeneralChat(t *testing.T) {
	app := buildTestApp(t, testConfig(config.DriverMemory, ""))

	resp := do(t, app, http.MethodPost, "/api/v1/chat", []byte(`{"message":"hello"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"contextType":"general"`)
}

func TestBuildRequiresCompletionCredentials(t *testing.T) {
	cfg := testConfig(config.DriverMemory, "")
	cfg.LLMModel = "gpt-4o-mini"

	_, err := Build(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "OPENAI_API_KEY"))
}

func TestBuildRejectsS3WithoutBucket(t *testing.T) {
	cfg := testConfig(config.DriverMemory, "")
	cfg.ObjectStoreType = config.StoreS3

	_, err := BuildWith(context.Background(), cfg, Deps{Completion: fakeCompletion()})
	require.Error(t, err)
}

func TestPostgresWithoutURLFallsBackInDev(t *testing.T) {
	cfg := testConfig(config.DriverPostgres, "")

	app, err := BuildWith(context.Background(), cfg, Deps{Completion: fakeCompletion()})
	require.NoError(t, err)
	assert.Nil(t, app.DB)

	cfg.Env = "production"
	_, err = BuildWith(context.Background(), cfg, Deps{Completion: fakeCompletion()})
	require.Error(t, err)
}
