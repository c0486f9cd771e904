package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"persona-review/internal/llm"
)

func TestDefaultPersona(t *testing.T) {
	p := Default()

	require.Equal(t, "Fee", p.Name)
	require.Equal(t, 14000, p.MaxInputChars)
	require.Equal(t, llm.Params{Temperature: llm.Temperature(0.7), MaxTokens: 2000}, p.AnalysisParams())
	require.Equal(t, llm.Params{Temperature: llm.Temperature(0.7), MaxTokens: 1000}, p.ChatParams())
	require.Equal(t, 5, p.Chat.HistoryTurns)
	require.True(t, strings.HasPrefix(p.Prompts.System, "You are Fee"))
}

func TestTruncate(t *testing.T) {
	p := Default()

	exact := strings.Repeat("a", 14000)
	require.Equal(t, exact, p.Truncate(exact))

	long := strings.Repeat("a", 14001)
	got := p.Truncate(long)
	require.Equal(t, 14003, len(got))
	require.True(t, strings.HasSuffix(got, "a..."))

	multibyte := strings.Repeat("é", 14002)
	require.Equal(t, 14003, len([]rune(p.Truncate(multibyte))))
}

func TestAnalysisMessages(t *testing.T) {
	p := Default()

	msgs := p.AnalysisMessages("The install guide.")
	require.Len(t, msgs, 2)
	require.Equal(t, llm.RoleSystem, msgs[0].Role)
	require.Equal(t, llm.RoleUser, msgs[1].Role)
	require.Contains(t, msgs[1].Content, "Text to analyze:\nThe install guide.\n")
	require.NotContains(t, msgs[1].Content, "{text}")
}

func TestChatContext(t *testing.T) {
	p := Default()

	out := p.ChatContext("null", "What about offline users?")
	require.Contains(t, out, "Context from previous analysis:\nnull\n")
	require.True(t, strings.HasSuffix(out, "User message:\nWhat about offline users?"))
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	pack := `name: Tess
max_input_chars: 10
analysis: {temperature: 0.2, max_tokens: 50}
chat: {temperature: 0.3, max_tokens: 40, history_turns: 2}
prompts:
  system: sys
  analysis: "review {text}"
  chat: chat
  chat_context: "{analysis} / {message}"
`
	require.NoError(t, os.WriteFile(path, []byte(pack), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Tess", p.Name)
	require.Equal(t, "review 0123456789...", p.AnalysisMessages("0123456789abc")[1].Content)
	require.Equal(t, "{} / hi", p.ChatContext("{}", "hi"))
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "Fee", p.Name)
}

func TestParseRejectsIncompletePack(t *testing.T) {
	_, err := Parse([]byte("name: X\nmax_input_chars: 5\nprompts:\n  system: s\n  chat: c\n  analysis: no placeholder\n  chat_context: \"{analysis}\"\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "{text}")
	require.Contains(t, err.Error(), "{message}")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
