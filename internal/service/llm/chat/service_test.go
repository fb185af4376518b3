package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models/docsystem"
	llmModels "prdtool/internal/domain/models/llm"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	llmRepo "prdtool/internal/domain/repositories/llm"
	llmSvc "prdtool/internal/domain/services/llm"
	"prdtool/internal/lock"
	"prdtool/internal/metrics"
	"prdtool/internal/repository/content"
	"prdtool/internal/repository/memory"
	"prdtool/internal/service/auth"
	"prdtool/internal/utils"
)

// fakeClient is a scripted CompletionClient.
type fakeClient struct {
	mu sync.Mutex

	reply     string   // returned by Chat
	fragments []string // yielded by StreamChat
	chatErr   error
	openErr   error
	// streamErr, when set, is yielded after failAfter fragments
	streamErr error
	failAfter int

	gotSystem   string
	gotMessages []llmSvc.ChatMessage
	calls       int
}

func (f *fakeClient) record(systemPrompt string, messages []llmSvc.ChatMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotSystem = systemPrompt
	f.gotMessages = append([]llmSvc.ChatMessage(nil), messages...)
}

func (f *fakeClient) Chat(_ context.Context, systemPrompt string, messages []llmSvc.ChatMessage) (string, error) {
	f.record(systemPrompt, messages)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.reply, nil
}

func (f *fakeClient) StreamChat(ctx context.Context, systemPrompt string, messages []llmSvc.ChatMessage) (<-chan llmSvc.StreamChunk, error) {
	f.record(systemPrompt, messages)
	if f.openErr != nil {
		return nil, f.openErr
	}

	ch := make(chan llmSvc.StreamChunk)
	go func() {
		defer close(ch)
		for i, frag := range f.fragments {
			if f.streamErr != nil && i == f.failAfter {
				select {
				case ch <- llmSvc.StreamChunk{Err: f.streamErr}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case ch <- llmSvc.StreamChunk{Text: frag}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (f *fakeClient) EstimateTokens(text string) int { return utils.EstimateTokens(text) }
func (f *fakeClient) Name() string                   { return "fake" }

// recordingSink collects fragments and can fail after a number of writes.
type recordingSink struct {
	fragments []string
	failAt    int // 0 = never
}

func (s *recordingSink) Fragment(text string) error {
	s.fragments = append(s.fragments, text)
	if s.failAt > 0 && len(s.fragments) >= s.failAt {
		return errors.New("client went away")
	}
	return nil
}

type fixture struct {
	svc     *Service
	client  *fakeClient
	turns   llmRepo.TurnRepository
	docs    docsysRepo.DocumentRepository
	store   *content.FileStore
	doc     *docsystem.Document
	ownerID string
}

func newFixture(t *testing.T, initial string) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := memory.New()
	require.NoError(t, err)
	docs := memory.NewDocumentRepository(db)
	turns := memory.NewTurnRepository(db)

	store, err := content.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)

	ownerID := uuid.NewString()
	doc := &docsystem.Document{UserID: ownerID, Title: "Checkout", Status: docsystem.StatusDraft}
	require.NoError(t, docs.Create(context.Background(), doc))
	_, err = store.Create(context.Background(), ownerID, doc.ID, initial)
	require.NoError(t, err)

	client := &fakeClient{}
	svc := NewService(turns, docs, store, auth.NewOwnerBasedAuthorizer(docs), client, lock.Noop{}, metrics.NewMetrics(), logger)

	return &fixture{svc: svc, client: client, turns: turns, docs: docs, store: store, doc: doc, ownerID: ownerID}
}

func (f *fixture) submit(t *testing.T, text string, sink llmSvc.StreamSink) (*llmSvc.SubmitTurnResult, error) {
	t.Helper()
	return f.svc.SubmitTurn(context.Background(), &llmSvc.SubmitTurnRequest{
		DocumentID: f.doc.ID,
		UserID:     f.ownerID,
		Content:    text,
	}, sink)
}

func (f *fixture) listTurns(t *testing.T) []llmModels.Turn {
	t.Helper()
	turns, err := f.turns.ListTurns(context.Background(), f.doc.ID)
	require.NoError(t, err)
	return turns
}

func TestSubmitTurn_NonStreaming(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "Sounds good."

	result, err := f.submit(t, "hello", nil)
	require.NoError(t, err)
	assert.False(t, result.HasUpdate)
	assert.Equal(t, llmModels.RoleAssistant, result.Message.Role)
	assert.Equal(t, "Sounds good.", result.Message.Content)
	assert.Nil(t, result.Message.PrdUpdateSuggestion)
	assert.Equal(t, utils.EstimateTokens("Sounds good."), result.Message.TokenCount)

	turns := f.listTurns(t)
	require.Len(t, turns, 2)
	assert.Equal(t, llmModels.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, 2, turns[0].TokenCount)
	assert.Nil(t, turns[0].PrdUpdateSuggestion)

	assert.Contains(t, f.client.gotSystem, "# A")
	require.Len(t, f.client.gotMessages, 1)
	assert.Equal(t, llmSvc.ChatMessage{Role: "user", Content: "hello"}, f.client.gotMessages[0])
}

func TestSubmitTurn_UserTurnSurvivesProviderFailure(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.chatErr = &domain.CompletionError{Message: "anthropic API call failed", Status: 500}

	result, err := f.submit(t, "hello", nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCompletion)

	turns := f.listTurns(t)
	require.Len(t, turns, 1)
	assert.Equal(t, llmModels.RoleUser, turns[0].Role)
}

func TestSubmitTurn_StreamingMatchesNonStreaming(t *testing.T) {
	reply := "Here you go.\n<prd_update>\n## Goals\n- ship it\n</prd_update>"

	nonStreaming := newFixture(t, "# A")
	nonStreaming.client.reply = reply
	want, err := nonStreaming.submit(t, "add goals", nil)
	require.NoError(t, err)

	streaming := newFixture(t, "# A")
	streaming.client.fragments = []string{"Here you go.\n<prd_", "update>\n## Goals\n", "- ship it\n</prd_update>"}
	sink := &recordingSink{}
	got, err := streaming.submit(t, "add goals", sink)
	require.NoError(t, err)

	assert.Equal(t, streaming.client.fragments, sink.fragments)
	assert.Equal(t, reply, strings.Join(sink.fragments, ""))
	assert.Equal(t, want.Message.Content, got.Message.Content)
	assert.Equal(t, want.HasUpdate, got.HasUpdate)
	require.NotNil(t, got.Message.PrdUpdateSuggestion)
	assert.Equal(t, *want.Message.PrdUpdateSuggestion, *got.Message.PrdUpdateSuggestion)
	assert.Equal(t, "## Goals\n- ship it", *got.Message.PrdUpdateSuggestion)
	assert.Equal(t, want.Message.TokenCount, got.Message.TokenCount)
}

func TestSubmitTurn_StreamFailureMidway(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.fragments = []string{"one ", "two ", "three"}
	f.client.streamErr = &domain.CompletionError{Message: "anthropic streaming error"}
	f.client.failAfter = 2

	sink := &recordingSink{}
	result, err := f.submit(t, "hello", sink)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCompletion)
	assert.Equal(t, []string{"one ", "two "}, sink.fragments)

	// Only the user turn is persisted
	turns := f.listTurns(t)
	require.Len(t, turns, 1)
	assert.Equal(t, llmModels.RoleUser, turns[0].Role)
}

func TestSubmitTurn_StreamOpenFailure(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.openErr = &domain.CompletionError{Message: "anthropic stream failed to open", Status: 401}

	sink := &recordingSink{}
	_, err := f.submit(t, "hello", sink)
	assert.ErrorIs(t, err, domain.ErrCompletion)
	assert.Empty(t, sink.fragments)
	assert.Len(t, f.listTurns(t), 1)
}

func TestSubmitTurn_ClientDisconnect(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.fragments = []string{"a", "b", "c", "d"}

	sink := &recordingSink{failAt: 2}
	_, err := f.submit(t, "hello", sink)
	require.Error(t, err)
	assert.Len(t, sink.fragments, 2)
	assert.Len(t, f.listTurns(t), 1)
}

func TestSubmitTurn_CancelledContext(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.fragments = []string{"a", "b"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.SubmitTurn(ctx, &llmSvc.SubmitTurnRequest{
		DocumentID: f.doc.ID,
		UserID:     f.ownerID,
		Content:    "hello",
	}, &recordingSink{})
	require.Error(t, err)

	for _, turn := range f.listTurns(t) {
		assert.Equal(t, llmModels.RoleUser, turn.Role)
	}
}

func TestSubmitTurn_Validation(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "ok"

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty", content: "", wantErr: true},
		{name: "too long", content: strings.Repeat("x", 10001), wantErr: true},
		{name: "at limit", content: strings.Repeat("x", 10000), wantErr: false},
		{name: "multibyte at limit", content: strings.Repeat("é", 10000), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submit(t, tt.content, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitTurn_UnknownDocument(t *testing.T) {
	f := newFixture(t, "# A")

	_, err := f.svc.SubmitTurn(context.Background(), &llmSvc.SubmitTurnRequest{
		DocumentID: uuid.NewString(),
		UserID:     f.ownerID,
		Content:    "hello",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Another user's document is not visible either
	_, err = f.svc.SubmitTurn(context.Background(), &llmSvc.SubmitTurnRequest{
		DocumentID: f.doc.ID,
		UserID:     uuid.NewString(),
		Content:    "hello",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.client.calls)
}

func TestSubmitTurn_HistoryWindow(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "ok"

	// 12 exchanges = 24 turns already stored
	for i := 0; i < 12; i++ {
		_, err := f.submit(t, "message", nil)
		require.NoError(t, err)
	}

	_, err := f.submit(t, "latest question", nil)
	require.NoError(t, err)

	require.Len(t, f.client.gotMessages, 20)
	last := f.client.gotMessages[len(f.client.gotMessages)-1]
	assert.Equal(t, llmSvc.ChatMessage{Role: "user", Content: "latest question"}, last)
	// Oldest-first: the window starts on an assistant turn (turn 6 of 25)
	assert.Equal(t, "assistant", f.client.gotMessages[0].Role)
}

func TestApplyDirective_AppendsSuggestion(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "Added goals.\n<prd_update>\n## Goals\n- ship it\n</prd_update>"

	result, err := f.submit(t, "add goals", nil)
	require.NoError(t, err)
	require.True(t, result.HasUpdate)

	applied, err := f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, result.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, "Update applied successfully", applied.Message)

	want := "# A\n\n## Goals\n- ship it"
	got, err := f.store.Read(context.Background(), f.ownerID, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, utils.EstimateTokens(want), applied.EstimatedTokens)

	doc, err := f.docs.GetByID(context.Background(), f.doc.ID, f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, applied.EstimatedTokens, doc.EstimatedTokens)

	turn, err := f.turns.GetTurn(context.Background(), f.doc.ID, result.Message.ID)
	require.NoError(t, err)
	assert.True(t, turn.UpdateApplied)

	// Applying again appends a second copy
	_, err = f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, result.Message.ID)
	require.NoError(t, err)
	got, err = f.store.Read(context.Background(), f.ownerID, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, want+"\n\n## Goals\n- ship it", got)
}

func TestApplyDirective_NoDirective(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "Just chatting."

	result, err := f.submit(t, "hi", nil)
	require.NoError(t, err)

	_, err = f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, result.Message.ID)
	assert.ErrorIs(t, err, domain.ErrNoDirective)

	got, err := f.store.Read(context.Background(), f.ownerID, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "# A", got)

	// User turns never carry a directive either
	turns := f.listTurns(t)
	_, err = f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, turns[0].ID)
	assert.ErrorIs(t, err, domain.ErrNoDirective)
}

func TestApplyDirective_BlankDirective(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "Nothing to add.\n<prd_update>\n   \n</prd_update>"

	result, err := f.submit(t, "anything else?", nil)
	require.NoError(t, err)
	assert.False(t, result.HasUpdate)
	assert.Nil(t, result.Message.PrdUpdateSuggestion)

	_, err = f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, result.Message.ID)
	assert.ErrorIs(t, err, domain.ErrNoDirective)

	got, err := f.store.Read(context.Background(), f.ownerID, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "# A", got)
}

func TestApplyDirective_UnknownTurn(t *testing.T) {
	f := newFixture(t, "# A")

	_, err := f.svc.ApplyDirective(context.Background(), f.doc.ID, f.ownerID, uuid.NewString())
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Message not found", notFound.Message)
}

func TestListMessages(t *testing.T) {
	f := newFixture(t, "# A")
	f.client.reply = "ok"
	_, err := f.submit(t, "first", nil)
	require.NoError(t, err)

	turns, err := f.svc.ListMessages(context.Background(), f.doc.ID, f.ownerID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "ok", turns[1].Content)
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("# Checkout\n\nGoals TBD")
	assert.Contains(t, prompt, "# Checkout\n\nGoals TBD")
	assert.Contains(t, prompt, "<prd_update>")
	assert.True(t, strings.Index(prompt, "Goals TBD") < strings.Index(prompt, "## Proposing changes"))
}
