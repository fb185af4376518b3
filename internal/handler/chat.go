package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"prdtool/internal/domain"
	llmSvc "prdtool/internal/domain/services/llm"
	"prdtool/internal/handler/sse"
	"prdtool/internal/httputil"
)

// streamErrorMessage is the only error text a streaming client sees.
const streamErrorMessage = "An error occurred"

type textEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	Done      bool `json:"done"`
	HasUpdate bool `json:"has_update"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// ChatHandler handles the conversation attached to a PRD
type ChatHandler struct {
	chatService llmSvc.ChatService
	sseConfig   *sse.Config
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler. A nil sseConfig uses the defaults.
func NewChatHandler(chatService llmSvc.ChatService, sseConfig *sse.Config, logger *slog.Logger) *ChatHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &ChatHandler{
		chatService: chatService,
		sseConfig:   sseConfig,
		logger:      logger,
	}
}

// ListMessages returns the conversation, oldest first
// GET /api/prds/{prdId}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), prdID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

// SendMessage submits a user message. Clients that accept text/event-stream
// get the reply as SSE, everyone else gets the persisted turn as JSON.
// POST /api/prds/{prdId}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}

	var req llmSvc.SubmitTurnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondProblem(w, http.StatusBadRequest, "Invalid request body", CodeValidation)
		return
	}
	req.DocumentID = prdID
	req.UserID = httputil.GetUserID(r)

	if httputil.WantsEventStream(r) {
		h.stream(w, r, &req)
		return
	}

	result, err := h.chatService.SubmitTurn(r.Context(), &req, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// stream runs a turn over SSE. Errors raised before anything was sent, other
// than completion failures, still get a regular problem response.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, req *llmSvc.SubmitTurnRequest) {
	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
	stopped := keepAlive.Start(writer, h.logger)

	result, err := h.chatService.SubmitTurn(r.Context(), req, &sseSink{writer: writer})

	keepAlive.Stop()
	<-stopped

	if err != nil {
		if !writer.Started() && !errors.Is(err, domain.ErrCompletion) {
			handleError(w, err)
			return
		}
		h.logger.Error("streaming turn failed",
			"prd_id", req.DocumentID,
			"request_id", httputil.GetRequestID(r),
			"error", err,
		)
		if sendErr := writer.Send(errorEvent{Error: streamErrorMessage}); sendErr != nil {
			h.logger.Debug("client gone before error event", "error", sendErr)
		}
		return
	}

	if err := writer.Send(doneEvent{Done: true, HasUpdate: result.HasUpdate}); err != nil {
		h.logger.Debug("client gone before done event", "error", err)
	}
}

// ApplyUpdate appends a message's update suggestion to the PRD
// POST /api/prds/{prdId}/messages/{messageId}/apply
func (h *ChatHandler) ApplyUpdate(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}
	messageID, ok := UUIDParam(w, r, "messageId", "Message")
	if !ok {
		return
	}

	result, err := h.chatService.ApplyDirective(r.Context(), prdID, httputil.GetUserID(r), messageID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// sseSink forwards fragments as `{"text": ...}` events
type sseSink struct {
	writer *sse.Writer
}

func (s *sseSink) Fragment(text string) error {
	return s.writer.Send(textEvent{Text: text})
}
