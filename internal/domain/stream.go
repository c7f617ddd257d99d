package domain

// StreamEventType enumera los eventos del stream de respuesta.
type StreamEventType string

const (
	StreamContentDelta      StreamEventType = "delta"
	StreamToolCallStarted   StreamEventType = "tool_call_started"
	StreamToolCallCompleted StreamEventType = "tool_call_completed"
	StreamItemDone          StreamEventType = "item_done"
	StreamDone              StreamEventType = "done"
	StreamError             StreamEventType = "error"
)

// StreamEvent es una unidad del stream protocolar. Los campos poblados
// dependen del tipo: Delta para deltas de contenido, ToolName/ToolSummary
// para el ciclo de vida de tools, Message para item_done y
// ErrorKind/ErrorMessage para errores en medio del stream.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Delta        string          `json:"delta,omitempty"`
	ToolName     string          `json:"tool_name,omitempty"`
	ToolSummary  string          `json:"tool_summary,omitempty"`
	Message      *Message        `json:"message,omitempty"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
