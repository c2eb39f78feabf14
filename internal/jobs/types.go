package jobs

const TaskLogRequest = "stats:log_request"

// QueueStats is the asynq queue request stats are enqueued on
const QueueStats = "stats"

type LogRequestPayload struct {
	EventID   string  `json:"event_id"`
	Method    string  `json:"method"`
	Path      string  `json:"path"`
	Status    int     `json:"status"`
	LatencyMs float64 `json:"latency_ms"`
	Client    string  `json:"client,omitempty"`
	AtUnix    int64   `json:"at_unix"`
}
