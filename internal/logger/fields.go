package logger

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Engagement
	FieldActorID    = "actor_id"
	FieldTargetKind = "target_kind"
	FieldTargetID   = "target_id"
	FieldEntity     = "entity"
	FieldEntityID   = "entity_id"
	FieldCounter    = "counter"
	FieldIsActive   = "is_active"

	// Queue
	FieldStream    = "stream"
	FieldGroup     = "group"
	FieldConsumer  = "consumer"
	FieldMessageID = "msg_id"
	FieldEventType = "event_type"
	FieldEventID   = "event_id"
	FieldWorkerID  = "worker_id"

	FieldService = "service"
)
