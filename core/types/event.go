package types

// Event is a structured record of a committed state change. Attributes are
// flat string pairs so downstream consumers (gateway streams, the audit
// indexer) can persist them without schema knowledge.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
