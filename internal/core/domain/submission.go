package domain

import "time"

// Submission is the raw campaign payload produced by a scraper worker.
// SourceName carries whatever spelling the worker scraped; the pipeline
// resolves it to a canonical source. The HTTP and Kafka adapters decode
// request bodies and messages directly into this struct.
type Submission struct {
	SourceName  string    `json:"source_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetURL   string    `json:"target_url"`
	Category    string    `json:"category"`
	Channel     string    `json:"channel"`
	ValidFrom   time.Time `json:"valid_from,omitempty"`
	ValidUntil  time.Time `json:"valid_until,omitempty"`
}
