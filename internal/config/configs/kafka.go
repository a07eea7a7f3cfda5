package configs

// Kafka configures the optional consumer-group adapter through which
// scraper workers deliver submissions. When Enabled is false the
// service only ingests over HTTP.
type Kafka struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"campaign-submissions"`
	GroupID string   `env:"GROUP_ID" envDefault:"promofeed-ingest"`
}
