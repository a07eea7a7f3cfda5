package configs

// HTTP defines configuration for the HTTP server exposing the ingestion
// and administrative boundaries. Port is the TCP port to bind to.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`
}
