package main

import (
	"context"
	"log"
	"os"

	"github.com/N1c0zz/NeuraMind/internal/stub"
	"github.com/N1c0zz/NeuraMind/internal/tracer"
)

// Local stand-in for the NeuraMind backend, for development and manual
// testing of the client against a live HTTP surface.
func main() {
	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8000"
	}
	apiKey := os.Getenv("NEURAMIND_API_KEY")
	if apiKey == "" {
		apiKey = "super-secret-for-local"
	}

	shutdownTracer := tracer.InitTracer("neuramind-stub", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	defer shutdownTracer(context.Background())

	srv := stub.NewServer(apiKey)
	log.Printf("stub backend listening on :%s", port)
	if err := srv.Listen(port); err != nil {
		log.Fatal(err)
	}
}
