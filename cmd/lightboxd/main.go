// Command lightboxd runs the Lightbox daemon in the foreground. The lightbox
// CLI launches its own daemon subprocess on demand; this binary exists for
// service managers that supervise the daemon directly.
package main

import (
	"context"
	"flag"
	"log"

	"lightbox/internal/config"
	"lightbox/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("lightboxd: %v", err)
	}
}
