// Package logging configures the process-wide apex/log logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs a text or json handler writing to w at the given level.
func Setup(w io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	var h log.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = text.New(w)
	case "json":
		h = json.New(w)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	log.SetHandler(h)
	log.SetLevel(lvl)
	return nil
}
