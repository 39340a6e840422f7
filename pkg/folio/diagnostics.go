package folio

import (
	"context"
	"fmt"
	"time"
)

const (
	diagnosticsTimeout   = 5 * time.Second
	diagnosticsMaxErrLen = 80
	diagnosticsMaxColls  = 10
)

// Diagnose reports store connectivity. It never fails: every error,
// including a panic inside the store, is rendered into a status string.
func (s *service) Diagnose(ctx context.Context) (d Diagnostics) {
	d = Diagnostics{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		DatabaseURL:      "❌ Not Set",
		DatabaseName:     "❌ Not Set",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}
	if s.settings.URLSet {
		d.DatabaseURL = "✅ Set"
	}
	if s.settings.NameSet {
		d.DatabaseName = "✅ Set"
	}

	defer func() {
		if r := recover(); r != nil {
			d.Database = "❌ Error: " + truncate(fmt.Sprint(r), diagnosticsMaxErrLen)
			d.ConnectionStatus = "Not Connected"
			s.logger.Error("Diagnostics panicked", "panic", r)
		}
	}()

	d.DatabaseType = s.store.Name()

	ctx, cancel := context.WithTimeout(ctx, diagnosticsTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		d.Database = "❌ Error: " + truncate(err.Error(), diagnosticsMaxErrLen)
		return d
	}
	d.Database = "✅ Available"
	d.ConnectionStatus = "Connected"

	collections, err := s.store.Collections(ctx, diagnosticsMaxColls)
	if err != nil {
		d.Database = "⚠️ Connected but Error: " + truncate(err.Error(), diagnosticsMaxErrLen)
		return d
	}
	if collections != nil {
		d.Collections = collections
	}
	d.Database = "✅ Connected & Working"
	if !s.settings.URLSet {
		d.Database += " (in-memory, not persisted)"
	}
	return d
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
