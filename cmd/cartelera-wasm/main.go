//go:build js && wasm

// Command cartelera-wasm is the listing page's filter script, compiled to
// WebAssembly and loaded next to the page.
package main

import (
	"cartelera/internal/config"
	"cartelera/internal/dom/jsdom"
	appLog "cartelera/internal/log"
	"cartelera/internal/page"
)

func main() {
	cfg := config.DefaultConfig()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	doc := jsdom.NewDocument()
	hist := jsdom.NewHistory()
	doc.OnReady(func() {
		page.Boot(doc, hist, page.Options{
			Controls:              cfg.FilterControls(),
			RecurrenceHorizonDays: cfg.RecurrenceHorizonDays,
		})
	})

	// Event listeners call back into Go; keep the runtime alive.
	select {}
}
