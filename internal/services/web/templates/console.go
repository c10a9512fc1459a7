package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// NodeStatusView is one node's row in the status table.
type NodeStatusView struct {
	// Addr is the node's listen address.
	Addr string
	// BlockHash is the latest block hash.
	BlockHash string
	// AppHash is the latest application hash.
	AppHash string
	// BlockHeight is the formatted latest block height.
	BlockHeight string
	// Error is the node's failure message when it did not respond.
	Error string
}

// StatusView is the rendered cluster status snapshot.
type StatusView struct {
	// Nodes are the per-node rows in session order.
	Nodes []NodeStatusView
	// Taken is the formatted snapshot timestamp, empty before the first poll.
	Taken string
	// Polling reports whether the background poller is running.
	Polling bool
}

// ConsoleView is the full console page state.
type ConsoleView struct {
	// Output is the accumulated query transcript.
	Output []string
	// Status is the latest cluster status.
	Status StatusView
}

// ConsolePage renders the query console with its output transcript and
// status panel.
func ConsolePage(loc Localizer, view ConsoleView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<form method="post" action="/console/queries" hx-post="/console/queries" hx-target="#output" hx-swap="outerHTML">
<label>%s<textarea name="queries" rows="5"></textarea></label>
<button type="submit">%s</button>
</form>`,
			html.EscapeString(T(loc, "Queries, one per line")),
			html.EscapeString(T(loc, "Submit"))); err != nil {
			return err
		}
		if err := OutputPanel(loc, view.Output).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div id="status-panel" hx-get="/console/status" hx-trigger="every 1s" hx-swap="innerHTML">`); err != nil {
			return err
		}
		if err := StatusPanel(loc, view.Status).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<form method="post" action="/disconnect"><button type="submit">%s</button></form>`,
			html.EscapeString(T(loc, "Disconnect")))
		return err
	})
	return Layout(loc, T(loc, "Console"), body)
}

// OutputPanel renders the query transcript.
func OutputPanel(loc Localizer, lines []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section id="output"><h2>%s</h2><pre>`, html.EscapeString(T(loc, "Output"))); err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := io.WriteString(w, html.EscapeString(line)+"\n"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</pre></section>`)
		return err
	})
}

// StatusPanel renders the per-node status table and polling toggle.
func StatusPanel(loc Localizer, status StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section id="status"><h2>%s</h2>`, html.EscapeString(T(loc, "Cluster status"))); err != nil {
			return err
		}
		if status.Taken != "" {
			if _, err := fmt.Fprintf(w, `<p class="status-taken">%s</p>`, html.EscapeString(T(loc, "As of %s", status.Taken))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<table><thead><tr><th>%s</th><th>%s</th><th>%s</th><th>%s</th></tr></thead><tbody>`,
			html.EscapeString(T(loc, "Node")),
			html.EscapeString(T(loc, "Block hash")),
			html.EscapeString(T(loc, "App hash")),
			html.EscapeString(T(loc, "Height"))); err != nil {
			return err
		}
		for _, node := range status.Nodes {
			if node.Error != "" {
				if _, err := fmt.Fprintf(w, `<tr class="node-error"><td>%s</td><td colspan="3">%s</td></tr>`,
					html.EscapeString(node.Addr), html.EscapeString(node.Error)); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				html.EscapeString(node.Addr),
				html.EscapeString(node.BlockHash),
				html.EscapeString(node.AppHash),
				html.EscapeString(node.BlockHeight)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
		if err := PollingToggle(loc, status.Polling).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// PollingToggle renders the start/stop control for the status poller.
func PollingToggle(loc Localizer, polling bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		label := T(loc, "Start polling")
		state := T(loc, "Polling stopped")
		if polling {
			label = T(loc, "Stop polling")
			state = T(loc, "Polling running")
		}
		_, err := fmt.Fprintf(w, `<form id="polling-toggle" method="post" action="/console/polling/toggle" hx-post="/console/polling/toggle" hx-target="#polling-toggle" hx-swap="outerHTML">
<span>%s</span>
<button type="submit">%s</button>
</form>`, html.EscapeString(state), html.EscapeString(label))
		return err
	})
}
