package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// ConnectForm holds form state for the connect page, including previously
// submitted values when validation fails.
type ConnectForm struct {
	// Endpoints is the raw comma- or newline-separated node address list.
	Endpoints string
	// AppID is the application namespace on the cluster.
	AppID string
	// SignerAddress attributes submitted queries to an account.
	SignerAddress string
	// Error is the message shown when a connect attempt failed.
	Error string
}

// ConnectPage renders the cluster connect form.
func ConnectPage(loc Localizer, form ConnectForm) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if form.Error != "" {
			if _, err := fmt.Fprintf(w, `<p class="error" role="alert">%s</p>`, html.EscapeString(form.Error)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<form method="post" action="/connect">
<label>%s<textarea name="endpoints" rows="3" required>%s</textarea></label>
<label>%s<input type="text" name="app_id" value="%s" required></label>
<label>%s<input type="text" name="signer_address" value="%s" required></label>
<label>%s<input type="password" name="private_key" value=""></label>
<button type="submit">%s</button>
</form>`,
			html.EscapeString(T(loc, "Node endpoints")), html.EscapeString(form.Endpoints),
			html.EscapeString(T(loc, "Application ID")), html.EscapeString(form.AppID),
			html.EscapeString(T(loc, "Signer address")), html.EscapeString(form.SignerAddress),
			html.EscapeString(T(loc, "Private key (optional)")),
			html.EscapeString(T(loc, "Connect")))
		return err
	})
	return Layout(loc, T(loc, "Connect to cluster"), body)
}
