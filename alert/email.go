package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/macrodesk/riskengine/breaker"
)

// EmailDispatcher sends each event as an HTML email over SMTP.
type EmailDispatcher struct {
	addr   string
	auth   smtp.Auth
	from   string
	to     []string
	logger zerolog.Logger
}

func NewEmailDispatcher(host string, port int, user, pass, from string, to []string, logger zerolog.Logger) *EmailDispatcher {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &EmailDispatcher{
		addr:   fmt.Sprintf("%s:%d", host, port),
		auth:   auth,
		from:   from,
		to:     to,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

func (d *EmailDispatcher) Dispatch(ev breaker.Event) error {
	subject := fmt.Sprintf("[RISK] %s: %s -> %s", ev.Type, ev.From, ev.To)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", d.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(d.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "<h2>Risk alert: %s</h2>", ev.Type)
	fmt.Fprintf(&b, "<p><b>Transition:</b> %s &rarr; %s</p>", ev.From, ev.To)
	fmt.Fprintf(&b, "<p><b>Drawdown:</b> %.2f%%</p>", ev.Drawdown*100)
	fmt.Fprintf(&b, "<p><b>Action:</b> %s</p>", ev.Action)
	fmt.Fprintf(&b, "<p><b>P&amp;L at trigger:</b> %.2f</p>", ev.PnL)
	fmt.Fprintf(&b, "<p><b>Time:</b> %s</p>", ev.Time.Format("2006-01-02 15:04:05 MST"))

	if err := smtp.SendMail(d.addr, d.auth, d.from, d.to, []byte(b.String())); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	d.logger.Debug().Str("event_id", ev.ID).Msg("email alert delivered")
	return nil
}
