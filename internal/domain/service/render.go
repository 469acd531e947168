package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
)

// DigestRenderer is the default BundleRenderer: a plain text digest with an
// HTML alternative, one section per subscription.
type DigestRenderer struct {
	SiteTitle string
}

func NewDigestRenderer(siteTitle string) *DigestRenderer {
	return &DigestRenderer{SiteTitle: siteTitle}
}

func (r *DigestRenderer) Render(email string, entries []dto.SubscriptionNotification) (string, string, string) {
	subject := fmt.Sprintf("%s notification", r.SiteTitle)

	var plain, htmlBody strings.Builder
	fmt.Fprintf(&plain, "Changes have occurred in relation to your %s subscriptions:\n", r.SiteTitle)
	fmt.Fprintf(&htmlBody, "<p>Changes have occurred in relation to your %s subscriptions:</p>\n",
		html.EscapeString(r.SiteTitle))

	for _, entry := range entries {
		sub := entry.Subscription
		fmt.Fprintf(&plain, "\n%s: %s\n", sub.ObjectType, sub.ObjectID)
		fmt.Fprintf(&htmlBody, "<h3>%s: %s</h3>\n<ul>\n",
			html.EscapeString(string(sub.ObjectType)), html.EscapeString(sub.ObjectID))
		for _, activity := range entry.Activities {
			fmt.Fprintf(&plain, " * %s - %s\n",
				activity.Timestamp.Format("2006-01-02 15:04"), activity.Type)
			fmt.Fprintf(&htmlBody, "<li>%s - %s</li>\n",
				activity.Timestamp.Format("2006-01-02 15:04"), html.EscapeString(activity.Type))
		}
		htmlBody.WriteString("</ul>\n")
	}

	return subject, plain.String(), htmlBody.String()
}
