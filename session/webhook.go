package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
)

// Notifier posts completed responses to a survey's webhook. Delivery
// is advisory: fire-and-forget, no retry, failures logged and
// swallowed. Response persistence is the source of truth.
type Notifier struct {
	client *http.Client
}

func NewNotifier(timeout time.Duration) *Notifier {
	return &Notifier{client: &http.Client{Timeout: timeout}}
}

type webhookSurvey struct {
	ID    int    `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type webhookPayload struct {
	Survey   webhookSurvey  `json:"survey"`
	Response model.Response `json:"response"`
}

// Notify returns immediately; delivery happens on its own goroutine.
func (n *Notifier) Notify(survey *model.Survey, response model.Response) {
	if survey.WebhookURL == "" {
		return
	}
	go n.deliver(survey, response)
}

func (n *Notifier) deliver(survey *model.Survey, response model.Response) {
	payload := webhookPayload{
		Survey:   webhookSurvey{ID: survey.ID, Slug: survey.Slug, Title: survey.Title},
		Response: response,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Warnf("session.webhook.encode: %s", err)
		return
	}

	resp, err := n.client.Post(survey.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warnf("session.webhook.post: %s", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warnf("session.webhook.post: status %d from %s", resp.StatusCode, survey.WebhookURL)
	}
}
