// Package composer renders subscriber emails from markdown templates.
// The markdown is the plain-text part; goldmark turns it into the HTML part.
package composer

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
	"github.com/selivandex/portfolio-digest/pkg/templates"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const (
	dailyTemplate   = "daily.md.tmpl"
	urgentTemplate  = "urgent.md.tmpl"
	welcomeTemplate = "welcome.md.tmpl"
	footerTemplate  = "footer.md.tmpl"
	layoutTemplate  = "layout.html.tmpl"

	// DateLayout renders like "Monday, March 10, 2025"
	DateLayout = "Monday, January 2, 2006"

	urgentTitleRunes = 60
)

// Composer builds daily digests, urgent alerts and welcome emails
type Composer struct {
	tmpl   templates.Renderer
	md     goldmark.Markdown
	appURL string
}

// New creates a composer using the embedded templates, or templatesDir when set
func New(appURL, templatesDir string) (*Composer, error) {
	var (
		mgr *templates.Manager
		err error
	)
	if templatesDir != "" {
		mgr, err = templates.NewManager(templatesDir)
	} else {
		mgr, err = templates.NewManagerFS(embedded, "templates/*.tmpl")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	if err := mgr.Require(dailyTemplate, urgentTemplate, welcomeTemplate, footerTemplate, layoutTemplate); err != nil {
		return nil, err
	}

	logger.Debug("email composer ready",
		zap.String("templates", mgr.GetDirectory()),
		zap.String("app_url", appURL),
	)

	return &Composer{
		tmpl:   mgr,
		md:     goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify)),
		appURL: strings.TrimRight(appURL, "/"),
	}, nil
}

type envelope struct {
	Email       string
	AppURL      string
	HoldingsURL string
}

type dailyData struct {
	envelope
	Date   string
	Count  int
	Events []models.ScoredEvent
}

type urgentData struct {
	envelope
	Event models.ScoredEvent
}

type welcomeData struct {
	envelope
	Tickers           []string
	WantsUrgentAlerts bool
}

// Daily renders the morning digest for date in the subscriber's local time
func (c *Composer) Daily(sub models.Subscriber, events []models.ScoredEvent, date time.Time) (models.Message, error) {
	data := dailyData{
		envelope: c.envelope(sub),
		Date:     date.Format(DateLayout),
		Count:    len(events),
		Events:   events,
	}
	return c.render(sub.Email, DailySubject(len(events)), dailyTemplate, data)
}

// Urgent renders a single-event alert
func (c *Composer) Urgent(sub models.Subscriber, event models.ScoredEvent) (models.Message, error) {
	data := urgentData{envelope: c.envelope(sub), Event: event}
	return c.render(sub.Email, UrgentSubject(event), urgentTemplate, data)
}

// Welcome renders the subscription confirmation
func (c *Composer) Welcome(sub models.Subscriber) (models.Message, error) {
	data := welcomeData{
		envelope:          c.envelope(sub),
		Tickers:           sub.Tickers(),
		WantsUrgentAlerts: sub.WantsUrgentAlerts,
	}
	return c.render(sub.Email, "Welcome to Portfolio Coffee Mate ☕", welcomeTemplate, data)
}

func (c *Composer) envelope(sub models.Subscriber) envelope {
	return envelope{
		Email:       sub.Email,
		AppURL:      c.appURL,
		HoldingsURL: HoldingsURL(c.appURL, sub.ID),
	}
}

func (c *Composer) render(to, subject, name string, data any) (models.Message, error) {
	text, err := c.tmpl.ExecuteTemplate(name, data)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to render %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := c.md.Convert([]byte(text), &body); err != nil {
		return models.Message{}, fmt.Errorf("failed to convert %s to html: %w", name, err)
	}

	html, err := c.tmpl.ExecuteTemplate(layoutTemplate, struct {
		Title string
		Body  string
	}{Title: subject, Body: body.String()})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to render layout: %w", err)
	}

	return models.Message{
		To:      to,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}, nil
}

// DailySubject is "☕ Your Morning Portfolio Brief — N thing(s) that matter today"
func DailySubject(n int) string {
	noun := "things"
	if n == 1 {
		noun = "thing"
	}
	return fmt.Sprintf("☕ Your Morning Portfolio Brief — %d %s that matter today", n, noun)
}

// UrgentSubject names the affected holdings (or "Market") and the start of the headline
func UrgentSubject(e models.ScoredEvent) string {
	affected := "Market"
	if len(e.AffectedHoldings) > 0 {
		affected = strings.Join(e.AffectedHoldings, ", ")
	}
	return fmt.Sprintf("🚨 Urgent: %s alert — %s", affected, firstRunes(e.Title, urgentTitleRunes))
}

// HoldingsURL is where a subscriber edits their portfolio
func HoldingsURL(appURL, subscriberID string) string {
	return fmt.Sprintf("%s/holdings?id=%s", strings.TrimRight(appURL, "/"), subscriberID)
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
