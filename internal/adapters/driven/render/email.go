package render

import (
	"bytes"
	"fmt"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Message is a rendered email with a plain text fallback.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type themeView struct {
	Theme      domain.Theme
	Count      int
	Highlights []string
}

type emailData struct {
	Title     string
	Period    string
	Digest    *domain.Digest
	Themes    []themeView
	Generated string
}

// Subject returns the email and issue title for a digest.
func Subject(d *domain.Digest) string {
	return fmt.Sprintf("%s: week ending %s (%d items)", Title, d.WeekEnding, d.ItemsIncluded)
}

// Email renders the digest as an HTML email. The Markdown rendering is the text part.
func (r *Renderer) Email(d *domain.Digest) (*Message, error) {
	data := emailData{
		Title:     Title,
		Period:    Period(d.WeekEnding),
		Digest:    d,
		Generated: r.now().Format("2006-01-02"),
	}
	for _, theme := range r.themes(d) {
		summary := d.ByTheme[theme]
		data.Themes = append(data.Themes, themeView{Theme: theme, Count: summary.Count, Highlights: summary.Highlights})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	return &Message{
		Subject: Subject(d),
		Text:    r.Markdown(d),
		HTML:    buf.String(),
	}, nil
}

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 24px; background-color: #f3f4f6; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; color: #111827; line-height: 1.5; }
    .container { max-width: 680px; margin: 0 auto; background: #ffffff; border-radius: 8px; border: 1px solid #e5e7eb; overflow: hidden; }
    .header { padding: 20px 24px; background: linear-gradient(135deg, #14532d 0%, #1f2937 100%); color: #ffffff; }
    .header h1 { font-size: 22px; margin: 0 0 4px 0; }
    .period { font-size: 14px; opacity: 0.9; }
    .counts { font-size: 12px; margin-top: 8px; opacity: 0.8; }
    .section { padding: 16px 24px; border-top: 1px solid #f3f4f6; }
    .section-title { font-size: 11px; font-weight: 700; color: #6b7280; text-transform: uppercase; letter-spacing: 0.1em; margin-bottom: 12px; }
    .story { margin-bottom: 16px; }
    .story-title { font-size: 15px; font-weight: 600; }
    .story-meta { font-size: 12px; color: #6b7280; margin: 2px 0 4px 0; }
    .badge { display: inline-block; padding: 2px 8px; font-size: 10px; font-weight: 600; border-radius: 4px; text-transform: uppercase; letter-spacing: 0.05em; margin-right: 4px; }
    .badge-high { background: #fee2e2; color: #991b1b; }
    .badge-medium { background: #fef3c7; color: #92400e; }
    .badge-low { background: #e0f2fe; color: #0369a1; }
    .story-summary { font-size: 14px; color: #374151; }
    ul { margin: 0; padding-left: 20px; font-size: 14px; }
    li { margin-bottom: 6px; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #f3f4f6; vertical-align: top; }
    th { color: #6b7280; font-weight: 600; }
    .empty { font-size: 13px; color: #9ca3af; font-style: italic; }
    .footer { padding: 16px 24px; font-size: 12px; color: #9ca3af; text-align: center; background: #f9fafb; border-top: 1px solid #f3f4f6; }
    a { color: #0b3d91; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>{{.Title}}</h1>
      <div class="period">{{.Period}}</div>
      <div class="counts">{{.Digest.ItemsIncluded}} of {{.Digest.ItemsAnalyzed}} items included</div>
    </div>

    <div class="section">
      <div class="section-title">Top Stories</div>
      {{range .Digest.TopStories}}
      <div class="story">
        <div class="story-title">{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a>{{else}}{{.Title}}{{end}}</div>
        <div class="story-meta">
          <span class="badge badge-{{.Importance}}">{{.Importance}}</span>
          {{label .Theme}}{{if .Geography}} &middot; {{.Geography}}{{end}}{{if .Source}} &middot; {{.Source}}{{end}}
        </div>
        {{if .Summary}}<div class="story-summary">{{.Summary}}</div>{{end}}
      </div>
      {{else}}
      <div class="empty">Nothing reported this week.</div>
      {{end}}
    </div>

    <div class="section">
      <div class="section-title">By Theme</div>
      {{range .Themes}}
      <p><strong>{{label .Theme}}</strong> ({{.Count}})</p>
      {{if .Highlights}}
      <ul>
        {{range .Highlights}}<li>{{.}}</li>{{end}}
      </ul>
      {{end}}
      {{else}}
      <div class="empty">Nothing reported this week.</div>
      {{end}}
    </div>

    <div class="section">
      <div class="section-title">Regulatory Alerts</div>
      {{if .Digest.RegulatoryAlerts}}
      <table>
        <tr><th>Alert</th><th>Deadline</th><th>Action Required</th></tr>
        {{range .Digest.RegulatoryAlerts}}
        <tr><td>{{.Title}}</td><td>{{.Deadline}}</td><td>{{.ActionRequired}}</td></tr>
        {{end}}
      </table>
      {{else}}
      <div class="empty">Nothing reported this week.</div>
      {{end}}
    </div>

    <div class="section">
      <div class="section-title">Key Statistics</div>
      {{if .Digest.KeyStatistics}}
      <ul>
        {{range .Digest.KeyStatistics}}<li><strong>{{.Metric}}:</strong> {{.Value}}{{if .Source}} ({{.Source}}){{end}}</li>{{end}}
      </ul>
      {{else}}
      <div class="empty">Nothing reported this week.</div>
      {{end}}
    </div>

    <div class="footer">
      Generated {{.Generated}} by esgmon
    </div>
  </div>
</body>
</html>`
