package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

const (
	OutputFile   = "index.html"
	dataSelector = "script#dashboard-data"
)

//go:embed templates/index.html
var defaultTemplate []byte

// Renderer injects a snapshot into the dashboard page template.
type Renderer struct {
	template []byte
	logger   *logger.Logger
}

// NewRenderer loads the template at templatePath, or the embedded page when
// templatePath is empty.
func NewRenderer(templatePath string, logger *logger.Logger) (*Renderer, error) {
	template := defaultTemplate
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		template = data
	}
	return &Renderer{template: template, logger: logger}, nil
}

// Render returns the page with the snapshot JSON embedded in
// script#dashboard-data. briefing may be nil.
func (r *Renderer) Render(snapshot *model.Snapshot, briefing *model.Briefing) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.template)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	target := doc.Find(dataSelector)
	if target.Length() == 0 {
		return nil, fmt.Errorf("template has no %s element", dataSelector)
	}

	// json.Marshal escapes '<', so the payload cannot close the script tag.
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	target.First().SetText(string(payload))

	doc.Find("#last-updated").SetText(snapshot.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	doc.Find("#total-emails").SetText(strconv.Itoa(snapshot.Summary.TotalEmails))
	doc.Find("#task-count").SetText(strconv.Itoa(snapshot.Summary.TaskCount))
	doc.Find("#event-count").SetText(strconv.Itoa(snapshot.Summary.EventCount))
	if briefing != nil {
		doc.Find("#briefing").SetText(briefing.Text)
	}

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return []byte(html), nil
}

// WriteFile renders the page into dir/index.html and returns the path.
func (r *Renderer) WriteFile(dir string, snapshot *model.Snapshot, briefing *model.Briefing) (string, error) {
	page, err := r.Render(snapshot, briefing)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, OutputFile)
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page: %w", err)
	}

	r.logger.Info("Dashboard built:", path)
	return path, nil
}
