package headlines

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssStyles string

var GenerateHTMLCmd = &cobra.Command{
	Use:   "generate-html [report.json]",
	Short: "Generate HTML version of a cluster report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := clusterConfig(cmd)
		if err != nil {
			return err
		}

		var path string
		if len(args) > 0 {
			path = args[0]
		} else {
			path, err = LatestReport(cfg.OutputDir, cfg.Prefix)
			if err != nil {
				return err
			}
		}

		entries, err := LoadReport(path)
		if err != nil {
			return err
		}

		htmlContent, err := RenderHTML(RenderMarkdown(entries), time.Now())
		if err != nil {
			return err
		}

		outPath := strings.TrimSuffix(path, ".json") + ".html"
		if err := os.WriteFile(outPath, []byte(htmlContent), 0644); err != nil {
			return fmt.Errorf("failed to write HTML file: %w", err)
		}

		log.Info().Str("path", outPath).Int("clusters", entries.Len()).Msg("HTML report generated")
		return nil
	},
}

func init() {
	GenerateHTMLCmd.Flags().StringVar(&configPath, "config", "", "YAML cluster configuration (default cluster.yaml when present)")
}

// RenderMarkdown writes the report as a Markdown document, one section per cluster.
func RenderMarkdown(entries *ReportEntries) string {
	var sb strings.Builder
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		entry := pair.Value
		if pair.Key == UnclusteredKey {
			sb.WriteString("## Unclustered\n\n")
		} else {
			fmt.Fprintf(&sb, "## Cluster %s: %s\n\n", pair.Key, strings.Join(entry.Keywords, ", "))
		}
		fmt.Fprintf(&sb, "*%d articles*\n\n", entry.ArticleCount)

		for _, article := range entry.Articles {
			title := article.Title
			if title == "" {
				title = "(untitled)"
			}
			if article.Link != "" {
				fmt.Fprintf(&sb, "- [%s](%s)", escapeMarkdown(title), article.Link)
			} else {
				fmt.Fprintf(&sb, "- %s", escapeMarkdown(title))
			}
			var meta []string
			if article.Source != "" {
				meta = append(meta, escapeMarkdown(article.Source))
			}
			if article.PublishedDate != "" {
				meta = append(meta, escapeMarkdown(article.PublishedDate))
			}
			if article.Score != nil {
				meta = append(meta, fmt.Sprintf("score %.3f", *article.Score))
			}
			if len(meta) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(meta, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(oneLine(s))
}

// RenderHTML converts markdown to a complete HTML page with embedded CSS.
func RenderHTML(markdownContent string, now time.Time) (string, error) {
	// Configure goldmark with extensions
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	data := struct {
		Title string
		Date  string
		Body  template.HTML
		CSS   template.CSS
	}{
		Title: "News Clusters",
		Date:  now.Format("2 January 2006"),
		Body:  template.HTML(buf.String()),
		CSS:   template.CSS(cssStyles),
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return result.String(), nil
}
