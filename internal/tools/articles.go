package tools

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

func (s *Server) registerArticles() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_articles",
		Description: "List knowledge base articles with optional filters.",
		InputSchema: objectSchema(merged(map[string]any{
			"search": stringProperty("Full-text search across article title and content (partial match)."),
			"folder": stringProperty("Filter by folder name or title. The folder name is resolved automatically."),
			"tag":    stringProperty("Filter by tag name or title. The tag name is resolved automatically."),
		}, paginationProperties(100))),
	}, s.handleListArticles)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_article",
		Description: "Fetch one knowledge base article by its internal name (ID). Returns the full content converted to Markdown.",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The article's internal name (ID)."),
		}, "name"),
	}, s.handleGetArticle)

	s.mcp.AddTool(mcp.Tool{
		Name:        "list_article_folders",
		Description: "List all knowledge base article folders as a hierarchical tree with article counts.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.handleListArticleFolders)
}

// resolveNamed maps a name or display title onto the internal name, trying
// an exact lookup first and a fuzzy title match second. Empty means nothing
// matched.
func resolveNamed(ctx context.Context, client daktela.API, endpoint, input string) (string, error) {
	record, err := client.Get(ctx, endpoint, input)
	if err != nil {
		return "", err
	}
	if record != nil {
		if name := record.String("name"); name != "" {
			return name, nil
		}
		return input, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: endpoint,
		Filters:  []daktela.Filter{{Field: "title", Operator: "like", Value: input}},
		Take:     1,
	})
	if err != nil {
		return "", err
	}
	if len(result.Records) > 0 {
		return result.Records[0].String("name"), nil
	}
	return "", nil
}

func (s *Server) handleListArticles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	var filters []daktela.Filter

	if folder := request.GetString("folder", ""); folder != "" {
		resolved, err := resolveNamed(ctx, client, "articlesFolders", folder)
		if err != nil {
			return apiErrorResponse(err), nil
		}
		if resolved == "" {
			return textResponse(fmt.Sprintf("Folder '%s' not found.", folder)), nil
		}
		filters = append(filters, daktela.Filter{Field: "folder", Operator: "eq", Value: resolved})
	}

	if tag := request.GetString("tag", ""); tag != "" {
		resolved, err := resolveNamed(ctx, client, "articlesTags", tag)
		if err != nil {
			return apiErrorResponse(err), nil
		}
		if resolved == "" {
			return textResponse(fmt.Sprintf("Tag '%s' not found.", tag)), nil
		}
		filters = append(filters, daktela.Filter{Field: "tags", Operator: "eq", Value: resolved})
	}

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "articles",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Search:   request.GetString("search", ""),
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatArticleList(result, skip)), nil
}

func (s *Server) handleGetArticle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "articles", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Article '%s' not found.", name)), nil
	}

	return textResponse(formatArticleDetail(record, client.BaseURL())), nil
}

func (s *Server) handleListArticleFolders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "articlesFolders",
		Take:     maxTake,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatFolderTree(result.Records)), nil
}

func articleLine(rec daktela.Record) string {
	name := rec.String("name")
	if name == "" {
		name = "?"
	}

	line := "**" + name + "**"
	if title := rec.String("title"); title != "" {
		line += " - " + title
	}
	if folder := rec.Ref("folder"); !folder.IsZero() {
		line += " folder: " + folder.Display()
	}
	if tags := articleTags(rec); tags != "" {
		line += " tags: " + tags
	}
	if desc := format.Truncate(rec.String("description"), 100); desc != "" {
		line += " (" + desc + ")"
	}
	return line
}

func formatArticleList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No articles found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d articles:", skip+1, end, result.Total)
	for _, rec := range result.Records {
		text += "\n" + articleLine(rec)
	}
	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}

func formatArticleDetail(rec daktela.Record, baseURL string) string {
	name := rec.String("name")
	title := rec.String("title")

	lines := []string{fmt.Sprintf("**%s** - %s", name, title)}
	lines = append(lines, "  URL: "+strings.TrimRight(baseURL, "/")+"/articles/update/"+name)

	if folder := rec.Ref("folder"); !folder.IsZero() {
		lines = append(lines, "  Folder: "+folder.Display())
	}
	if tags := articleTags(rec); tags != "" {
		lines = append(lines, "  Tags: "+tags)
	}
	if created := rec.String("created"); created != "" {
		lines = append(lines, "  Created: "+created)
	}
	if edited := rec.String("edited"); edited != "" {
		lines = append(lines, "  Edited: "+edited)
	}
	if views := numberField(rec, "seen_count"); views != "" {
		lines = append(lines, "  Views: "+views)
	}
	if published, ok := rec["published"].(bool); ok {
		state := "No"
		if published {
			state = "Yes"
		}
		lines = append(lines, "  Published: "+state)
	}

	switch {
	case rec.String("content") != "":
		lines = append(lines, "  Content:\n"+articleMarkdown(rec.String("content")))
	case rec.String("description") != "":
		lines = append(lines, "  Description: "+rec.String("description"))
	}

	return strings.Join(lines, "\n")
}

// articleMarkdown converts the stored HTML body to Markdown, falling back to
// the raw body when conversion fails.
func articleMarkdown(html string) string {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(markdown)
}

func articleTags(rec daktela.Record) string {
	list, ok := rec["tags"].([]any)
	if !ok {
		return daktela.ParseRef(rec["tags"]).Display()
	}

	names := make([]string, 0, len(list))
	for _, tag := range list {
		if display := daktela.ParseRef(tag).Display(); display != "" {
			names = append(names, display)
		}
	}
	return strings.Join(names, ", ")
}

// formatFolderTree renders the flat folder listing as an indented tree using
// each folder's parent reference.
func formatFolderTree(folders []daktela.Record) string {
	if len(folders) == 0 {
		return "No article folders found."
	}

	children := make(map[string][]daktela.Record)
	var roots []daktela.Record
	for _, folder := range folders {
		parent := folder.Ref("parent").ID
		if parent == "" {
			roots = append(roots, folder)
		} else {
			children[parent] = append(children[parent], folder)
		}
	}

	lines := []string{fmt.Sprintf("Article folders (%d total):\n", len(folders))}
	var render func(nodes []daktela.Record, depth int)
	render = func(nodes []daktela.Record, depth int) {
		for _, node := range nodes {
			name := node.String("name")
			if name == "" {
				name = "?"
			}
			display := name
			if title := node.String("title"); title != "" {
				display = name + " - " + title
			}

			count := numberField(node, "article_count")
			if count == "" {
				count = "0"
			}
			lines = append(lines, fmt.Sprintf("%s- **%s** (%s articles)",
				strings.Repeat("  ", depth), display, count))

			render(children[name], depth+1)
		}
	}
	render(roots, 0)

	return strings.Join(lines, "\n")
}
