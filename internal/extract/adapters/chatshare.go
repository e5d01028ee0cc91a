package adapters

import (
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ckwokli/pws/internal/extract"
	"golang.org/x/net/html"
)

// maxChatShareRunes caps text taken from a shared conversation
const maxChatShareRunes = 30000

// codeLineRe matches lines of inline script or serialized state left in the page
var codeLineRe = regexp.MustCompile(`(?i)(function\s*\(|\bvar\s|\bconst\s|\blet\s|import\(|\bexport\s|window\.|document\.|__NEXT_DATA__|webpackJsonp|;\)|\{.*\}|^[\[{][\s\S]*[\]}]$)`)

// ChatShareAdapter extracts the turns of a publicly shared chat conversation
type ChatShareAdapter struct {
	BaseAdapter
}

// NewChatShareAdapter creates a new chat share adapter
func NewChatShareAdapter() *ChatShareAdapter {
	return &ChatShareAdapter{}
}

// Name returns the adapter name
func (a *ChatShareAdapter) Name() string {
	return "chat-share"
}

// CanHandle matches chat.openai.com and chatgpt.com share links
func (a *ChatShareAdapter) CanHandle(rawURL string, contentType string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "chat.openai.com" && host != "chatgpt.com" {
		return false
	}
	return strings.HasPrefix(parsed.Path, "/share/")
}

// ExtractText combines embedded message data, conversation-turn nodes and
// the outbound links they cite.
func (a *ChatShareAdapter) ExtractText(doc *html.Node, rawURL string) string {
	var sections []string

	if structured := a.structuredMessages(doc); structured != "" {
		sections = append(sections, structured)
	}

	parts, links := a.conversationTurns(doc)
	if len(parts) > 0 {
		sections = append(sections, strings.Join(parts, "\n\n"))
	}

	combined := strings.Join(sections, "\n\n")
	if len(links) > 0 {
		combined += "\n\nSources:\n" + strings.Join(links, "\n")
	}

	return truncateRunes(cleanCodeLines(combined), maxChatShareRunes)
}

type chatMessage struct {
	role string
	text string
}

// structuredMessages walks the __NEXT_DATA__ payload for author/content pairs
func (a *ChatShareAdapter) structuredMessages(doc *html.Node) string {
	script := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "__NEXT_DATA__"
	})
	if script == nil || script.FirstChild == nil {
		return ""
	}

	var data any
	if err := json.Unmarshal([]byte(script.FirstChild.Data), &data); err != nil {
		return ""
	}

	var messages []chatMessage
	var visit func(any)
	visit = func(v any) {
		switch node := v.(type) {
		case []any:
			for _, item := range node {
				visit(item)
			}
		case map[string]any:
			if msg, ok := messageFrom(node); ok {
				messages = append(messages, msg)
			}
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				visit(node[k])
			}
		}
	}
	visit(data)

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, withRole(m.role, m.text))
	}
	return strings.Join(lines, "\n\n")
}

// messageFrom recognises {author:{role}, content:{parts|text}|[{text}]}
func messageFrom(node map[string]any) (chatMessage, bool) {
	author, ok := node["author"].(map[string]any)
	if !ok {
		return chatMessage{}, false
	}

	role, _ := author["role"].(string)
	if role == "" {
		role, _ = node["role"].(string)
	}

	var text string
	switch content := node["content"].(type) {
	case map[string]any:
		if parts, ok := content["parts"].([]any); ok {
			var strs []string
			for _, p := range parts {
				if s, ok := p.(string); ok {
					strs = append(strs, s)
				}
			}
			text = strings.Join(strs, "\n")
		} else if s, ok := content["text"].(string); ok {
			text = s
		}
	case []any:
		if len(content) > 0 {
			if first, ok := content[0].(map[string]any); ok {
				text, _ = first["text"].(string)
			}
		}
	}

	if text == "" {
		return chatMessage{}, false
	}
	return chatMessage{role: role, text: text}, true
}

// conversationTurns reads turn nodes, falling back to main/article/.prose
func (a *ChatShareAdapter) conversationTurns(doc *html.Node) ([]string, []string) {
	turns := a.FindAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode &&
			(a.GetAttribute(n, "data-testid") == "conversation-turn" || a.HasAttribute(n, "data-message-author-role"))
	})

	var parts []string
	var links []string
	seen := make(map[string]bool)
	addLinks := func(n *html.Node) {
		for _, link := range extract.OutboundLinks(n) {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}

	for _, turn := range turns {
		role := a.GetAttribute(turn, "data-message-author-role")
		if role == "" {
			if inner := a.FindFirst(turn, func(n *html.Node) bool {
				return n.Type == html.ElementNode && a.HasAttribute(n, "data-message-author-role")
			}); inner != nil {
				role = a.GetAttribute(inner, "data-message-author-role")
			}
		}

		if text := a.NodeText(turn); len(text) > 10 {
			parts = append(parts, withRole(role, text))
		}
		addLinks(turn)
	}

	if len(parts) > 0 {
		return parts, links
	}

	containers := a.FindAll(doc, func(n *html.Node) bool {
		return isElement("main", "article")(n) || a.HasClass(n, "prose")
	})
	for _, c := range containers {
		if text := a.NodeText(c); len(text) > 50 {
			parts = append(parts, text)
		}
		addLinks(c)
	}
	return parts, links
}

func withRole(role, text string) string {
	if role == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.ToUpper(role) + ": " + text)
}

// cleanCodeLines trims lines and drops empty or code-looking ones
func cleanCodeLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || codeLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
