package adapters

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestRegistry_FindAdapter(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://chat.openai.com/share/abc", "chat-share"},
		{"https://chatgpt.com/share/abc", "chat-share"},
		{"https://chatgpt.com/c/abc", "generic"},
		{"https://example.com/share/abc", "generic"},
	}

	for _, tt := range tests {
		if got := registry.FindAdapter(tt.url, "text/html").Name(); got != tt.want {
			t.Errorf("FindAdapter(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestGenericAdapter_PrefersMain(t *testing.T) {
	doc := parse(t, `<html><body>
		<header>Site header</header>
		<main><h1>Title</h1><p>The river is 300 km long.</p><nav>Skip</nav></main>
		<footer>Footer</footer>
	</body></html>`)

	got := NewGenericAdapter().ExtractText(doc, "https://example.com")
	if got != "Title The river is 300 km long." {
		t.Errorf("ExtractText() = %q", got)
	}
}

func TestGenericAdapter_FallsBackToBody(t *testing.T) {
	doc := parse(t, `<html><body><script>var a = 1;</script><div>Only body text</div></body></html>`)

	got := NewGenericAdapter().ExtractText(doc, "https://example.com")
	if got != "Only body text" {
		t.Errorf("ExtractText() = %q", got)
	}
}

func TestChatShareAdapter_NextData(t *testing.T) {
	doc := parse(t, `<html><body>
		<script id="__NEXT_DATA__" type="application/json">
		{"props":{"pageProps":{"serverResponse":{"data":{"mapping":{
			"a":{"message":{"author":{"role":"user"},"content":{"parts":["When was the Eiffel Tower completed?"]}}},
			"b":{"message":{"author":{"role":"assistant"},"content":{"parts":["It was completed in 1889."]}}}
		}}}}}}
		</script>
	</body></html>`)

	got := NewChatShareAdapter().ExtractText(doc, "https://chat.openai.com/share/x")

	if !strings.Contains(got, "USER: When was the Eiffel Tower completed?") {
		t.Errorf("missing user turn in %q", got)
	}
	if !strings.Contains(got, "ASSISTANT: It was completed in 1889.") {
		t.Errorf("missing assistant turn in %q", got)
	}
	if strings.Index(got, "USER:") > strings.Index(got, "ASSISTANT:") {
		t.Errorf("turns out of order: %q", got)
	}
}

func TestChatShareAdapter_TurnsAndSources(t *testing.T) {
	doc := parse(t, `<html><body><main>
		<div data-testid="conversation-turn"><div data-message-author-role="user">Is the Great Wall visible from space?</div></div>
		<div data-testid="conversation-turn"><div data-message-author-role="assistant">
			Not with the naked eye from low orbit, per <a href="https://www.nasa.gov/wall">NASA</a>.
		</div></div>
	</main></body></html>`)

	got := NewChatShareAdapter().ExtractText(doc, "https://chatgpt.com/share/x")

	if !strings.Contains(got, "USER: Is the Great Wall visible from space?") {
		t.Errorf("missing user turn in %q", got)
	}
	if !strings.HasSuffix(got, "Sources:\nhttps://www.nasa.gov/wall") {
		t.Errorf("missing sources list in %q", got)
	}
	if strings.Count(got, "USER:") != 1 {
		t.Errorf("nested turn counted twice: %q", got)
	}
}

func TestCleanCodeLines(t *testing.T) {
	in := "  keep this line  \n\nwindow.foo = 1\n{\"json\": true}\nconst a = 1\nthe outlet store opened\n"
	got := cleanCodeLines(in)

	want := "keep this line\nthe outlet store opened"
	if got != want {
		t.Errorf("cleanCodeLines() = %q, want %q", got, want)
	}
}
