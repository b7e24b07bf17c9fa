package sanitizer_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"feedreader-be/sanitizer"
)

func newDefault(t *testing.T) *sanitizer.Sanitizer {
	t.Helper()
	p, err := sanitizer.NewPolicy(sanitizer.DefaultPolicyConfig())
	require.NoError(t, err)
	return sanitizer.New(p)
}

// assertWithinPolicy parses out and fails on any element, attribute or URL
// the policy would not allow.
func assertWithinPolicy(t *testing.T, p *sanitizer.Policy, out string) {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(out), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	require.NoError(t, err)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			assert.Truef(t, p.AllowsTag(n.Data), "element %q outside allow-list in %q", n.Data, out)
			for _, a := range n.Attr {
				assert.Truef(t, p.AllowsAttribute(a.Key), "attribute %q outside allow-list in %q", a.Key, out)
				switch a.Key {
				case "href", "src", "cite", "poster":
					v := strings.ToLower(strings.TrimSpace(a.Val))
					assert.Falsef(t, strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:"),
						"script URL survived in %q", out)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
}

var hostileInputs = []string{
	`<script>alert(1)</script>`,
	`<img src=x onerror=alert(1)>`,
	`<a href="javascript:alert(1)">click</a>`,
	`<a href="JaVaScRiPt:alert(1)">click</a>`,
	`<a href="&#106;avascript:alert(1)">click</a>`,
	`<a href="java&#x09;script:alert(1)">click</a>`,
	`<a href=" javascript:alert(1)">click</a>`,
	`<a href="vbscript:msgbox(1)">click</a>`,
	`<a href="data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg==">click</a>`,
	`<div href="javascript:alert(1)" onclick="alert(1)">x</div>`,
	`<video src="https://example.com/v.mp4" poster="javascript:alert(1)" controls></video>`,
	`<iframe src="javascript:alert(1)"></iframe>`,
	`<iframe srcdoc="<script>alert(1)</script>" src="https://example.com/embed"></iframe>`,
	`<svg><script>alert(1)</script><a xlink:href="javascript:alert(1)">x</a></svg>`,
	`<math><mtext><table><mglyph><style><img src=x onerror=alert(1)>`,
	`<p style="background:url(javascript:alert(1))">styled</p>`,
	`<object data="evil.swf"></object><embed src="evil.swf">`,
	`<form action="https://evil.example"><input name="x"><button formaction="javascript:alert(1)">go</button></form>`,
	`<base href="https://evil.example/"><meta http-equiv="refresh" content="0;url=javascript:alert(1)">`,
	`<style>body{display:none}</style><link rel="stylesheet" href="https://evil.example/x.css">`,
	`<p data-payload="x" data-src="javascript:alert(1)">data attrs</p>`,
	`<<script>script>alert(1)<</script>/script>`,
	`<scr<script>ipt>alert(1)</scr</script>ipt>`,
	`<p>unclosed <b>bold <i>italic`,
	`</p></div></table>stray closers`,
	`<!-- <script>alert(1)</script> -->comment`,
	`<noscript><p title="</noscript><img src=x onerror=alert(1)>"></noscript>`,
	`<table><tr><td><a href="https://example.com" target="_self" rel="opener">cell</a></td></tr></table>`,
	`&lt;script&gt;alert(1)&lt;/script&gt;`,
	`&lt;img src=x onerror=alert(1)&gt;`,
	`&amp;lt;p&amp;gt;double&amp;lt;/p&amp;gt;`,
}

func TestSanitize_AllowListSoundness(t *testing.T) {
	s := newDefault(t)
	for _, in := range hostileInputs {
		out := s.Sanitize(in).String()
		assertWithinPolicy(t, s.Policy(), out)
	}
}

func TestSanitize_ScriptNeutralization(t *testing.T) {
	s := newDefault(t)

	tests := []struct {
		name      string
		input     string
		forbidden []string
	}{
		{name: "script tag", input: `<p>ok</p><script>alert(1)</script>`, forbidden: []string{"<script", "alert(1)"}},
		{name: "onerror handler", input: `<img src=x onerror=alert(1)>`, forbidden: []string{"onerror", "alert"}},
		{name: "javascript href", input: `<a href="javascript:alert(1)">x</a>`, forbidden: []string{"javascript:", "href"}},
		{name: "encoded script", input: `&lt;script&gt;alert(1)&lt;/script&gt;`, forbidden: []string{"<script", "alert(1)"}},
		{name: "style content", input: `<style>.x{}</style><p>ok</p>`, forbidden: []string{"<style", ".x{}"}},
		{name: "svg script", input: `<svg><script>alert(1)</script></svg>`, forbidden: []string{"alert(1)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(tt.input).String()
			for _, f := range tt.forbidden {
				assert.NotContains(t, out, f)
			}
		})
	}
}

func TestSanitize_EntityDecodingMatchesLiteral(t *testing.T) {
	s := newDefault(t)
	encoded := s.Sanitize(`&lt;p&gt;Hello&lt;/p&gt;`)
	literal := s.Sanitize(`<p>Hello</p>`)
	assert.Equal(t, literal.String(), encoded.String())
	assert.Equal(t, "<p>Hello</p>", literal.String())
}

func TestSanitize_DecodesOnlyOneLevel(t *testing.T) {
	s := newDefault(t)
	out := s.Sanitize(`&amp;lt;b&amp;gt;`).String()
	assert.Equal(t, "&lt;b&gt;", out)
}

func TestSanitize_LinkHardening(t *testing.T) {
	s := newDefault(t)

	out := s.Sanitize(`<a href="https://example.com">link</a>`).String()
	assert.Equal(t, `<a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a>`, out)

	spoofed := s.Sanitize(`<a href="https://example.com" rel="opener" target="_self">link</a>`).String()
	assert.Contains(t, spoofed, `target="_blank"`)
	assert.Contains(t, spoofed, `rel="noopener noreferrer"`)
	assert.NotContains(t, spoofed, `"opener"`)
	assert.NotContains(t, spoofed, "_self")
}

func TestSanitize_ImageHardening(t *testing.T) {
	s := newDefault(t)

	out := s.Sanitize(`<img src="https://example.com/x.png" alt="x" loading="eager">`).String()
	assert.Equal(t, `<img src="https://example.com/x.png" alt="x" loading="lazy" decoding="async"/>`, out)
}

func TestSanitize_ContentPreservation(t *testing.T) {
	s := newDefault(t)

	inputs := []string{
		`<p>Hello <strong>world</strong></p>`,
		`<h2>Title</h2><p>Some <em>text</em> and <code>code</code>.</p>`,
		`<ul><li>One</li><li>Two <mark>hot</mark></li></ul><ol><li>First</li></ol>`,
		`<blockquote cite="https://example.com/q"><p>Quote</p></blockquote>`,
		`<figure><figcaption>Caption</figcaption></figure>`,
		`<table><thead><tr><th scope="col">H</th></tr></thead><tbody><tr><td colspan="2">V</td></tr></tbody></table>`,
		`<pre><code class="language-go">func main() {}</code></pre>`,
		`<p>E = mc<sup>2</sup>, H<sub>2</sub>O, <abbr title="HyperText">HTML</abbr>, <q>quoted</q></p>`,
		`<article><section><header>h</header><aside>a</aside><footer>f</footer></section></article>`,
	}
	for _, in := range inputs {
		assert.Equal(t, in, s.Sanitize(in).String())
	}
}

func TestSanitize_StripsWrapperKeepsText(t *testing.T) {
	s := newDefault(t)

	out := s.Sanitize(`<center><font color="red">visible</font></center>`).String()
	assert.Equal(t, "visible", out)

	out = s.Sanitize(`<p>a<script>hidden()</script>b</p>`).String()
	assert.Equal(t, "<p>ab</p>", out)
}

func TestSanitize_URLAttributesOnAnyElement(t *testing.T) {
	s := newDefault(t)

	out := s.Sanitize(`<div href="javascript:alert(1)" title="t">x</div>`).String()
	assert.Equal(t, `<div title="t">x</div>`, out)

	out = s.Sanitize(`<video src="https://example.com/v.mp4" poster="javascript:alert(1)" controls></video>`).String()
	assert.Equal(t, `<video src="https://example.com/v.mp4" controls=""></video>`, out)
}

func TestSanitize_IframeDropsFallback(t *testing.T) {
	s := newDefault(t)

	out := s.Sanitize(`<iframe src="https://www.youtube.com/embed/abc" allowfullscreen>fallback</iframe>`).String()
	assert.Equal(t, `<iframe src="https://www.youtube.com/embed/abc" allowfullscreen=""></iframe>`, out)
}

func TestSanitize_DataURIImages(t *testing.T) {
	const img = `<img src="data:image/png;base64,iVBORw0KGgo=">`

	s := newDefault(t)
	assert.Empty(t, s.Sanitize(img).String())

	cfg := sanitizer.DefaultPolicyConfig()
	cfg.AllowDataURIImages = true
	p, err := sanitizer.NewPolicy(cfg)
	require.NoError(t, err)

	out := sanitizer.New(p).Sanitize(img).String()
	assert.Contains(t, out, `src="data:image/png;base64,iVBORw0KGgo="`)
	assert.Contains(t, out, `loading="lazy"`)

	link := sanitizer.New(p).Sanitize(`<a href="data:image/png;base64,iVBORw0KGgo=">x</a>`).String()
	assert.NotContains(t, link, "data:")
}

func TestSanitize_EmptyAndWhitespace(t *testing.T) {
	s := newDefault(t)
	assert.True(t, s.Sanitize("").IsEmpty())
	assert.True(t, s.Sanitize("   \n\t").IsEmpty())
	assert.Equal(t, "plain text", s.Sanitize("plain text").String())
}

func TestSanitize_Deterministic(t *testing.T) {
	s := newDefault(t)
	for _, in := range hostileInputs {
		assert.Equal(t, s.Sanitize(in).String(), s.Sanitize(in).String())
	}
}

func TestSanitizeFragment_Idempotent(t *testing.T) {
	s := newDefault(t)
	inputs := append([]string{
		`<p>Hello <a href="https://example.com" rel="opener">x</a> <img src="/a.png"></p>`,
		`<p>It's "quoted" &amp; <br> broken<br/>line</p>`,
		`<p><div>block in paragraph</div></p>`,
		`<pre>

leading newline</pre>`,
	}, hostileInputs...)

	for _, in := range inputs {
		once := s.SanitizeFragment(in)
		twice := s.SanitizeFragment(once)
		assert.Equalf(t, once, twice, "not idempotent for %q", in)
	}
}

func TestSanitize_IdempotentThroughDecode(t *testing.T) {
	s := newDefault(t)
	inputs := []string{
		`<p>Hello <a href="https://example.com">x</a></p>`,
		`&lt;p&gt;Hello&lt;/p&gt;`,
		`<img src="https://example.com/x.png"><script>x</script>`,
		`<table><tr><td>cell</td></tr></table>`,
	}
	for _, in := range inputs {
		once := s.Sanitize(in).String()
		assert.Equalf(t, once, s.Sanitize(once).String(), "not idempotent for %q", in)
	}
}

func TestSanitizeFragment_WhitespaceOnlyOutputIsEmpty(t *testing.T) {
	s := newDefault(t)
	for _, in := range []string{"<a> ", "<script>x</script>\n\t", "<span>  </span>"} {
		once := s.SanitizeFragment(in)
		assert.Equalf(t, once, s.SanitizeFragment(once), "not idempotent for %q", in)
	}
	assert.Empty(t, s.SanitizeFragment("<a> "))
}

func TestSanitize_CapsNestingDepth(t *testing.T) {
	s := newDefault(t)
	inputs := map[string]string{
		"nested":  strings.Repeat("<div>", sanitizer.DefaultMaxInputBytes/5),
		"encoded": strings.Repeat("&lt;div&gt;", sanitizer.DefaultMaxInputBytes/11),
		"closed":  strings.Repeat("<div/>", sanitizer.DefaultMaxInputBytes/6),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			out := s.Sanitize(in).String()
			assert.Less(t, time.Since(start), time.Second)

			assert.Equal(t, sanitizer.DefaultMaxDepth, strings.Count(out, "<div>"))
			assert.Equal(t, out, s.Sanitize(out).String())
		})
	}
}

func TestSanitize_DepthCapKeepsText(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.MaxDepth = 2
	p, err := sanitizer.NewPolicy(cfg)
	require.NoError(t, err)
	s := sanitizer.New(p)

	in := `<div><blockquote><p>deep <b>text</b></p></blockquote></div><p>top</p>`
	assert.Equal(t, `<div><blockquote>deep text</blockquote></div><p>top</p>`, s.Sanitize(in).String())
	assert.Equal(t, `<p><b>x</b><img src="/i.png" loading="lazy" decoding="async"/></p>`, s.Sanitize(`<p><b>x</b><img src="/i.png"></p>`).String())
}

func TestSanitize_TruncatesOversizedInput(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.MaxInputBytes = 16
	p, err := sanitizer.NewPolicy(cfg)
	require.NoError(t, err)
	s := sanitizer.New(p)

	res := s.SanitizeWithResult("<p>" + strings.Repeat("é", 20) + "</p>")
	assert.True(t, res.Truncated)
	assert.Equal(t, 3+40+4, res.InputBytes)
	assert.Equal(t, "<p>"+strings.Repeat("é", 6)+"</p>", res.Content.String())

	small := s.SanitizeWithResult("<p>ok</p>")
	assert.False(t, small.Truncated)
}

func TestSanitize_ConcurrentCallsShareSanitizer(t *testing.T) {
	s := newDefault(t)
	want := make([]string, len(hostileInputs))
	for i, in := range hostileInputs {
		want[i] = s.Sanitize(in).String()
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, in := range hostileInputs {
				assert.Equal(t, want[i], s.Sanitize(in).String())
			}
		}()
	}
	wg.Wait()
}

func TestPackageSanitizeUsesDefaultPolicy(t *testing.T) {
	assert.Equal(t, newDefault(t).Sanitize(`<a href="/x">x</a>`), sanitizer.Sanitize(`<a href="/x">x</a>`))
	assert.Same(t, sanitizer.Default(), sanitizer.Default())
}

func FuzzSanitize(f *testing.F) {
	for _, in := range hostileInputs {
		f.Add(in)
	}
	f.Add(`<p>Hello <strong>world</strong></p>`)

	s := sanitizer.New(sanitizer.DefaultPolicy())
	f.Fuzz(func(t *testing.T, in string) {
		out := s.Sanitize(in).String()
		assertWithinPolicy(t, s.Policy(), out)

		once := s.SanitizeFragment(in)
		assertWithinPolicy(t, s.Policy(), once)
		assert.Equal(t, once, s.SanitizeFragment(once))
	})
}

func BenchmarkSanitize(b *testing.B) {
	in := strings.Repeat(`<p>Hello <b>world</b> <script>bad()</script> <a href="http://x.com">link</a><img src="/i.png"></p>`, 100)
	s := sanitizer.New(sanitizer.DefaultPolicy())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Sanitize(in)
	}
}
