package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPrefersArticle(t *testing.T) {
	html := `<html><head><style>.x{}</style></head><body>
		<nav>메뉴</nav>
		<article>
			<h1>자동차 정비</h1>
			<p>엔진 오일은   5000km마다</p><script>var a=1</script>
		</article>
		<footer>저작권</footer></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, "자동차 정비 엔진 오일은 5000km마다", ExtractText(doc))
}

func TestFetchTextTruncatesAndValidates(t *testing.T) {
	body := strings.Repeat("정비 ", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/short":
			_, _ = w.Write([]byte("<body><p>짧음</p></body>"))
		case "/missing":
			http.NotFound(w, r)
		default:
			require.NotEmpty(t, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("<body><div class=\"se-main-container\">" + body + "</div><p>기타</p></body>"))
		}
	}))
	defer server.Close()

	fetcher := New(server.Client(), 150)

	text, err := fetcher.FetchText(context.Background(), server.URL+"/post")
	require.NoError(t, err)
	require.Equal(t, 150, len([]rune(text)))
	require.NotContains(t, text, "기타")

	_, err = fetcher.FetchText(context.Background(), server.URL+"/short")
	require.ErrorIs(t, err, ErrInsufficientContent)

	_, err = fetcher.FetchText(context.Background(), server.URL+"/missing")
	require.Error(t, err)

	_, err = fetcher.FetchText(context.Background(), "ftp://example.com/file")
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetchBytesReturnsRawBody(t *testing.T) {
	payload := []byte("\x89PNG\r\n\x1a\nrest")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher := New(server.Client(), 0)

	data, err := fetcher.FetchBytes(context.Background(), server.URL+"/section-1.png")
	require.NoError(t, err)
	require.Equal(t, payload, data)

	_, err = fetcher.FetchBytes(context.Background(), server.URL+"/gone")
	require.Error(t, err)

	_, err = fetcher.FetchBytes(context.Background(), "/relative.png")
	require.ErrorIs(t, err, ErrInvalidURL)
}
