package goquery_test

import (
	"testing"

	"github.com/ChallX/gamedex"
	gq "github.com/ChallX/gamedex/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadHTML = `<!DOCTYPE html>
<html>
<head><title>Sample Game - v1.0 [Dev] | F95zone</title></head>
<body>
<h1 class="p-title-value">Sample Game - v1.0 [Dev]</h1>
<article>
<img src="/attachments/sample-cover.png" alt="Sample Game cover">
<img data-src="/attachments/screenshot1.png" alt="screenshot">
<p>A visual novel about sampling games.</p>
<a href="https://f95zone.to/members/dev.1/">Dev profile</a>
<a href="https://gofile.io/d/xyz">Mirror</a>
<div class="bbCodeSpoiler">
  <a href="https://mega.nz/file/abc">Download PC</a>
  <a href="https://pixeldrain.com/u/def">Pixeldrain</a>
</div>
<a href="javascript:void(0)">Toggle</a>
<a href="mailto:dev@example.com">Contact</a>
</article>
</body>
</html>`

func TestBuildArtifact(t *testing.T) {
	t.Parallel()

	artifact, err := gq.BuildArtifact(threadHTML, "https://f95zone.to/threads/sample-game.123/")
	require.NoError(t, err)

	t.Run("prefers thread title element", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Sample Game - v1.0 [Dev]", artifact.Title)
	})

	t.Run("collects images including lazy-loaded ones", func(t *testing.T) {
		t.Parallel()

		require.Len(t, artifact.Images, 2)
		assert.Equal(t, "https://f95zone.to/attachments/sample-cover.png", artifact.Images[0].URL)
		assert.Equal(t, "Sample Game cover", artifact.Images[0].Alt)
		assert.Equal(t, "https://f95zone.to/attachments/screenshot1.png", artifact.Images[1].URL)
	})

	t.Run("collects provider and download-intent links only", func(t *testing.T) {
		t.Parallel()

		urls := make(map[string]gamedex.LinkRef)
		for _, l := range artifact.Links {
			urls[l.URL] = l
		}

		assert.Contains(t, urls, "https://gofile.io/d/xyz")
		assert.Contains(t, urls, "https://mega.nz/file/abc")
		assert.Contains(t, urls, "https://pixeldrain.com/u/def")
		assert.NotContains(t, urls, "https://f95zone.to/members/dev.1/")
		assert.Len(t, urls, 3)
	})

	t.Run("tags spoiler-region links distinctly", func(t *testing.T) {
		t.Parallel()

		var mega, gofile gamedex.LinkRef
		for _, l := range artifact.Links {
			switch l.URL {
			case "https://mega.nz/file/abc":
				mega = l
			case "https://gofile.io/d/xyz":
				gofile = l
			}
		}

		assert.True(t, mega.InSpoiler)
		assert.False(t, gofile.InSpoiler)
		assert.Equal(t, "Download PC", mega.Text)
	})
}

func TestBuildArtifact_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := gq.BuildArtifact("<html></html>", "://bad")
	require.Error(t, err)
	assert.Equal(t, gamedex.EINVALID, gamedex.ErrorCode(err))
}

func TestBuildArtifact_ContextSnippetBounded(t *testing.T) {
	t.Parallel()

	long := "<p>"
	for range 100 {
		long += "version 1.0 for windows "
	}
	long += `<a href="https://mega.nz/file/abc">Download</a></p>`

	artifact, err := gq.BuildArtifact(long, "https://f95zone.to/threads/x.1/")
	require.NoError(t, err)
	require.Len(t, artifact.Links, 1)
	assert.LessOrEqual(t, len(artifact.Links[0].Context), 200)
}

func TestVisibleText(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>body { color: red; }</style></head><body>
		<script>var hidden = true;</script>
		<h1>Sample   Game</h1>
		<noscript>enable javascript</noscript>
		<p>A   description
		across lines.</p></body></html>`

	got := gq.VisibleText(html)
	assert.Equal(t, "Sample Game A description across lines.", got)
}

func TestVisibleText_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, gq.VisibleText(`<html><body><script>x()</script></body></html>`))
}
