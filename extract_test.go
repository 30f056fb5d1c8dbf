package gamedex_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ChallX/gamedex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtifact() *gamedex.PageArtifact {
	return &gamedex.PageArtifact{
		URL:         "https://f95zone.to/threads/sample-game.123/",
		Title:       "Sample Game - v1.0 [Dev]",
		TextContent: "Sample Game is a visual novel about sampling games.",
		Images: []gamedex.ImageRef{
			{URL: "https://f95zone.to/img/avatar.png", Alt: "avatar"},
			{URL: "https://f95zone.to/img/sample-cover.png", Alt: "Sample Game cover"},
		},
		Links: []gamedex.LinkRef{
			{URL: "https://mega.nz/file/abc", Text: "Download PC", InSpoiler: true},
			{URL: "https://gofile.io/d/xyz", Text: "Mirror"},
			{URL: "https://f95zone.to/members/dev.1/", Text: "Dev profile"},
		},
	}
}

func TestFallbackExtract(t *testing.T) {
	t.Parallel()

	rec := gamedex.FallbackExtract(sampleArtifact(), "https://f95zone.to/threads/sample-game.123/")

	assert.Contains(t, rec.Name, "Sample Game")
	assert.Equal(t, "1.0", rec.Version)
	assert.Equal(t, "https://f95zone.to/img/sample-cover.png", rec.CoverURL)

	require.Len(t, rec.Links, 2, "only provider-host links survive")
	assert.Equal(t, "MEGA", rec.Links[0].Provider)
	assert.Equal(t, "GoFile", rec.Links[1].Provider)
	assert.Equal(t, "PC", rec.Links[0].Platform)
	assert.Equal(t, "1.0", rec.Links[0].Version)
}

func TestFallbackExtract_PipeDelimitedTitle(t *testing.T) {
	t.Parallel()

	artifact := &gamedex.PageArtifact{Title: "Another Game | RPG | Completed"}
	rec := gamedex.FallbackExtract(artifact, "https://f95zone.to/threads/x.1/")

	assert.Equal(t, "Another Game", rec.Name)
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	t.Run("short input passes through", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "abc", gamedex.TruncateText("abc", 10))
		assert.Equal(t, "abc", gamedex.TruncateText("abc", 3))
	})

	t.Run("cuts on a byte boundary for ASCII", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "abcde", gamedex.TruncateText("abcdefgh", 5))
	})

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		t.Parallel()

		s := "héllo wörld – ünïcode"
		for max := 0; max <= len(s); max++ {
			got := gamedex.TruncateText(s, max)
			assert.True(t, utf8.ValidString(got), "max=%d got=%q", max, got)
			assert.LessOrEqual(t, len(got), max)
		}
	})
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, gamedex.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, gamedex.StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, gamedex.StripCodeFence(`{"a":1}`))
}

func TestParseRecordJSON(t *testing.T) {
	t.Parallel()

	t.Run("parses fenced response", func(t *testing.T) {
		t.Parallel()

		raw := "```json\n" + `{
			"game_name": "Sample Game",
			"version": "1.0",
			"developer": "Dev",
			"tags": ["vn", "rpg"],
			"download_links": [
				{"url": "https://mega.nz/file/abc", "platform": "PC"},
				{"url": "not-a-url"}
			]
		}` + "\n```"

		rec, err := gamedex.ParseRecordJSON(raw, "https://f95zone.to/threads/x.1/")
		require.NoError(t, err)

		assert.Equal(t, "Sample Game", rec.Name)
		assert.Equal(t, "1.0", rec.Version)
		assert.Equal(t, []string{"vn", "rpg"}, rec.Tags)
		require.Len(t, rec.Links, 1, "malformed link URLs are dropped")
		assert.Equal(t, "MEGA", rec.Links[0].Provider, "provider derived from host when absent")
	})

	t.Run("unparseable response is an extraction error", func(t *testing.T) {
		t.Parallel()

		_, err := gamedex.ParseRecordJSON("here is your data: Sample Game", "https://f95zone.to/threads/x.1/")
		require.Error(t, err)
		assert.Equal(t, gamedex.EEXTRACTION, gamedex.ErrorCode(err))
	})
}

func TestNormalizeRecord(t *testing.T) {
	t.Parallel()

	t.Run("defaults every field independently", func(t *testing.T) {
		t.Parallel()

		rec := gamedex.NormalizeRecord(nil, "https://f95zone.to/threads/x.1/")

		assert.Equal(t, gamedex.DefaultName, rec.Name)
		assert.NotNil(t, rec.Tags)
		assert.NotNil(t, rec.Links)
		assert.Equal(t, "https://f95zone.to/threads/x.1/", rec.SourceURL)
		assert.NoError(t, rec.Validate())
	})

	t.Run("caps description length", func(t *testing.T) {
		t.Parallel()

		rec := &gamedex.GameRecord{
			Name:        "Game",
			Description: strings.Repeat("x", gamedex.MaxDescriptionLen+500),
		}
		out := gamedex.NormalizeRecord(rec, "https://f95zone.to/threads/x.1/")

		assert.Len(t, out.Description, gamedex.MaxDescriptionLen)
	})

	t.Run("refilters link URLs and fills defaults", func(t *testing.T) {
		t.Parallel()

		rec := &gamedex.GameRecord{
			Name: "Game",
			Links: []gamedex.DownloadLink{
				{URL: "https://pixeldrain.com/u/abc"},
				{URL: "mailto:dev@example.com"},
			},
		}
		out := gamedex.NormalizeRecord(rec, "https://f95zone.to/threads/x.1/")

		require.Len(t, out.Links, 1)
		assert.Equal(t, "Pixeldrain", out.Links[0].Provider)
		assert.Equal(t, "PC", out.Links[0].Platform)
	})

	t.Run("drops malformed cover URL", func(t *testing.T) {
		t.Parallel()

		rec := &gamedex.GameRecord{Name: "Game", CoverURL: "img/cover.png"}
		out := gamedex.NormalizeRecord(rec, "https://f95zone.to/threads/x.1/")

		assert.Empty(t, out.CoverURL)
	})
}
