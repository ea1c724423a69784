package pagedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/pagedata"
)

const page = `<html><head><title>Guide to Internal Links</title><script>var x = "not words";</script></head>
<body>
<h1>Internal links</h1>
<p>Internal links help search engines crawl.</p>
<h2>Why</h2>
<img src="a.png" alt="diagram"><img src="b.png">
<a href="/pricing">pricing</a>
<a href="https://www.example.com/blog">blog</a>
<a href="https://other.org/">other</a>
<a href="mailto:hi@example.com">mail</a>
<a href="#top">top</a>
</body></html>`

func TestExtract(t *testing.T) {
	pd, text, err := pagedata.Extract(page, "https://example.com/guide")
	require.NoError(t, err)

	assert.Equal(t, 2, pd.HeadingCount)
	assert.Equal(t, 1, pd.H1Count)
	assert.Equal(t, 2, pd.ImageCount)
	assert.Equal(t, 1, pd.ImagesMissingAlt)
	assert.Equal(t, 2, pd.InternalLinks)
	assert.Equal(t, 1, pd.ExternalLinks)
	assert.Equal(t, 3, pd.LinkCount())
	assert.NotContains(t, text, "not words")
	assert.Equal(t, 14, pd.WordCount)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Guide to Internal Links", pagedata.Title(page))
	assert.Equal(t, "Fallback", pagedata.Title("<body><h1> Fallback </h1></body>"))
}
