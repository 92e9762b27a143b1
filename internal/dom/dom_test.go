package dom

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := Parse(raw)
	require.NoError(t, err)
	return doc
}

func TestSelectorIsUniqueAndRanked(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<button id="book-now">Book</button>
		<button data-testid="cta">Book</button>
		<input name="guests">
		<a class="btn btn-primary" href="/a">A</a>
		<a class="btn" href="/b">B</a>
		<ul><li>One</li><li><span>Two</span></li></ul>
		<div id="1bad"><p>x</p><p>y</p></div>
	</body></html>`)

	testCases := []struct {
		find string
		want string
		spec int
	}{
		{"#book-now", "#book-now", RankID},
		{"[data-testid]", `button[data-testid="cta"]`, RankData},
		{"input", `input[name="guests"]`, RankName},
		{"a.btn-primary", "a.btn.btn-primary", RankClass},
		{`a[href="/b"]`, `a[href="/b"]`, RankClass},
		{"li span", "body > ul:nth-child(6) > li:nth-child(2) > span:nth-child(1)", RankPath},
	}
	for _, tc := range testCases {
		t.Run(tc.find, func(t *testing.T) {
			got, spec := Selector(doc, doc.Find(tc.find))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.spec, spec)
			assert.Equal(t, 1, doc.Find(got).Length(), "selector must match exactly one node")
		})
	}
}

func TestSelectorEscapesAttributeValues(t *testing.T) {
	doc := mustParse(t, `<body><button data-action='say "hi"'>Hi</button><button data-action="x">X</button></body>`)
	got, spec := Selector(doc, doc.Find("button").First())
	assert.Equal(t, RankData, spec)
	assert.Equal(t, 1, doc.Find(got).Length())
}

func TestVisible(t *testing.T) {
	doc := mustParse(t, `<body>
		<div id="shown"><a id="a1">ok</a></div>
		<div style="display: none"><a id="a2">x</a></div>
		<div class="modal d-none"><a id="a3">x</a></div>
		<div aria-hidden="true"><a id="a4">x</a></div>
		<input id="a5" type="hidden">
		<section hidden><a id="a6">x</a></section>
		<a id="a7" class="hiddenish">fine</a>
	</body>`)
	assert.True(t, Visible(doc.Find("#a1")))
	for _, id := range []string{"#a2", "#a3", "#a4", "#a5", "#a6"} {
		assert.False(t, Visible(doc.Find(id)), id)
	}
	assert.True(t, Visible(doc.Find("#a7")))
	assert.False(t, Visible(doc.Find("#missing")))
}

func TestEnabled(t *testing.T) {
	doc := mustParse(t, `<body>
		<button id="b1">Go</button>
		<button id="b2" disabled>Go</button>
		<button id="b3" aria-disabled="true">Go</button>
		<table><tr>
			<td id="b4" class="day day--sold-out">5</td>
			<td id="b5" class="day past">4</td>
			<td id="b6" class="day pastel">6</td>
		</tr></table>
	</body>`)
	assert.True(t, Enabled(doc.Find("#b1")))
	assert.False(t, Enabled(doc.Find("#b2")))
	assert.False(t, Enabled(doc.Find("#b3")))
	assert.False(t, Enabled(doc.Find("#b4")))
	assert.False(t, Enabled(doc.Find("#b5")))
	assert.True(t, Enabled(doc.Find("#b6")))
	require.Equal(t, 3, doc.Find("td").Length())
}

func TestLabelFallbacks(t *testing.T) {
	doc := mustParse(t, `<body>
		<button id="t"> Book
			now </button>
		<input id="v" type="submit" value="Continue">
		<button id="aria" aria-label="Close dialog"></button>
		<a id="img" href="/"><img alt="Book a party"></a>
	</body>`)
	assert.Equal(t, "Book now", Label(doc.Find("#t")))
	assert.Equal(t, "Continue", Label(doc.Find("#v")))
	assert.Equal(t, "Close dialog", Label(doc.Find("#aria")))
	assert.Equal(t, "Book a party", Label(doc.Find("#img")))
}

func TestTitleBodyTextAndAttributes(t *testing.T) {
	doc := mustParse(t, `<html><head><title> Venue </title></head><body>
		<div id="w" class="booking-widget" data-venue="9">
			<script>var x = 1;</script>
			<span id="s" data-product-id="42" data-x="y">Hello</span>
		</div>
	</body></html>`)
	assert.Equal(t, "Venue", Title(doc))
	assert.Equal(t, "Hello", BodyText(doc))
	assert.Equal(t, map[string]string{"data-product-id": "42", "data-x": "y"}, DataAttributes(doc.Find("#s")))
	assert.Nil(t, DataAttributes(doc.Find("#w script")))
	assert.Equal(t, "w booking-widget data-venue", AncestorSignature(doc.Find("#s"), 1))
	assert.True(t, Contains(doc.Find("#w"), doc.Find("#s")))
	assert.False(t, Contains(doc.Find("#s"), doc.Find("#w")))

	noTitle := mustParse(t, `<body><h1>Parties</h1></body>`)
	assert.Equal(t, "Parties", Title(noTitle))
}

func TestTextSeparatesBlocks(t *testing.T) {
	doc := mustParse(t, `<body><header>Home</header><h1>Booking confirmed</h1><p>Ref <b>XY</b>12</p><ul><li>Lane</li><li>Shoes</li></ul><script>x()</script><button>Done</button></body>`)
	assert.Equal(t, "Home Booking confirmed Ref XY12 Lane Shoes Done", BodyText(doc))
	assert.Equal(t, "Lane Shoes", Text(doc.Find("ul")))
	assert.Equal(t, "Lane Shoes", Text(doc.Find("li")))
	assert.Empty(t, Text(doc.Find("#missing")))
}
