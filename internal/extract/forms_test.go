package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

func TestFormFields(t *testing.T) {
	doc := parse(t, `<body><form>
		<label for="fn">First name *</label><input id="fn" name="first_name" required>
		<label for="em">Email</label><input id="em" type="email" name="email" aria-required="true">
		<input type="hidden" name="token" value="x">
		<select name="source" aria-label="How did you hear about us">
			<option value="">Pick one</option>
			<option value="web">Web</option>
			<option value="friend">Friend</option>
		</select>
		<fieldset><legend>Occasion</legend>
			<label><input type="radio" name="occasion" value="b"> Birthday</label>
			<label><input type="radio" name="occasion" value="c"> Corporate</label>
		</fieldset>
		<textarea name="notes" placeholder="Anything else?"></textarea>
		<button type="submit">Send</button>
	</form></body>`)

	want := []model.FormField{
		{Name: "first_name", Label: "First name", Type: "text", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "source", Label: "How did you hear about us", Type: "select", Options: []string{"Web", "Friend"}},
		{Name: "occasion", Label: "Occasion", Type: "radio", Options: []string{"Birthday", "Corporate"}},
		{Name: "notes", Label: "Anything else?", Type: "textarea"},
	}
	got := FormFields(doc)
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(model.FormField{}, "Selector")); diff != "" {
		t.Errorf("FormFields mismatch (-want +got):\n%s", diff)
	}
	for _, f := range got {
		assert.Equal(t, 1, doc.Find(f.Selector).Length(), f.Name)
	}
	assert.Equal(t, "#fn", got[0].Selector)
}

func TestAddOns(t *testing.T) {
	doc := parse(t, `<body>
		<h2>Optional extras</h2>
		<ul>
			<li><label><input type="checkbox" name="pizza"> Pizza platter +$45</label></li>
			<li><label><input type="checkbox" name="socks" checked> Grip socks ($4)</label></li>
			<li><label><input type="checkbox" name="terms"> I agree to the terms</label></li>
		</ul>
	</body>`)

	want := []model.AddOn{
		{Name: "Pizza platter", Price: textutil.FloatPtr(45), Category: "food_drink"},
		{Name: "Grip socks", Price: textutil.FloatPtr(4), Category: "equipment", PreSelected: true},
	}
	if diff := cmp.Diff(want, AddOns(doc)); diff != "" {
		t.Errorf("AddOns mismatch (-want +got):\n%s", diff)
	}
}

func TestAddOnsNeedPriceOrContext(t *testing.T) {
	doc := parse(t, `<body><form>
		<label><input type="checkbox" name="news"> Keep me posted</label>
		<label><input type="checkbox" name="photo"> Party photos</label>
	</form></body>`)
	assert.Empty(t, AddOns(doc))
}

func TestAddOnTiles(t *testing.T) {
	doc := parse(t, `<body>
		<div class="upsells">
			<div class="upsell-tile is-selected"><h4>Party host</h4><span>$60</span></div>
			<div class="upsell-tile"><h4>Balloon arch</h4><span>$35</span></div>
		</div>
	</body>`)
	got := AddOns(doc)
	require.Len(t, got, 2)
	assert.Equal(t, "Party host", got[0].Name)
	assert.Equal(t, "service", got[0].Category)
	assert.True(t, got[0].PreSelected)
	assert.Equal(t, "decorations", got[1].Category)
	assert.False(t, got[1].PreSelected)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, "food_drink", AddOnCategory("Hot chips and soft drink"))
	assert.Equal(t, CategoryOther, AddOnCategory("Mystery"))
	assert.Equal(t, "food", InclusionCategory("Pizza for everyone"))
	assert.Equal(t, CategoryOther, InclusionCategory("Smiles"))
}

func TestPricing(t *testing.T) {
	doc := parse(t, `<body><div class="summary"><dl>
		<dt>Price</dt><dd class="price">$30 per person</dd>
		<dt>Total</dt><dd class="total">$300.00</dd>
	</dl></div></body>`)

	want := &model.Pricing{PerPerson: textutil.FloatPtr(30), Total: textutil.FloatPtr(300), Currency: "$"}
	if diff := cmp.Diff(want, Pricing(doc)); diff != "" {
		t.Errorf("Pricing mismatch (-want +got):\n%s", diff)
	}
}

func TestPricingFallsBackToBodyText(t *testing.T) {
	doc := parse(t, `<body><p>Entry from AUD$25 pp, private room 150 AUD</p></body>`)
	p := Pricing(doc)
	require.NotNil(t, p)
	assert.Equal(t, "AUD", p.Currency)
	assert.Equal(t, 25.0, *p.PerPerson)
	assert.Equal(t, 150.0, *p.Base)

	assert.Nil(t, Pricing(parse(t, `<body><p>No prices here</p></body>`)))
}

func TestPerPersonSuffix(t *testing.T) {
	for _, s := range []string{" per person", "pp", " / guest", " each", " per ticket"} {
		assert.True(t, PerPersonSuffix.MatchString(s), s)
	}
	for _, s := range []string{" total", " deposit", "ppl"} {
		assert.False(t, PerPersonSuffix.MatchString(s), s)
	}
}
