package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/v0xg/flowscout/internal/model"
)

func TestDatesFromCalendar(t *testing.T) {
	doc := parse(t, `<body>
		<div class="calendar">
			<table><tr>
				<td><button data-date="2026-11-01" class="day disabled">1</button></td>
				<td><button data-date="2026-11-02" class="day">2</button></td>
				<td><button data-date="2026-11-03" class="day" aria-label="Tuesday 3 November">3</button></td>
			</tr></table>
		</div>
	</body>`)

	want := []model.DateOption{
		{Label: "1", Value: "2026-11-01", Selector: `button[data-date="2026-11-01"]`, Available: false},
		{Label: "2", Value: "2026-11-02", Selector: `button[data-date="2026-11-02"]`, Available: true},
		{Label: "Tuesday 3 November", Value: "2026-11-03", Selector: `button[data-date="2026-11-03"]`, Available: true},
	}
	if diff := cmp.Diff(want, Dates(doc)); diff != "" {
		t.Errorf("Dates mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, HasCalendar(doc))
}

func TestDatesIgnoreNumbersOutsideCalendars(t *testing.T) {
	doc := parse(t, `<body><ul class="steps"><li class="day">1</li><li>2</li></ul></body>`)
	assert.Empty(t, Dates(doc))
	assert.False(t, HasCalendar(doc))
}

func TestDateInput(t *testing.T) {
	doc := parse(t, `<body>
		<label for="visit">Visit date</label>
		<input type="date" id="visit" min="2026-11-01">
	</body>`)

	assert.Equal(t, []model.DateOption{
		{Label: "Visit date", Value: "2026-11-01", Selector: "#visit", Available: true},
	}, Dates(doc))
	assert.True(t, HasCalendar(doc))
}

func TestTimes(t *testing.T) {
	doc := parse(t, `<body>
		<h2>Select a time</h2>
		<div class="slots">
			<button class="slot">10:00 am</button>
			<button class="slot" disabled>11:30 am</button>
			<button class="slot">2pm</button>
			<button class="slot">Gallery</button>
		</div>
	</body>`)

	times := Times(doc)
	var labels []string
	var available []bool
	for _, tm := range times {
		labels = append(labels, tm.Label)
		available = append(available, tm.Available)
		assert.Equal(t, 1, doc.Find(tm.Selector).Length(), tm.Label)
	}
	assert.Equal(t, []string{"10:00 am", "11:30 am", "2pm"}, labels)
	assert.Equal(t, []bool{true, false, true}, available)
}
