package minutes

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 5, 9, 7, 0, 0, time.UTC)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return NewRenderer(BuiltinDefaults(), WithClock(func() time.Time { return fixedNow }))
}

// sectionBody returns the text between a heading line and the next divider
func sectionBody(t *testing.T, doc, heading string) string {
	t.Helper()
	idx := strings.Index(doc, heading+"\n")
	require.NotEqual(t, -1, idx, "heading %q not found", heading)
	rest := doc[idx+len(heading)+1:]
	end := strings.Index(rest, Divider)
	require.NotEqual(t, -1, end, "no divider after %q", heading)
	return rest[:end]
}

func bulletLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, Bullet) {
			out = append(out, line)
		}
	}
	return out
}

func TestRender_TotalOverArbitraryInput(t *testing.T) {
	r := newTestRenderer(t)

	inputs := []string{
		``,
		`null`,
		`[]`,
		`"just a string"`,
		`not json at all`,
		`{"meetingTitle": `,
		`{}`,
		`{"meetingTitle": null, "attendees": null, "apologies": "", "majorProjects": [null, ""]}`,
		`{"meetingTitle": "Not mentioned", "location": "Not mentioned", "attendees": "Not mentioned", "riskRegister": ["Not mentioned"]}`,
		`{"meetingTitle": {"nested": {"deep": [1, 2]}}, "attendees": {"a": 1}, "financeUpdate": 12.5, "healthAndSafety": true}`,
		`{"unrelatedKey": "ignored", "anyOtherBusiness": [[1, 2], {"x": null}]}`,
	}

	for _, in := range inputs {
		doc := r.RenderJSON(in)
		assert.True(t, strings.HasPrefix(doc, DocumentTitle+"\n"), "input %q", in)
		for _, heading := range SectionHeadings {
			assert.Contains(t, doc, "\n"+heading+"\n", "input %q", in)
		}
		assert.Contains(t, doc, "Minutes Approved By:")
	}
}

func TestRender_EmptyRecordUsesDefaults(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{}`)

	assert.Contains(t, doc, "Meeting Title: Capital & Estates Meeting\n")
	assert.Contains(t, doc, "Date: 05/03/2026\n")
	assert.Contains(t, doc, "Time: 09:07 - 09:07\n")
	assert.Contains(t, doc, "Location: Not mentioned\n")
	assert.Contains(t, doc, "Chairperson: Not mentioned\n")
	assert.Contains(t, doc, "Minute Taker: Not mentioned\n")
	assert.Contains(t, doc, "Date of Previous Meeting: Not mentioned\n")
	assert.Contains(t, doc, "Date of Next Meeting: Not mentioned\n")
	assert.Contains(t, doc, "Meeting Closed: Not mentioned\n")
	assert.Contains(t, doc, "Prepared By: Not mentioned\n")
	assert.Contains(t, doc, "Date Prepared: 05/03/2026\n")

	assert.Equal(t, "None declared.\n", sectionBody(t, doc, "3. Declarations of Interest"))
	assert.Equal(t, "Not mentioned\n", sectionBody(t, doc, "5. Estates Strategy"))
	assert.NotContains(t, doc, Bullet)
}

func TestRender_SentinelIsTreatedAsMissing(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{
		"meetingTitle": "Not mentioned",
		"declarationsOfInterest": "Not mentioned",
		"startTime": "   ",
		"riskRegister": ["Not mentioned", "  "]
	}`)

	assert.Contains(t, doc, "Meeting Title: Capital & Estates Meeting\n")
	assert.Contains(t, doc, "Time: 09:07 - 09:07\n")
	assert.Equal(t, "None declared.\n", sectionBody(t, doc, "3. Declarations of Interest"))
	assert.Equal(t, "Not mentioned\n", sectionBody(t, doc, "7. Risk Register"))
}

func TestRender_SentinelMatchIsCaseSensitive(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"location": "not mentioned"}`)
	assert.Contains(t, doc, "Location: not mentioned\n")
}

func TestRender_BulletsDropEmptyAndNullItems(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"majorProjects": ["Project A", "", null, "Project B"]}`)

	body := sectionBody(t, doc, "4. Capital Projects")
	major := body[strings.Index(body, "Major Projects:\n")+len("Major Projects:\n") : strings.Index(body, "Minor Projects:\n")]
	assert.Equal(t, []string{"• Project A", "• Project B"}, bulletLines(major))
}

func TestRender_BareStringBecomesSingleBullet(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"attendees": "Jane Doe"}`)

	body := sectionBody(t, doc, "1. Attendance")
	present := body[:strings.Index(body, "Apologies:\n")]
	assert.Equal(t, []string{"• Jane Doe"}, bulletLines(present))
}

func TestRender_EmptyListFallsBackToPlaceholder(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"apologies": []}`)

	body := sectionBody(t, doc, "1. Attendance")
	apologies := body[strings.Index(body, "Apologies:\n")+len("Apologies:\n"):]
	assert.Equal(t, "Not mentioned\n", apologies)
	assert.NotContains(t, apologies, "•")
}

func TestRender_EndToEnd(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"meetingTitle": "Budget Review", "attendees": ["A. Murphy"], "majorProjects": []}`)

	lines := strings.Split(doc, "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "Meeting Title: Budget Review", lines[1])

	assert.Contains(t, sectionBody(t, doc, "1. Attendance"), "• A. Murphy\n")
	assert.Contains(t, sectionBody(t, doc, "4. Capital Projects"), "Major Projects:\nNot mentioned\n")
}

func TestRender_SectionOrderAndDividers(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{}`)

	last := -1
	for _, heading := range SectionHeadings {
		idx := strings.Index(doc, "\n"+heading+"\n")
		require.Greater(t, idx, last, "heading %q out of order", heading)
		last = idx
	}

	// header divider plus one after each section
	assert.Equal(t, len(SectionHeadings)+1, strings.Count(doc, Divider+"\n"))
	assert.Len(t, Divider, 50)
}

func TestRender_ObjectItemsAreProjected(t *testing.T) {
	doc := newTestRenderer(t).RenderJSON(`{"anyOtherBusiness": [{"task": "Book room", "assigned_to": "Admin", "dueDate": "2026-01-01"}]}`)

	assert.Equal(t,
		[]string{"• Task: Book room, Assigned To: Admin, Due Date: 2026-01-01"},
		bulletLines(sectionBody(t, doc, "9. Any Other Business")),
	)
}

func TestRender_FencedResponse(t *testing.T) {
	raw := "Here are the minutes:\n```json\n{\"meetingTitle\": \"Estates Board\", \"location\": \"Room 4\"}\n```\nThanks!"
	doc := newTestRenderer(t).RenderJSON(raw)

	assert.Contains(t, doc, "Meeting Title: Estates Board\n")
	assert.Contains(t, doc, "Location: Room 4\n")
}

func TestRender_CustomDefaults(t *testing.T) {
	defaults, err := ParseDefaults([]byte(`
placeholder: None recorded
fields:
  meetingTitle: Meeting
  startTime: "TBC"
`))
	require.NoError(t, err)

	r := NewRenderer(defaults, WithClock(func() time.Time { return fixedNow }))
	doc := r.RenderJSON(`{"apologies": []}`)

	assert.Contains(t, doc, "Meeting Title: Meeting\n")
	assert.Contains(t, doc, "Time: TBC - 09:07\n")
	assert.Contains(t, doc, "Location: None recorded\n")
	assert.Equal(t, "None declared.\n", sectionBody(t, doc, "3. Declarations of Interest"))
	assert.Contains(t, sectionBody(t, doc, "1. Attendance"), "Apologies:\nNone recorded\n")
}

func TestRender_IsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	in := `{"meetingTitle": "Budget Review", "riskRegister": ["R1", "R2"]}`
	assert.Equal(t, r.RenderJSON(in), r.RenderJSON(in))
}
