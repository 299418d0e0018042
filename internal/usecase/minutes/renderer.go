package minutes

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

const (
	// Divider separates the header and every numbered section
	Divider = "__________________________________________________"
	// Bullet prefixes each rendered list item
	Bullet = "• "

	// DocumentTitle is the first line of every rendered document
	DocumentTitle = "MEETING MINUTES"

	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// SectionHeadings lists the numbered section headings in render order
var SectionHeadings = []string{
	"1. Attendance",
	"2. Previous Meeting",
	"3. Declarations of Interest",
	"4. Capital Projects",
	"5. Estates Strategy",
	"6. Health & Safety",
	"7. Risk Register",
	"8. Finance Update",
	"9. Any Other Business",
	"10. Next Meeting",
}

// Renderer turns a meeting record into the fixed minutes template.
// It holds no per-call state and is safe for concurrent use.
type Renderer struct {
	defaults Defaults
	now      func() time.Time
}

// Option configures a Renderer
type Option func(*Renderer)

// WithClock overrides the clock used for date and time defaults
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a renderer with the given placeholder table
func NewRenderer(defaults Defaults, opts ...Option) *Renderer {
	if defaults.Sentinel == "" && defaults.Placeholder == "" && defaults.Fields == nil {
		defaults = BuiltinDefaults()
	}
	if defaults.Placeholder == "" {
		defaults.Placeholder = DefaultPlaceholder
	}

	r := &Renderer{
		defaults: defaults,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Defaults returns the placeholder table in use
func (r *Renderer) Defaults() Defaults {
	return r.defaults
}

// RenderJSON decodes a raw extraction response and renders it. Never fails.
func (r *Renderer) RenderJSON(raw string) string {
	return r.Render(DecodeRecord([]byte(ExtractJSON(raw))))
}

// Render produces the minutes document for rec. Never fails.
func (r *Renderer) Render(rec entities.MeetingRecord) string {
	now := r.now()
	var b strings.Builder

	b.WriteString(DocumentTitle + "\n")
	fmt.Fprintf(&b, "Meeting Title: %s\n", r.get(entities.FieldMeetingTitle, rec.MeetingTitle, now))
	fmt.Fprintf(&b, "Date: %s\n", r.get(entities.FieldMeetingDate, rec.MeetingDate, now))
	fmt.Fprintf(&b, "Time: %s - %s\n",
		r.get(entities.FieldStartTime, rec.StartTime, now),
		r.get(entities.FieldEndTime, rec.EndTime, now),
	)
	fmt.Fprintf(&b, "Location: %s\n", r.get(entities.FieldLocation, rec.Location, now))
	fmt.Fprintf(&b, "Chairperson: %s\n", r.get(entities.FieldChairperson, rec.Chairperson, now))
	fmt.Fprintf(&b, "Minute Taker: %s\n", r.get(entities.FieldMinuteTaker, rec.MinuteTaker, now))
	b.WriteString(Divider + "\n\n")

	r.section(&b, 0, func() {
		b.WriteString("Present:\n")
		b.WriteString(r.bullets(entities.FieldAttendees, rec.Attendees))
		b.WriteString("Apologies:\n")
		b.WriteString(r.bullets(entities.FieldApologies, rec.Apologies))
	})
	r.section(&b, 1, func() {
		fmt.Fprintf(&b, "Date of Previous Meeting: %s\n", r.get(entities.FieldPreviousMeetingDate, rec.PreviousMeetingDate, now))
		b.WriteString("Matters Arising:\n")
		b.WriteString(r.bullets(entities.FieldMattersArising, rec.MattersArising))
	})
	r.section(&b, 2, func() {
		b.WriteString(r.get(entities.FieldDeclarationsOfInterest, rec.DeclarationsOfInterest, now) + "\n")
	})
	r.section(&b, 3, func() {
		b.WriteString("Major Projects:\n")
		b.WriteString(r.bullets(entities.FieldMajorProjects, rec.MajorProjects))
		b.WriteString("Minor Projects:\n")
		b.WriteString(r.bullets(entities.FieldMinorProjects, rec.MinorProjects))
	})
	r.section(&b, 4, func() {
		b.WriteString(r.bullets(entities.FieldEstatesStrategy, rec.EstatesStrategy))
	})
	r.section(&b, 5, func() {
		b.WriteString(r.bullets(entities.FieldHealthAndSafety, rec.HealthAndSafety))
	})
	r.section(&b, 6, func() {
		b.WriteString(r.bullets(entities.FieldRiskRegister, rec.RiskRegister))
	})
	r.section(&b, 7, func() {
		b.WriteString(r.bullets(entities.FieldFinanceUpdate, rec.FinanceUpdate))
	})
	r.section(&b, 8, func() {
		b.WriteString(r.bullets(entities.FieldAnyOtherBusiness, rec.AnyOtherBusiness))
	})
	r.section(&b, 9, func() {
		fmt.Fprintf(&b, "Date of Next Meeting: %s\n", r.get(entities.FieldNextMeetingDate, rec.NextMeetingDate, now))
	})

	fmt.Fprintf(&b, "Meeting Closed: %s\n", r.get(entities.FieldMeetingClosedTime, rec.MeetingClosedTime, now))
	fmt.Fprintf(&b, "Prepared By: %s\n", r.get(entities.FieldPreparedBy, rec.PreparedBy, now))
	fmt.Fprintf(&b, "Date Prepared: %s\n", r.get(entities.FieldPreparationDate, rec.PreparationDate, now))
	b.WriteString("\nMinutes Approved By: ____________________  Date: ____________\n")

	return b.String()
}

func (r *Renderer) section(b *strings.Builder, idx int, body func()) {
	b.WriteString(SectionHeadings[idx] + "\n")
	body()
	b.WriteString(Divider + "\n\n")
}

// get resolves a scalar field, substituting its default when missing
func (r *Renderer) get(field string, value entities.Text, now time.Time) string {
	if value.Valid && !r.defaults.isMissing(value.Value) {
		return value.Value
	}
	return r.fallback(field, now)
}

// bullets renders surviving list items one per line, or the field default
func (r *Renderer) bullets(field string, list entities.TextList) string {
	var b strings.Builder
	if list.Valid {
		for _, item := range list.Items {
			if r.defaults.isMissing(item) {
				continue
			}
			b.WriteString(Bullet + item + "\n")
		}
	}
	if b.Len() == 0 {
		return r.fallback(field, time.Time{}) + "\n"
	}
	return b.String()
}

func (r *Renderer) fallback(field string, now time.Time) string {
	if v, ok := r.defaults.Fields[field]; ok && v != "" {
		return v
	}

	switch field {
	case entities.FieldMeetingDate, entities.FieldPreparationDate:
		return now.Format(dateLayout)
	case entities.FieldStartTime, entities.FieldEndTime:
		return now.Format(timeLayout)
	}
	return r.defaults.Placeholder
}
