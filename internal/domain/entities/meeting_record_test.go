package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingRecord_UnmarshalNeverFailsOnFieldTypes(t *testing.T) {
	var rec MeetingRecord
	err := json.Unmarshal([]byte(`{
		"meetingTitle": {"a": [1, {"b": null}]},
		"meetingDate": null,
		"attendees": 7,
		"apologies": null,
		"majorProjects": ["A", null, 3.5, false, {"owner": "Ann"}]
	}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, NewText("A: 1"), rec.MeetingTitle)
	assert.False(t, rec.MeetingDate.Valid)
	assert.Equal(t, NewTextList("7"), rec.Attendees)
	assert.False(t, rec.Apologies.Valid)
	assert.Equal(t, []string{"A", "", "3.5", "false", "Owner: Ann"}, rec.MajorProjects.Items)
}

func TestMeetingRecord_MarshalKeepsSchema(t *testing.T) {
	rec := MeetingRecord{
		MeetingTitle: NewText("Budget Review"),
		Attendees:    NewTextList("A. Murphy"),
		Apologies:    TextList{Valid: true},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Budget Review", raw[FieldMeetingTitle])
	assert.Equal(t, []any{"A. Murphy"}, raw[FieldAttendees])
	assert.Equal(t, []any{}, raw[FieldApologies])
	assert.Nil(t, raw[FieldLocation])

	var back MeetingRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.MeetingTitle, back.MeetingTitle)
	assert.Equal(t, rec.Attendees, back.Attendees)
}

func TestPrettifyKey(t *testing.T) {
	tests := map[string]string{
		"assignedTo":     "Assigned To",
		"due_date":       "Due Date",
		"task":           "Task",
		"followUp2Notes": "Follow Up2 Notes",
	}
	for in, want := range tests {
		assert.Equal(t, want, PrettifyKey(in), in)
	}
}
