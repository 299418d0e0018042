package entities

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record field keys as they appear in the extraction JSON
const (
	FieldMeetingTitle           = "meetingTitle"
	FieldMeetingDate            = "meetingDate"
	FieldStartTime              = "startTime"
	FieldEndTime                = "endTime"
	FieldLocation               = "location"
	FieldChairperson            = "chairperson"
	FieldMinuteTaker            = "minuteTaker"
	FieldPreviousMeetingDate    = "previousMeetingDate"
	FieldDeclarationsOfInterest = "declarationsOfInterest"
	FieldNextMeetingDate        = "nextMeetingDate"
	FieldMeetingClosedTime      = "meetingClosedTime"
	FieldPreparedBy             = "preparedBy"
	FieldPreparationDate        = "preparationDate"

	FieldAttendees        = "attendees"
	FieldApologies        = "apologies"
	FieldMattersArising   = "mattersArising"
	FieldMajorProjects    = "majorProjects"
	FieldMinorProjects    = "minorProjects"
	FieldEstatesStrategy  = "estatesStrategy"
	FieldHealthAndSafety  = "healthAndSafety"
	FieldRiskRegister     = "riskRegister"
	FieldFinanceUpdate    = "financeUpdate"
	FieldAnyOtherBusiness = "anyOtherBusiness"
)

// Text is an optional scalar field of the meeting record.
// Decoding never fails: values that cannot be read as text leave it unset.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a set Text
func NewText(v string) Text {
	return Text{Value: v, Valid: true}
}

// UnmarshalJSON accepts strings, numbers, booleans and arrays of scalars
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	if s, ok := scalarText(data); ok {
		*t = Text{Value: s, Valid: true}
	}
	return nil
}

// MarshalJSON writes null for an unset field
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// TextList is an optional list field of the meeting record.
// A bare scalar is coerced to a one-element list.
type TextList struct {
	Items []string
	Valid bool
}

// NewTextList returns a set TextList
func NewTextList(items ...string) TextList {
	return TextList{Items: items, Valid: true}
}

// UnmarshalJSON accepts arrays (of strings, scalars or objects) and bare scalars
func (l *TextList) UnmarshalJSON(data []byte) error {
	*l = TextList{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n':
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			s, _ := itemText(item)
			items = append(items, s)
		}
		*l = TextList{Items: items, Valid: true}
	default:
		if s, ok := itemText(data); ok {
			*l = TextList{Items: []string{s}, Valid: true}
		}
	}
	return nil
}

// MarshalJSON writes null for an unset list
func (l TextList) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	items := l.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

// MeetingRecord is the structured record extracted from a transcript.
// Every field is optional.
type MeetingRecord struct {
	MeetingTitle           Text `json:"meetingTitle"`
	MeetingDate            Text `json:"meetingDate"`
	StartTime              Text `json:"startTime"`
	EndTime                Text `json:"endTime"`
	Location               Text `json:"location"`
	Chairperson            Text `json:"chairperson"`
	MinuteTaker            Text `json:"minuteTaker"`
	PreviousMeetingDate    Text `json:"previousMeetingDate"`
	DeclarationsOfInterest Text `json:"declarationsOfInterest"`
	NextMeetingDate        Text `json:"nextMeetingDate"`
	MeetingClosedTime      Text `json:"meetingClosedTime"`
	PreparedBy             Text `json:"preparedBy"`
	PreparationDate        Text `json:"preparationDate"`

	Attendees        TextList `json:"attendees"`
	Apologies        TextList `json:"apologies"`
	MattersArising   TextList `json:"mattersArising"`
	MajorProjects    TextList `json:"majorProjects"`
	MinorProjects    TextList `json:"minorProjects"`
	EstatesStrategy  TextList `json:"estatesStrategy"`
	HealthAndSafety  TextList `json:"healthAndSafety"`
	RiskRegister     TextList `json:"riskRegister"`
	FinanceUpdate    TextList `json:"financeUpdate"`
	AnyOtherBusiness TextList `json:"anyOtherBusiness"`
}

// scalarText reads a JSON value as a single line of text
func scalarText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false
	}

	switch data[0] {
	case 'n':
		return "", false
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return "", false
		}
		parts := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := itemText(item); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	default:
		return itemText(data)
	}
}

// itemText reads one list element. Objects are projected to "Key: value" pairs.
func itemText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return "", false
		}
		if b {
			return "true", true
		}
		return "false", true
	case '{':
		s := projectObject(data)
		return s, s != ""
	case '[':
		return scalarText(data)
	case 'n':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// projectObject flattens an object in source key order
func projectObject(data []byte) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}

	var parts []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := tok.(string)
		if !ok {
			break
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			break
		}
		text, ok := scalarText(value)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, PrettifyKey(key)+": "+text)
	}
	return strings.Join(parts, ", ")
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// PrettifyKey turns "assignedTo" or "due_date" into "Assigned To" / "Due Date"
func PrettifyKey(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	key = camelBoundary.ReplaceAllString(key, "$1 $2")
	return cases.Title(language.English).String(strings.TrimSpace(key))
}
