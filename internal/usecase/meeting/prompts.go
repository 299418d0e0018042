package meeting

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
)

type promptField struct {
	key  string
	hint string
}

// Keys requested from the extraction call, in template order
var extractionFields = []promptField{
	{entities.FieldMeetingTitle, `string, e.g. "Capital & Estates Meeting"`},
	{entities.FieldMeetingDate, `string, "DD/MM/YYYY"`},
	{entities.FieldStartTime, `string, 24-hour "HH:MM"`},
	{entities.FieldEndTime, `string, 24-hour "HH:MM"`},
	{entities.FieldLocation, "string"},
	{entities.FieldChairperson, "string"},
	{entities.FieldMinuteTaker, "string"},
	{entities.FieldAttendees, "list of strings, people present"},
	{entities.FieldApologies, "list of strings, people who sent apologies"},
	{entities.FieldPreviousMeetingDate, `string, "DD/MM/YYYY"`},
	{entities.FieldMattersArising, "list of strings, matters arising from the previous minutes"},
	{entities.FieldDeclarationsOfInterest, "string"},
	{entities.FieldMajorProjects, "list of strings, one entry per major capital project with status and budget (include currency symbols)"},
	{entities.FieldMinorProjects, "list of strings, one entry per minor capital project"},
	{entities.FieldEstatesStrategy, "list of strings"},
	{entities.FieldHealthAndSafety, "list of strings"},
	{entities.FieldRiskRegister, "list of strings"},
	{entities.FieldFinanceUpdate, "list of strings, include currency symbols for amounts"},
	{entities.FieldAnyOtherBusiness, "list of strings"},
	{entities.FieldNextMeetingDate, `string, "DD/MM/YYYY"`},
	{entities.FieldMeetingClosedTime, `string, 24-hour "HH:MM"`},
	{entities.FieldPreparedBy, "string"},
	{entities.FieldPreparationDate, `string, "DD/MM/YYYY"`},
}

// ExtractionPrompt asks for the structured meeting record as one JSON object
func ExtractionPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant that writes formal minutes for public sector capital and estates meetings.\n")
	b.WriteString("Extract detailed, structured information from the meeting transcript below.\n")
	b.WriteString("Format the output as a single, valid JSON object with exactly the following keys.\n")
	fmt.Fprintf(&b, "If a piece of information is not mentioned in the transcript, use the string %q.\n\n", minutes.DefaultSentinel)
	b.WriteString("Keys to include:\n")
	for _, f := range extractionFields {
		fmt.Fprintf(&b, "- %q: (%s)\n", f.key, f.hint)
	}
	b.WriteString("\nTranscript:\n---\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n\n")
	b.WriteString("Provide ONLY the JSON object in your response. Do not include any other text before or after the JSON.\n")
	return b.String()
}

// NarrativePrompt asks for a prose summary of the meeting
func NarrativePrompt(transcript string) string {
	return "You are an AI assistant tasked with creating a professional meeting summary.\n" +
		"Based on the following transcript, write a coherent, narrative summary of the meeting.\n" +
		"The summary should be well-organized, easy to read, and capture the main points, discussions, and outcomes.\n" +
		"Maintain a formal and objective tone suitable for meeting minutes.\n" +
		"Do not include speaker labels unless essential for context.\n\n" +
		"Transcript:\n---\n" + transcript + "\n---\n\nNarrative Summary:\n"
}

// BriefPrompt asks for decisions and action items only
func BriefPrompt(transcript string) string {
	return "You are an AI assistant preparing a briefing note.\n" +
		"Summarise the key outcomes, decisions made, and critical action items from the following meeting transcript.\n" +
		"The summary should be very concise, ideally under 200 words, in a bullet-point or short paragraph format.\n" +
		"Focus strictly on actionable information and final decisions.\n\n" +
		"Transcript:\n---\n" + transcript + "\n---\n\nBrief Summary (Decisions & Actions):\n"
}

// ChatPrompt frames a question about the transcript with the prior conversation
func ChatPrompt(transcript string, history []entities.ChatMessage, question string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant answering questions about a meeting.\n")
	b.WriteString("Answer using only the transcript below. If the transcript does not contain the answer, say so plainly.\n\n")
	b.WriteString("Transcript:\n---\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n\n")

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(msg.Role), msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s\nAssistant:", question)
	return b.String()
}

func roleLabel(role entities.ChatRole) string {
	if role == entities.ChatRoleAssistant {
		return "Assistant"
	}
	return "User"
}
