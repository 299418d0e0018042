package speaker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       []string
	}{
		{
			name:       "bold and bare labels",
			transcript: "**Dr. Smith**: Good morning.\nSpeaker 2: Thanks.\n",
			want:       []string{"Dr. Smith", "Speaker 2"},
		},
		{
			name:       "deduplicated and sorted",
			transcript: "Speaker B: one\nSpeaker A: two\nSpeaker B: three\n",
			want:       []string{"Speaker A", "Speaker B"},
		},
		{
			name:       "underscore markup and colon inside bold",
			transcript: "__Nurse Jones__: Hello\n**Chair (Acting):** Welcome\n",
			want:       []string{"Chair (Acting)", "Nurse Jones"},
		},
		{
			name:       "mismatched markers rejected",
			transcript: "**Speaker 1__: hi\nSpeaker 2**: hi\n",
			want:       []string{},
		},
		{
			name:       "short prose before a colon is a candidate",
			transcript: "We heard from Speaker 1: nothing new.\n",
			want:       []string{"We heard from Speaker 1"},
		},
		{
			name:       "empty",
			transcript: "",
			want:       []string{},
		},
		{
			name:       "no candidates",
			transcript: "just some prose without any colon\n",
			want:       []string{},
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Detect(tt.transcript))
		})
	}
}

func TestDetect_LengthFilter(t *testing.T) {
	long := strings.Repeat("a", 35)
	transcript := long + ": this line should not count\nSpeaker 1: hi\n"

	assert.Equal(t, []string{"Speaker 1"}, New().Detect(transcript))
	assert.Equal(t, []string{"Speaker 1", long}, New(WithMaxLabelLen(40)).Detect(transcript))

	exactly30 := strings.Repeat("b", 30)
	assert.Empty(t, New().Detect(exactly30+": x\n"))
}

func TestDetect_IsDeterministic(t *testing.T) {
	transcript := "Speaker 3: a\nSpeaker 1: b\n**Speaker 2**: c\n"
	n := New()
	first := n.Detect(transcript)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, n.Detect(transcript))
	}
}

func TestRename_AllForms(t *testing.T) {
	transcript := "Speaker 1: Hello.\n**Speaker 1**: Again.\n__Speaker 1__: Once more.\n  **Speaker 1:** Indented.\nAs **Speaker 1** noted earlier.\n"

	res := New().Rename(transcript, map[string]string{"Speaker 1": "Dr. Smith"})

	assert.Equal(t,
		"Dr. Smith: Hello.\n**Dr. Smith**: Again.\n__Dr. Smith__: Once more.\n  **Dr. Smith:** Indented.\nAs **Dr. Smith** noted earlier.\n",
		res.Text,
	)
	assert.Equal(t, 5, res.Replacements)
	assert.Equal(t, map[string]int{"Speaker 1": 5}, res.PerLabel)
	assert.Equal(t, "Updated 5 references", res.Summary())
}

func TestRename_ThenDetectAndIdempotence(t *testing.T) {
	n := New()
	mapping := map[string]string{"Speaker 1": "Dr. Smith"}
	transcript := "Speaker 1: Good morning.\nSpeaker 2: Morning.\n**Speaker 1**: Let's begin.\n"

	once := n.Rename(transcript, mapping)
	require.True(t, once.Changed())

	labels := n.Detect(once.Text)
	assert.Contains(t, labels, "Dr. Smith")
	assert.NotContains(t, labels, "Speaker 1")

	twice := n.Rename(once.Text, mapping)
	assert.Equal(t, once.Text, twice.Text)
	assert.Zero(t, twice.Replacements)
	assert.Equal(t, "No changes made", twice.Summary())
}

func TestRename_EveryDetectedLabelCanBeRenamed(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{"blank before colon", "Speaker 1 : hello\n", "Dr. Smith : hello\n"},
		{"blank before closing marker", "**Speaker 1 **: hello\n", "**Dr. Smith **: hello\n"},
		{"blank after opening marker", "** Speaker 1**: hello\n", "** Dr. Smith**: hello\n"},
		{"underscore markers", "__ Speaker 1 __: hello\n", "__ Dr. Smith __: hello\n"},
	}
	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, []string{"Speaker 1"}, n.Detect(tt.transcript))

			res := n.Rename(tt.transcript, map[string]string{"Speaker 1": "Dr. Smith"})
			assert.Equal(t, tt.want, res.Text)
			assert.Equal(t, 1, res.Replacements)
			assert.Equal(t, []string{"Dr. Smith"}, n.Detect(res.Text))
		})
	}
}

func TestRename_LeavesProseUntouched(t *testing.T) {
	transcript := "Speaker 2: I agree with what Speaker 1 said.\nSpeaker 1: Thanks.\n"

	res := New().Rename(transcript, map[string]string{"Speaker 1": "Dr. Smith"})

	assert.Equal(t, "Speaker 2: I agree with what Speaker 1 said.\nDr. Smith: Thanks.\n", res.Text)
	assert.Equal(t, 1, res.Replacements)
	assert.Equal(t, "Updated 1 reference", res.Summary())
}

func TestRename_PrefixLabelsDoNotCollide(t *testing.T) {
	transcript := "Speaker 1: a\nSpeaker 10: b\n"

	res := New().Rename(transcript, map[string]string{"Speaker 1": "Ann"})
	assert.Equal(t, "Ann: a\nSpeaker 10: b\n", res.Text)

	res = New().Rename(transcript, map[string]string{"Speaker 1": "Ann", "Speaker 10": "Bob"})
	assert.Equal(t, "Ann: a\nBob: b\n", res.Text)
	assert.Equal(t, map[string]int{"Speaker 1": 1, "Speaker 10": 1}, res.PerLabel)
}

func TestRename_SimultaneousSwap(t *testing.T) {
	transcript := "Speaker A: one\nSpeaker B: two\n"

	res := New().Rename(transcript, map[string]string{"Speaker A": "Speaker B", "Speaker B": "Speaker A"})

	assert.Equal(t, "Speaker B: one\nSpeaker A: two\n", res.Text)
	assert.Equal(t, 2, res.Replacements)
}

func TestRename_IgnoresNoOpEntries(t *testing.T) {
	transcript := "Speaker 1: hi\n"

	res := New().Rename(transcript, map[string]string{"Speaker 1": "Speaker 1", "": "x", "Speaker 2": " "})

	assert.Equal(t, transcript, res.Text)
	assert.Zero(t, res.Replacements)
	assert.Empty(t, res.PerLabel)
}

func TestRename_RegexMetacharactersAreLiteral(t *testing.T) {
	transcript := "Dr. (Acting) Chair: hello\nDrX (Acting) Chair: nope\n"

	res := New().Rename(transcript, map[string]string{"Dr. (Acting) Chair": "Ms. Kelly"})

	assert.Equal(t, "Ms. Kelly: hello\nDrX (Acting) Chair: nope\n", res.Text)
}

func TestRename_EmptyTranscript(t *testing.T) {
	res := New().Rename("", map[string]string{"Speaker 1": "Ann"})
	assert.Equal(t, "", res.Text)
	assert.Zero(t, res.Replacements)
}
