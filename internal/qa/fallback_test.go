package qa

import (
	"testing"

	"resume-qa-go/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestFallbackAnswer(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		expected string
	}{
		{
			name:     "graduation year from education",
			prompt:   "Education: {\"degree\":\"BSc 2014 - 2018\",\"year\":2014}\nQuestion: When did they graduate?",
			expected: "The candidate finished graduation in 2014.",
		},
		{
			name:     "graduation without education",
			prompt:   "Skills: Go\nQuestion: graduation year 2019?",
			expected: "The graduation date information is not explicitly available in the candidate's data.",
		},
		{
			name:     "graduation without year",
			prompt:   "Education: {\"degree\":\"BSc\"}\nQuestion: When did they graduate?",
			expected: "The graduation date information is not explicitly available in the candidate's data.",
		},
		{
			name:     "skills keeps original casing",
			prompt:   "Candidate Information:\nSkills: Python, SQL\n\nQuestion: what skills",
			expected: "The candidate has the following skills: Python, SQL",
		},
		{
			name:     "skill question without marker",
			prompt:   "Question: list the skill set",
			expected: "Please check the skills section in the candidate's profile for detailed information.",
		},
		{
			name:     "experience fragment",
			prompt:   "Experience: {\"title\":\"Senior Engineer\"}\nQuestion: Where did they work?",
			expected: "Based on the candidate's experience: {\"title\":\"Senior Engineer\"}",
		},
		{
			name:     "work question without fragment",
			prompt:   "Question: describe their work",
			expected: "Please check the experience section in the candidate's profile for work history details.",
		},
		{
			name:     "unrelated",
			prompt:   "Question: favourite colour?",
			expected: "I couldn't generate a proper answer. Please check the candidate's profile or try rephrasing your question.",
		},
		{
			name:     "empty prompt",
			prompt:   "",
			expected: "I couldn't generate a proper answer. Please check the candidate's profile or try rephrasing your question.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FallbackAnswer(tt.prompt))
		})
	}
}

func TestFallbackAnswer_FromBuiltPrompt(t *testing.T) {
	profile := types.NewEmptyProfile()
	profile.Skills = []string{"Python", "SQL"}

	answer := FallbackAnswer(BuildPrompt(profile, "what skills"))
	assert.Contains(t, answer, "Python, SQL")
}

func TestFallbackAnswer_LastYearWins(t *testing.T) {
	prompt := "Education: {\"degree\":\"BSc 2012 - 2016, MSc 2016 - 2018\"}\ngraduation?"
	assert.Equal(t, "The candidate finished graduation in 2018.", FallbackAnswer(prompt))
}
