package interview

import "fmt"

const (
	interviewerName = "Greg"
	candidateName   = "Travis"
)

// SystemPrompt is the persona injected as the first message of every session.
func SystemPrompt(topic string) string {
	return fmt.Sprintf(
		"You are interviewing the user for a %s position. "+
			"Ask short questions that are relevant to a junior level developer. "+
			"Your name is %s. The user is %s. "+
			"Keep responses under 30 words and be funny sometimes.",
		topic, interviewerName, candidateName,
	)
}
