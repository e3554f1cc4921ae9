package recommend

import (
	"fmt"
	"strings"

	"github.com/introduceourtown/townrec/pkg/models"
)

// DefaultQuestionTemplate leaves out region and radius when they are not given.
const DefaultQuestionTemplate = `{{with .Region}}Region: {{.}}, {{end}}{{with .Radius}}Radius: {{.}}km, {{end}}Question: {{.Question}}`

const singleLineColonPrompt = `You are a helpful AI that recommends neighborhoods. Respond with at least three neighborhoods, one per line, in the format 'Neighborhood: description'. At the end, provide the main keywords from the user's question on a single line, comma separated, prefixed with 'Keywords:'.`

const labeledMultiLinePrompt = `You are a helpful AI that recommends neighborhoods. Respond with at least three detailed neighborhoods, each in the format:
Location: ~gu ~dong
Description: a short description.
At the end, provide the main keywords from the user's question on a single line, comma separated, prefixed with 'Keywords:'.`

const numberedListPrompt = `You are a helpful AI talking to a human. You have to recommend suitable neighborhoods when the human asks you questions. Rather than explaining one neighborhood, recommend several and name them down to the dong or eup unit. Put a number in front of each neighborhood, one per line.`

const suffixFilterPrompt = `You are a helpful AI talking to a human. You have to recommend suitable neighborhoods when the human asks you questions. Recommend several neighborhoods and name each one by its gu, dong or eup unit, for example Mapo-gu or Yeonnam-dong.`

// SystemPrompt returns the instructions that ask the model for the format mode parses.
func SystemPrompt(mode models.ParseMode) string {
	switch mode {
	case models.ParseModeLabeledMultiLine:
		return labeledMultiLinePrompt
	case models.ParseModeNumberedList:
		return numberedListPrompt
	case models.ParseModeSuffixFilter:
		return suffixFilterPrompt
	default:
		return singleLineColonPrompt
	}
}

const referencePreamble = `Here is some reference data from Seoul city public sources:`

const referenceClosing = `Use it only as a hint. Base your answer primarily on your own knowledge.`

// ReferencePrompt lists reference places, one per line, between a preamble
// and a closing instruction.
func ReferencePrompt(refs []models.ReferencePlace) string {
	var b strings.Builder
	b.WriteString(referencePreamble)
	b.WriteString("\n")
	for _, r := range refs {
		fmt.Fprintf(&b, "District: %s, Place: %s, Address: %s\n", r.District, r.Name, r.Address)
	}
	b.WriteString(referenceClosing)
	return b.String()
}

type QuestionTemplateData struct {
	Question string
	Region   string
	Radius   string
}
