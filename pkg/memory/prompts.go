package memory

const summaryPromptTemplate = `
Review the Current Summary, if there is one, and the New Lines of the provided conversation. Create a concise summary of the conversation, adding from the New Lines to the Current summary.
Keep neighborhood names, regions and stated preferences. If the New Lines are meaningless, return the Current Summary.

EXAMPLE
Current summary:
The human is looking for a quiet neighborhood in Seoul near a park. The AI suggests Yeonnam-dong.
New lines of conversation:
human: Region: Seoul, Radius: 3km, Question: Which of those has good cafes?
ai: Yeonnam-dong: many independent cafes along the park
New summary:
The human is looking for a quiet neighborhood in Seoul near a park with good cafes. The AI suggests Yeonnam-dong for its park and independent cafes.
EXAMPLE END

Current summary:
{{.PrevSummary}}
New lines of conversation:
{{.MessagesJoined}}
New summary:
`

type SummaryPromptTemplateData struct {
	PrevSummary    string
	MessagesJoined string
}
