package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/parley/internal/collab"
)

const freeSystemPrompt = `You are a friendly English conversation partner for speaking practice.
Do NOT correct grammar or comment on mistakes.
Be natural, warm, and helpful.
Respond ONLY in English. Do not include translations or Portuguese.
Return only the requested content in plain English.`

func freeTask(req collab.FreeRequest) (string, error) {
	var b strings.Builder
	switch req.Action {
	case collab.ActionFollowup:
		b.WriteString(`Task: Create ONE short follow-up question in English based on the student's answer.
- Use 1 sentence.
- Max 15 words.
- Output ONLY the question text.
`)
		fmt.Fprintf(&b, "\nMain question: %q\nStudent answer: %q\n", req.MainQuestion, req.StudentAnswer)
	case collab.ActionOpinion:
		b.WriteString(`Task: Write a response that starts with "In my opinion," and sounds natural.
- 4 to 7 sentences (about 80-140 words).
- Mention 1-2 points from the student's answers.
- Do NOT end with a question.
- Output ONLY the response text.
`)
		fmt.Fprintf(&b, "\nMain question: %q\nStudent answer: %q\nFollow-up question: %q\nFollow-up answer: %q\n",
			req.MainQuestion, req.StudentAnswer, req.FollowupQuestion, req.FollowupAnswer)
	case collab.ActionAnswer:
		b.WriteString(`Task: Answer the student's question in English.
- 2 to 5 sentences.
- Be direct and helpful.
- Do NOT end with a question.
- Output ONLY the response text.
`)
		fmt.Fprintf(&b, "\nStudent question: %q\nMain question context: %q\nStudent answer context: %q\n",
			req.StudentQuestion, req.MainQuestion, req.StudentAnswer)
	default:
		return "", fmt.Errorf("unknown free-conversation action %q", req.Action)
	}
	return b.String(), nil
}

func chatSystemPrompt(scenarioPrompt, role, lang, mode string) string {
	var b strings.Builder
	b.WriteString(scenarioPrompt)
	b.WriteString("\n\n")

	if mode == "simulator" {
		fmt.Fprintf(&b, `You are in REAL LIFE SIMULATOR mode. Act ONLY as a real %s.
Never act like a teacher. Never ask the customer to repeat or practice.
Never praise their English. Respond naturally and recast mistakes silently.
`, role)
	} else {
		b.WriteString(`You are helping an English learner practice this situation.
Keep each reply to one or two short sentences and end with a question
or a clear prompt so the learner knows what to say next.
If the learner's sentence is wrong or unclear, set must_retry and give a
short retry_prompt with the natural way to say it.
`)
	}

	switch lang {
	case "pt", "bilingual":
		b.WriteString(`Write "text" in Portuguese. Wrap every English phrase the learner
should say in [EN]...[/EN] tags. Put an English-only version in "translation".
`)
	default:
		b.WriteString(`Write "text" in simple English. Put a Brazilian Portuguese translation in "translation".
`)
	}
	b.WriteString(`List up to 4 useful words or short phrases in "suggested_words".
No markdown, no emoji.`)
	return b.String()
}

func suggestionsPrompt(topic, aiMessage string) string {
	return fmt.Sprintf(`You are generating VALID RESPONSE OPTIONS for an English learner.

Topic being practiced: %s
The AI just said: %q

Generate 4 short response options (max 10 words each) the student could say in ENGLISH.
- Responses MUST make sense as replies to the AI's message
- Be natural and conversational
- Each item has "en" (English) and "pt" (Portuguese translation)`, topic, aiMessage)
}
