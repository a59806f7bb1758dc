package prompt

import (
	"fmt"
	"strings"

	"ai-tutor-be/pkg/store"
)

// SystemPrompt is sent as the first message of every tutoring and chat call.
const SystemPrompt = "You are a helpful, friendly, and conversational AI tutor. Keep responses concise and natural, as if speaking."

// Builder renders the prompts used by the tutor and the chat path.
// Section text is cut to SectionChars before it is embedded in a prompt.
type Builder struct {
	SectionChars int
}

func NewBuilder(sectionChars int) *Builder {
	if sectionChars <= 0 {
		sectionChars = 2000
	}
	return &Builder{SectionChars: sectionChars}
}

func (b *Builder) Introduction(sectionCount int) string {
	var p strings.Builder
	p.WriteString("<task>\n")
	p.WriteString(fmt.Sprintf("A student is about to start learning from a document that has %d sections.\n", sectionCount))
	p.WriteString("Write a warm, encouraging introduction message of 2-3 sentences.\n")
	p.WriteString("</task>\n\n")
	p.WriteString("<guidelines>\n")
	p.WriteString("- Welcome them warmly\n")
	p.WriteString("- Explain that you will go through the document section by section\n")
	p.WriteString("- Mention they can ask questions anytime\n")
	p.WriteString("- Explain there will be a quiz after each section to check understanding\n")
	p.WriteString("</guidelines>")
	return p.String()
}

func (b *Builder) Narration(section store.Section) string {
	var p strings.Builder
	b.writeSection(&p, section)
	p.WriteString("<task>\n")
	p.WriteString("Narrate this section to the student in a clear, engaging way (2-4 sentences).\n")
	p.WriteString("Explain the key concepts naturally as if you are teaching in person.\n")
	p.WriteString("Do not just repeat the text, explain it as a good teacher would.\n")
	p.WriteString("</task>")
	return p.String()
}

// Remediation re-explains a section after the student picked wrongOption.
func (b *Builder) Remediation(section store.Section, quiz store.QuizQuestion, wrongOption, attempt int) string {
	var p strings.Builder
	b.writeSection(&p, section)
	p.WriteString("<quiz>\n")
	p.WriteString("Question: " + quiz.Question + "\n")
	writeOptions(&p, quiz.Options)
	p.WriteString(fmt.Sprintf("Student answered: %s) %s\n", OptionLetter(wrongOption), optionText(quiz.Options, wrongOption)))
	p.WriteString("</quiz>\n\n")
	p.WriteString("<task>\n")
	p.WriteString("The student's answer is wrong. Re-explain the part of the section that the question is about so they can find the right answer themselves.\n")
	p.WriteString("</task>\n\n")
	p.WriteString("<guidelines>\n")
	p.WriteString("- Do not reveal the correct option\n")
	p.WriteString("- Address the misunderstanding behind the chosen option\n")
	if attempt > 1 {
		p.WriteString(fmt.Sprintf("- This is attempt %d, use simpler language and a concrete example\n", attempt))
	}
	p.WriteString("- Keep it to 2-4 sentences and be encouraging\n")
	p.WriteString("</guidelines>")
	return p.String()
}

// Quiz asks for exactly one question in the line format ParseQuiz understands.
// The strict variant is used after an unparseable reply.
func (b *Builder) Quiz(section store.Section, strict bool) string {
	var p strings.Builder
	b.writeSection(&p, section)
	p.WriteString("<task>\n")
	p.WriteString("Create ONE multiple-choice question with 4 options that tests whether the student understood the key concepts of this section.\n")
	p.WriteString("It must have one clearly correct answer and 3 plausible but incorrect distractors.\n")
	p.WriteString("</task>\n\n")
	p.WriteString("<format>\n")
	p.WriteString("QUESTION: [the question text]\n")
	p.WriteString("A) [option A]\n")
	p.WriteString("B) [option B]\n")
	p.WriteString("C) [option C]\n")
	p.WriteString("D) [option D]\n")
	p.WriteString("CORRECT: [the letter of the correct answer]\n")
	p.WriteString("</format>")
	if strict {
		p.WriteString("\n\nYour previous reply could not be read. Reply with exactly the six lines above and nothing else: no preamble, no markdown, no explanation.")
	}
	return p.String()
}

func (b *Builder) CorrectFeedback(section store.Section, quiz store.QuizQuestion) string {
	var p strings.Builder
	p.WriteString("<quiz>\n")
	p.WriteString("Question: " + quiz.Question + "\n")
	p.WriteString(fmt.Sprintf("Correct answer given: %s) %s\n", OptionLetter(quiz.CorrectIndex), optionText(quiz.Options, quiz.CorrectIndex)))
	p.WriteString("</quiz>\n\n")
	p.WriteString("<task>\n")
	p.WriteString(fmt.Sprintf("The student answered correctly about %q. Confirm it and briefly say why it is right (1-2 sentences).\n", section.Title))
	p.WriteString("</task>")
	return p.String()
}

// Completion congratulates the student. Titles of sections that still need review are listed.
func (b *Builder) Completion(sectionCount int, needsReview []string) string {
	var p strings.Builder
	p.WriteString("<task>\n")
	p.WriteString(fmt.Sprintf("The student just completed all %d sections of a document with quizzes.\n", sectionCount))
	p.WriteString("Write an encouraging completion message of 2-3 sentences that congratulates them and encourages them to keep learning.\n")
	p.WriteString("</task>")
	if len(needsReview) > 0 {
		p.WriteString("\n\n<needs_review>\n")
		for _, t := range needsReview {
			p.WriteString("- " + t + "\n")
		}
		p.WriteString("</needs_review>\n")
		p.WriteString("Gently suggest revisiting the sections listed above.")
	}
	return p.String()
}

// Clarification answers a question asked mid-quiz using only the current
// section and any retrieved context.
func (b *Builder) Clarification(section store.Section, retrieved, question string) string {
	var p strings.Builder
	b.writeSection(&p, section)
	if retrieved != "" {
		p.WriteString("<related_material>\n")
		p.WriteString(retrieved)
		p.WriteString("\n</related_material>\n\n")
	}
	p.WriteString("<guidelines>\n")
	p.WriteString("1. Only answer based on the current section and related material above\n")
	p.WriteString("2. Do not introduce information that is not covered there\n")
	p.WriteString(fmt.Sprintf("3. If the question is about something not covered, say so politely and steer back to %q\n", section.Title))
	p.WriteString("4. Do not give away the answer to the pending quiz question\n")
	p.WriteString("5. Keep responses concise (2-3 sentences)\n")
	p.WriteString("</guidelines>\n\n")
	p.WriteString("<user_question>\n")
	p.WriteString(question)
	p.WriteString("\n</user_question>")
	return p.String()
}

// Context wraps a chat question with retrieved context. Without context the
// query is returned unchanged.
func Context(retrieved, query string) string {
	if retrieved == "" {
		return query
	}
	var p strings.Builder
	p.WriteString("Use the following context to answer the question. If the context doesn't contain relevant information, answer based on your general knowledge.\n\n")
	p.WriteString("<reference_material>\n")
	p.WriteString(retrieved)
	p.WriteString("\n</reference_material>\n\n")
	p.WriteString("<user_question>\n")
	p.WriteString(query)
	p.WriteString("\n</user_question>")
	return p.String()
}

func Greeting() string {
	return "Give a warm, friendly greeting to a user who just opened the AI tutor. Be conversational and inviting. Keep it to 1-2 sentences."
}

func UploadComment(filename string, sectionCount int) string {
	return fmt.Sprintf("I just processed a document called '%s' with %d sections. Give a brief, friendly comment about it (1-2 sentences). Be conversational and enthusiastic.", filename, sectionCount)
}

func (b *Builder) writeSection(p *strings.Builder, section store.Section) {
	p.WriteString("<section>\n")
	p.WriteString("Title: " + section.Title + "\n\n")
	p.WriteString(Truncate(strings.TrimSpace(section.Text), b.SectionChars))
	p.WriteString("\n</section>\n\n")
}

func writeOptions(p *strings.Builder, options []string) {
	for i, o := range options {
		p.WriteString(OptionLetter(i) + ") " + o + "\n")
	}
}

func optionText(options []string, i int) string {
	if i < 0 || i >= len(options) {
		return ""
	}
	return options[i]
}

// OptionLetter maps 0 to "A", 1 to "B" and so on.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// Truncate cuts s to at most n bytes on a rune boundary and marks the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
