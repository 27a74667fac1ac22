package prompt

import (
	"strings"
)

// ValidationBuilder builds the yes/no prompt asking whether a document
// genuinely references a named law.
type ValidationBuilder struct {
	law  string
	text string
}

func NewValidationBuilder(law, text string) *ValidationBuilder {
	return &ValidationBuilder{law: law, text: text}
}

const ValidationSystemPrompt = "You are a legal document analyzer. Respond concisely."

func (b *ValidationBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("You are a legal document analyzer. Your task is to determine if a document actually references or discusses a specific law.\n\n")

	prompt.WriteString("<law>\n")
	prompt.WriteString(b.law)
	prompt.WriteString("\n</law>\n\n")

	prompt.WriteString("<document>\n")
	prompt.WriteString(b.text)
	prompt.WriteString("\n</document>\n\n")

	b.writeRules(&prompt)
	b.writeExamples(&prompt)

	return prompt.String()
}

func (b *ValidationBuilder) writeRules(prompt *strings.Builder) {
	prompt.WriteString("<rules>\n")
	prompt.WriteString("Does this document actually reference, cite, discuss, or mention the law \"" + b.law + "\"?\n")
	prompt.WriteString("1. The document must name this law or clearly discuss its provisions\n")
	prompt.WriteString("2. Generic mentions of the topic area do not count\n")
	prompt.WriteString("3. Side mentions in unrelated contexts do not count\n")
	prompt.WriteString("</rules>\n\n")
	prompt.WriteString("Respond with only:\n")
	prompt.WriteString("YES - [brief explanation of where it is referenced]\n")
	prompt.WriteString("or\n")
	prompt.WriteString("NO - [brief explanation of why it is not referenced]\n\n")
}

func (b *ValidationBuilder) writeExamples(prompt *strings.Builder) {
	prompt.WriteString("<examples>\n")
	prompt.WriteString("Law: \"Privacy Act 2020\"\n")
	prompt.WriteString("Document: \"Under the Privacy Act 2020, businesses must obtain explicit consent...\"\n")
	prompt.WriteString("Answer: YES - Document directly discusses Privacy Act 2020 consent requirements\n\n")
	prompt.WriteString("Law: \"Privacy Act 2020\"\n")
	prompt.WriteString("Document: \"When evicting tenants, landlords should respect privacy...\"\n")
	prompt.WriteString("Answer: NO - Only mentions privacy generally, not the Privacy Act 2020\n")
	prompt.WriteString("</examples>\n")
}

// AnalysisBuilder builds the structured impact-analysis prompt. The model is
// asked for a single JSON object.
type AnalysisBuilder struct {
	law         string
	whatChanged string
	text        string
}

func NewAnalysisBuilder(law, whatChanged, text string) *AnalysisBuilder {
	return &AnalysisBuilder{law: law, whatChanged: whatChanged, text: text}
}

const AnalysisSystemPrompt = "You are a legal compliance expert. Respond only with valid JSON."

func (b *AnalysisBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("You are a legal compliance expert. Analyze how a law change affects this document.\n\n")

	prompt.WriteString("<law_change>\n")
	prompt.WriteString("Law: " + b.law + "\n")
	prompt.WriteString("Change: " + b.whatChanged + "\n")
	prompt.WriteString("</law_change>\n\n")

	prompt.WriteString("<document>\n")
	prompt.WriteString(b.text)
	prompt.WriteString("\n</document>\n\n")

	b.writeTask(&prompt)
	b.writeFormat(&prompt)

	return prompt.String()
}

func (b *AnalysisBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("Identify sections affected by this law change. For each:\n")
	prompt.WriteString("1. Quote the exact text (max 150 words)\n")
	prompt.WriteString("2. Explain the issue\n")
	prompt.WriteString("3. Suggest a specific update\n")
	prompt.WriteString("</task>\n\n")
}

func (b *AnalysisBuilder) writeFormat(prompt *strings.Builder) {
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString(`{
  "analysis": {
    "document_mentions_law": true,
    "overall_impact": "brief summary",
    "sections_needing_update": [
      {
        "section_text": "exact quote",
        "issue": "why outdated",
        "suggested_change": "specific update",
        "confidence": 0.0
      }
    ]
  }
}`)
	prompt.WriteString("\n\nBe concise. Only include directly affected sections. Confidence is between 0.0 and 1.0.\n")
}
