// Package prompt holds the synthesis prompt templates. Templates use
// {context_str} and {query_str} placeholders filled at query time; the
// company display name is baked in when the library is built.
package prompt

import "strings"

// SuggestedAnswerFailed is returned when the model's output for the
// improvement prompt cannot be parsed as the expected JSON envelope.
const SuggestedAnswerFailed = "Failed to extract suggested answer"

// Library renders the two synthesis prompts.
type Library struct {
	improvement string
	general     string
}

// NewLibrary builds the templates for the given company display name.
func NewLibrary(companyName string) *Library {
	if companyName == "" {
		companyName = "ACME Corp"
	}
	return &Library{
		improvement: strings.ReplaceAll(improvementTemplate, "{company}", companyName),
		general:     generalTemplate,
	}
}

// Improvement renders the answer-improvement prompt. The model is
// instructed to reply with a strict JSON envelope carrying
// suggested_answer.
func (l *Library) Improvement(contextStr, queryStr string) string {
	return render(l.improvement, contextStr, queryStr)
}

// General renders the open-question prompt used for summarizing across
// sources.
func (l *Library) General(contextStr, queryStr string) string {
	return render(l.general, contextStr, queryStr)
}

func render(template, contextStr, queryStr string) string {
	out := strings.ReplaceAll(template, "{context_str}", contextStr)
	return strings.ReplaceAll(out, "{query_str}", queryStr)
}

const improvementTemplate = "Context information is below.\n" +
	"---------------------\n" +
	"{context_str}\n" +
	"---------------------\n" +
	"You are an expert in improving the quality and clarity of written responses. Your task is to enhance the given answer to the question while maintaining its core meaning and accuracy. Follow these guidelines:\n\n" +
	"1. If the original answer is simply 'yes' or 'none', provide it as the answer, BUT also include a 'Suggested Improvement Answer' that elaborates on the affirmative response without using 'Yes'.\n" +
	"2. If the original answer is NOT ONLY 'yes' or 'none', provide it as the answer, BUT also include a 'Suggested Improvement Answer' that improves the main answer.\n" +
	"3. Follow these improvement guidelines:\n" +
	"   a. Correct any grammatical errors and improve sentence structure.\n" +
	"   b. Enhance the overall formality and professionalism of the language.\n" +
	"   c. Clarify any ambiguous statements using only the information provided.\n" +
	"   d. Ensure the response directly addresses the question asked.\n" +
	"   e. Maintain the original meaning and key information; do not add or remove significant facts.\n" +
	"   f. If the original answer is vague or incomplete, you may elaborate slightly to improve clarity, but only based on reasonable inferences from the given information.\n" +
	"   g. Use clear, concise language to improve readability.\n" +
	"   h. Organize the response logically if needed.\n" +
	"   i. Ensure consistency in tense and voice throughout the answer.\n" +
	"   j. For acronyms:\n" +
	"      - If an acronym is spelled out in the original answer, keep it as is.\n" +
	"      - If an acronym is not spelled out and you are confident of its meaning in the context, you may spell it out.\n" +
	"      - If unsure about an acronym's meaning, leave it as is.\n" +
	"   k. You may add transitional phrases or connective language to improve flow, as long as they don't alter the meaning.\n" +
	"   l. If specific quantities or timeframes are mentioned, keep them exactly as stated.\n" +
	"   m. Use {company} instead of 'The company' (or similar) in any answers that are generated.\n" +
	"   n. Capitalize {company} anytime it is used." +
	"Your goal is to refine and clarify the existing content while staying true to the original response. Enhance readability and professionalism, but avoid introducing new facts or making assumptions beyond reasonable inferences from the given information.\n\n" +
	"DO NOT state any timeframe, length of time, quantity of times unless specifically stated.\n\n" +
	"**Provide your response in the following JSON format:**\n\n" +
	"{\n" +
	"  \"suggested_answer\": \"[Your suggested improvement here, or 'No suggested improvement' if no improvement is needed]\"\n" +
	"}\n\n" +
	"Improve the following answer to the given question:\n\n" +
	"Question: {query_str}\n" +
	"Answer: \n"

const generalTemplate = `You are an AI assistant specializing in vendor questionnaires and security documentation. Your task is to generate a clear and concise answer to the question below, using only the information provided in the context. If the context does not contain enough information to answer the question confidently, acknowledge this limitation.

Context:
-------------------
{context_str}
-------------------

Question: {query_str}

Instructions:
1. Summarize and synthesize relevant information from the context to answer the question.
2. Use information from multiple sources when applicable.
3. Maintain technical accuracy and use appropriate terminology.
4. Do not include information not present in the context.
5. Be clear and concise.
6. If the context lacks sufficient information, state that explicitly.

Answer:`
