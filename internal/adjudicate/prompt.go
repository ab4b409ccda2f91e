package adjudicate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
)

const claimTemplate = `You are a powerful fact checker. Analyze the claim below against the provided verified information.
Relying on the similarity scores, also carefully check whether all factual details in the claim (such as dates, names, locations, and events) exactly match the evidence.
If there is any factual mismatch (for example, the date in the claim is different from the evidence), classify the claim as False.
If the evidence is too vague or lacks strong matches, classify as Unverifiable.
If evidence directly contradicts the claim, classify as False.
If the evidence fully supports the claim with all factual details matching, classify as True.

Claim:
%s

Evidence (with similarity scores):
%s

Guidelines:
1. Give more weight to evidence with higher similarity scores, but do not ignore factual mismatches.
2. Pay close attention to details such as dates, names, locations, and events.
3. If the claim and evidence differ on any factual point, do not classify as True.
4. Respond only in JSON format without any additional text.
5. In the "evidence" array, include only full evidence statements as strings, without any extra comments or explanations.
6. Put all explanations or comparisons in the "reasoning" field.

Respond in JSON format:
{
    "verdict": "True | False | Unverifiable",
    "evidence": [List of relevant facts from provided evidence],
    "reasoning": "Explanation of the verdict based on evidence and factual details"
}`

const entityTemplate = `Check whether the named entity below is supported by the verified information.
Entity: %s (type: %s)

Evidence (with similarity scores):
%s

Classify the entity as Valid if the evidence confirms it, Invalid if the evidence contradicts it,
or Unverified if the evidence does not mention it clearly.

Respond only with a JSON object:
{"verdict": "Valid | Invalid | Unverified", "confidence": 0.0-1.0, "reasoning": "short explanation"}`

// FormatEvidence renders evidence as a bullet list annotated with source and
// similarity
func FormatEvidence(items []model.EvidenceItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf(`- "%s" (Source: %s, Similarity: %.2f)`, item.Text, item.Source, item.Similarity())
	}
	return strings.Join(lines, "\n")
}

// ClaimPrompt builds the adjudication prompt for a claim
func ClaimPrompt(claim string, items []model.EvidenceItem) string {
	return fmt.Sprintf(claimTemplate, claim, FormatEvidence(items))
}

// EntityPrompt builds the shorter adjudication prompt for an entity
func EntityPrompt(entity model.Entity, items []model.EvidenceItem) string {
	return fmt.Sprintf(entityTemplate, entity.Text, entity.Label, FormatEvidence(items))
}
