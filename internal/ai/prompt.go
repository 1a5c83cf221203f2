package ai

import "fmt"

const systemPrompt = `You are an expert AI fact-checker that analyzes text for misinformation, fake news, and credibility risks.
Your analysis should consider:
- Sensational or clickbait language
- Unverified claims or lack of credible sources
- Emotional manipulation tactics
- Conspiracy theories or false narratives
- Patterns typical of misinformation campaigns
- Factual accuracy indicators

Respond ONLY in valid JSON format. No markdown, no code blocks, no extra text.`

const userPromptTemplate = `Analyze this text for misinformation risk and return JSON only in this exact format:
{
  "riskLevel": "low" | "medium" | "high",
  "credibilityScore": number (0-100, where 0 is completely unreliable and 100 is highly credible),
  "verdict": "Reliable" | "Questionable" | "High Risk",
  "riskKeywordsFound": string[],
  "explanation": string (detailed explanation of why this verdict was given)
}

Scoring guidelines:
- 75-100: Reliable - Well-sourced, factual, credible content
- 40-74: Questionable - Some red flags, unverified claims, or suspicious patterns
- 0-39: High Risk - Strong indicators of misinformation, fake news, or manipulation

Text to analyze: %s`

// SystemPrompt returns the fact-checker instructions sent with every request.
func SystemPrompt() string { return systemPrompt }

// UserPrompt embeds text into the scoring request.
func UserPrompt(text string) string {
	return fmt.Sprintf(userPromptTemplate, text)
}
