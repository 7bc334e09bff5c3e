package ai

// ============================================================================
// CLASSIFICATION PROMPTS
// ============================================================================

const ClassifySystemPrompt = `You are a strict phishing classifier. Your response must be a single valid JSON object and nothing else.`

const ClassifyTextPrompt = `Analyze the following text for signs of a phishing or social engineering scam.
Focus on tactics like manufactured urgency, suspicious links, grammatical errors, and unusual requests.
Provide a verdict ("Safe" or "High Risk") and a brief, one-sentence explanation.
Your response must be a valid JSON object with two keys: "verdict" and "explanation".

Text to analyze: --- %s ---`
