// Package llm talks to an OpenAI-compatible completion and transcription API
// and turns free-form expense text into a structured expense.
package llm
