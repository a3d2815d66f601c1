// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs via langchaingo. It works with the hosted OpenAI API and with
// local servers such as Ollama, LocalAI, and vLLM.
package openai
