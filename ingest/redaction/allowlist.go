// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package redaction

// scannedKeys is the fixed allow-list of attribute keys known to carry
// natural-language content. Only these keys are scanned, which bounds
// redaction cost on spans with large unrelated attribute sets. The list
// covers the gen_ai, llm, and ai semantic-convention families plus the
// generic input/output keys some SDKs emit.
var scannedKeys = map[string]struct{}{
	// gen_ai.* (OpenTelemetry GenAI conventions)
	"gen_ai.prompt":          {},
	"gen_ai.completion":      {},
	"gen_ai.input.messages":  {},
	"gen_ai.output.messages": {},
	"gen_ai.system_message":  {},

	// llm.* (OpenLLMetry conventions)
	"llm.prompts":         {},
	"llm.completions":     {},
	"llm.input_messages":  {},
	"llm.output_messages": {},

	// ai.* (Vercel AI SDK conventions)
	"ai.prompt":          {},
	"ai.prompt.messages": {},
	"ai.response.text":   {},
	"ai.toolCall.args":   {},

	// generic keys used by manual instrumentation
	"input.value":  {},
	"output.value": {},
}

// isScanned reports whether an attribute key is on the redaction
// allow-list.
func isScanned(key string) bool {
	_, ok := scannedKeys[key]
	return ok
}
