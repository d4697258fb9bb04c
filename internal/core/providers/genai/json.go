package genai

import (
	"strings"

	"github.com/bytedance/sonic"

	platformerrors "adventure-server-go/internal/platform/errors"
)

// StripCodeFence removes a surrounding ```json ... ``` block, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// DecodeJSON unmarshals model output into out. Failures are parse errors
// carrying the raw text as details.
func DecodeJSON(raw string, out any) error {
	body := StripCodeFence(raw)
	if body == "" {
		return platformerrors.New(platformerrors.KindParse, "genai.decode_json", "model output was empty").WithDetails(raw)
	}
	if err := sonic.UnmarshalString(body, out); err != nil {
		return platformerrors.Wrap(platformerrors.KindParse, "genai.decode_json", "model output was not valid JSON", err).WithDetails(raw)
	}
	return nil
}
