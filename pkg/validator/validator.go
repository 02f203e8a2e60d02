package validator

import (
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxContentLength = 4000
const maxReactionLength = 16

func ValidateMessageContent(content string) ValidationErrors {
	errs := make(ValidationErrors)

	content = strings.TrimSpace(content)
	if content == "" {
		errs.Add("content", "Message content is required")
	} else if utf8.RuneCountInString(content) > maxContentLength {
		errs.Add("content", "Message content is too long")
	}

	return errs
}

func ValidateReaction(reaction string) ValidationErrors {
	errs := make(ValidationErrors)

	reaction = strings.TrimSpace(reaction)
	if reaction == "" {
		errs.Add("reaction", "Reaction is required")
	} else if utf8.RuneCountInString(reaction) > maxReactionLength {
		errs.Add("reaction", "Reaction is too long")
	}

	return errs
}
