package image

import (
	"fmt"
	"strings"
)

const (
	// LogoAspectRatio is the square canvas logos are rendered on.
	LogoAspectRatio = "1:1"
	// LogoMIMEType is the output encoding requested for logos.
	LogoMIMEType = "image/png"
)

// LogoPrompt wraps the user's description into the instruction sent to the
// image model.
func LogoPrompt(subject string) string {
	return fmt.Sprintf("A clean, modern, vector-style logo for: %s. The logo should be on a solid, neutral background.", strings.TrimSpace(subject))
}

// LogoRequest builds the single-image request used by the studio.
func LogoRequest(subject, requestID string) GenerateRequest {
	return GenerateRequest{
		Prompt:      LogoPrompt(subject),
		Quantity:    1,
		AspectRatio: LogoAspectRatio,
		MIMEType:    LogoMIMEType,
		RequestID:   requestID,
	}
}
