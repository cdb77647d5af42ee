package types

import "fmt"

// PlatformSpec identifies a target as an os-arch pair, e.g. linux-amd64.
type PlatformSpec struct {
	OS   string
	Arch string
}

func (p PlatformSpec) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// TokenKind distinguishes the platform-expansion tokens allowed in a
// package path template.
type TokenKind string

const (
	// TokenPlatform is ${platform}: expands to os-arch verbatim.
	TokenPlatform TokenKind = "platform"
	// TokenOSAlternation is ${os=a,b}: matches when the target os is one
	// of the listed values; arch comes from the target.
	TokenOSAlternation TokenKind = "os"
	// TokenArchFixed is ${arch=x}: fixes arch regardless of target.
	TokenArchFixed TokenKind = "arch"
)

// TemplateToken is one parsed expansion token. OSAlternatives is set for
// TokenOSAlternation, FixedArch for TokenArchFixed.
type TemplateToken struct {
	Kind           TokenKind
	Raw            string
	OSAlternatives []string
	FixedArch      string
}
