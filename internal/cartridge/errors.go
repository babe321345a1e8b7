package cartridge

import "fmt"

// FormatErrorKind classifies why a cartridge was rejected.
type FormatErrorKind uint8

const (
	BadMagic FormatErrorKind = iota + 1
	UnsupportedVersion
	TruncatedSection
	SizeLimitExceeded
	InvalidSection
)

func (k FormatErrorKind) String() string {
	switch k {
	case BadMagic:
		return "bad magic"
	case UnsupportedVersion:
		return "unsupported version"
	case TruncatedSection:
		return "truncated section"
	case SizeLimitExceeded:
		return "size limit exceeded"
	case InvalidSection:
		return "invalid section"
	}
	return "format error"
}

// FormatError is returned for every cartridge that fails validation.
// Retrying the same bytes gives the same error.
type FormatError struct {
	Kind    FormatErrorKind
	Section SectionType // zero when the error is about the header
	Detail  string
}

func (e *FormatError) Error() string {
	if e.Section == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s section: %s", e.Kind, e.Section, e.Detail)
}

// Is matches FormatErrors of the same kind, so that errors.Is works with the
// Err values below.
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Section == 0 || t.Section == e.Section
}

var (
	ErrBadMagic           = &FormatError{Kind: BadMagic}
	ErrUnsupportedVersion = &FormatError{Kind: UnsupportedVersion}
	ErrTruncatedSection   = &FormatError{Kind: TruncatedSection}
	ErrSizeLimitExceeded  = &FormatError{Kind: SizeLimitExceeded}
	ErrInvalidSection     = &FormatError{Kind: InvalidSection}
)

func formatErrorf(kind FormatErrorKind, section SectionType, detail string, args ...any) *FormatError {
	return &FormatError{
		Kind:    kind,
		Section: section,
		Detail:  fmt.Sprintf(detail, args...),
	}
}
