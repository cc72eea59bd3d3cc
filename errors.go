package convicon

import "fmt"

// Kind classifies a conversion failure.
type Kind int

const (
	// Validation means the input breaks a constraint, such as an image
	// being too big
	Validation Kind = iota + 1

	// Load means the image couldn't be read or decoded
	Load

	// Compression means the compression backend failed
	Compression

	// IO means the output couldn't be written
	IO
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Load:
		return "load"
	case Compression:
		return "compression"
	case IO:
		return "io"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned for any failed conversion. The whole conversion is
// abandoned; there is never any partial output to rely on.
type Error struct {
	// Path is the image, or output file if there is no image, that failed
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: \"%s\": %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
