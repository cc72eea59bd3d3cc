package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

type encoder struct {
	w   io.Writer
	err error
}

// printf remembers the first error so the callers don't have to
func (e *encoder) printf(format string, a ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func (e *encoder) encodeAssembly(a *Artifact) {
	e.printf("\tsection %s\n\n", sectionName)
	e.printf("\tjp\t%s\n", labelInit)

	if i := a.Icon; i != nil {
		e.printf("\tdb\t$%02X\n", tagIcon)
		e.printf("\tpublic %s\n", labelIcon)
		e.printf("%s:\n", labelIcon)
		e.printf("\tdb\t$%02X, $%02X", i.Width, i.Height)

		// One line per row, purely cosmetic
		for start := 0; start < len(i.Data); start += i.Width {
			end := start + i.Width
			if end > len(i.Data) {
				end = len(i.Data)
			}
			e.printf("\n\tdb\t")
			for j, v := range i.Data[start:end] {
				if j > 0 {
					e.printf(", ")
				}
				e.printf("$%02X", v)
			}
		}
	} else {
		e.printf("\tdb\t$%02X\n", tagNoIcon)
	}
	e.printf("\n")

	e.printf("\tpublic %s\n", labelDescription)
	e.printf("%s:\n", labelDescription)
	if a.Description != "" {
		e.printf("\tdb\t\"%s\", 0\n", a.Description)
	} else {
		e.printf("\tdb\t0\n")
	}
	e.printf("%s:\n", labelInit)
}

func (e *encoder) encodeHex(a *Artifact) {
	i := a.Icon
	if i == nil {
		return
	}
	e.printf("\"%02X%02X%02X%X\"\n", tagIcon, i.Width, i.Height, i.Data)
}

// Encode writes a to w. Nothing is written if a is invalid.
func Encode(w io.Writer, a *Artifact) error {
	if err := a.validate(); err != nil {
		return err
	}

	e := encoder{w: w}

	switch a.Format {
	case Assembly:
		e.encodeAssembly(a)
	case Hex:
		e.encodeHex(a)
	}

	return e.err
}

// WriteFile writes a to the named file, creating or truncating it. The file
// is only created once a is known to be valid. On error the contents of the
// file are undefined.
func WriteFile(name string, a *Artifact) (err error) {
	if err := a.validate(); err != nil {
		return err
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, a); err != nil {
		return err
	}

	return w.Flush()
}
