package artifact

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
)

type decoder struct {
	b []byte
	a Artifact
}

func parseByte(s string) (byte, error) {
	if len(s) != 3 || s[0] != '$' || strings.ToUpper(s) != s {
		return 0, errMalformed
	}
	b, err := hex.DecodeString(s[1:])
	if err != nil {
		return 0, errMalformed
	}
	return b[0], nil
}

func parseBytes(s string) ([]byte, error) {
	fields := strings.Split(s, ", ")
	b := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := parseByte(f)
		if err != nil {
			return nil, err
		}
		b = append(b, v)
	}
	return b, nil
}

func (d *decoder) decodeAssembly() error {
	var operands []string
	for _, line := range strings.Split(string(d.b), "\n") {
		if strings.HasPrefix(line, "\tdb\t") {
			operands = append(operands, strings.TrimPrefix(line, "\tdb\t"))
		}
	}

	// Tag and description at the very least
	if len(operands) < 2 {
		return errMalformed
	}

	description := operands[len(operands)-1]
	switch {
	case description == "0":
	case strings.HasPrefix(description, "\"") && strings.HasSuffix(description, "\", 0") && len(description) > len("\", 0"):
		d.a.Description = description[1 : len(description)-len("\", 0")]
	default:
		return errMalformed
	}

	tag, err := parseByte(operands[0])
	if err != nil {
		return err
	}

	switch tag {
	case tagNoIcon:
		if len(operands) != 2 {
			return errMalformed
		}
	case tagIcon:
		if len(operands) < 4 {
			return errMalformed
		}
		header, err := parseBytes(operands[1])
		if err != nil {
			return err
		}
		if len(header) != 2 {
			return errMalformed
		}
		i := &Icon{
			Width:  int(header[0]),
			Height: int(header[1]),
		}
		for _, row := range operands[2 : len(operands)-1] {
			b, err := parseBytes(row)
			if err != nil {
				return err
			}
			i.Data = append(i.Data, b...)
		}
		d.a.Icon = i
	default:
		return errMalformed
	}

	return nil
}

func (d *decoder) decodeHex() error {
	if len(d.b) == 0 {
		return nil
	}

	s := string(d.b)
	if !strings.HasPrefix(s, "\"") || !strings.HasSuffix(s, "\"\n") || strings.ToUpper(s) != s {
		return errMalformed
	}

	b, err := hex.DecodeString(s[1 : len(s)-2])
	if err != nil || len(b) < 4 || b[0] != tagIcon {
		return errMalformed
	}

	d.a.Icon = &Icon{
		Width:  int(b[1]),
		Height: int(b[2]),
		Data:   b[3:],
	}

	return nil
}

func (d *decoder) decode(r io.Reader, f Format) error {
	var err error
	if d.b, err = ioutil.ReadAll(r); err != nil {
		return err
	}

	d.a.Format = f

	switch f {
	case Assembly:
		err = d.decodeAssembly()
	case Hex:
		err = d.decodeHex()
	default:
		return fmt.Errorf("%w: %v", ErrFormat, f)
	}
	if err != nil {
		return err
	}

	// Anything that doesn't reproduce the input byte for byte wasn't
	// written by Encode
	var b bytes.Buffer
	if err := Encode(&b, &d.a); err != nil {
		return errMalformed
	}
	if !bytes.Equal(b.Bytes(), d.b) {
		return errMalformed
	}

	return nil
}

// Decode reads an artifact in format f from r. Only input exactly as
// produced by Encode is accepted.
func Decode(r io.Reader, f Format) (*Artifact, error) {
	var d decoder
	if err := d.decode(r, f); err != nil {
		return nil, err
	}
	return &d.a, nil
}
