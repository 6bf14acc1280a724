package deptools

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/buildgen"
)

// WriteDepFile creates a new gcc-style depfile and populates it with content
// indicating that target depends on deps.
func WriteDepFile(filename, target string, deps []string) error {
	buf := &bytes.Buffer{}
	err := WriteDeps(buf, target, deps)
	if err != nil {
		return err
	}

	return buildgen.WriteFileAtomic(filename, buf.Bytes())
}

// WriteDeps writes the depfile content that WriteDepFile would to w.
func WriteDeps(w io.Writer, target string, deps []string) error {
	escaped := make([]string, len(deps))
	for i, dep := range deps {
		escaped[i] = spaceEscaper.Replace(dep)
	}

	_, err := fmt.Fprintf(w, "%s: \\\n %s\n", spaceEscaper.Replace(target),
		strings.Join(escaped, " \\\n "))
	return err
}

var spaceEscaper = strings.NewReplacer(" ", `\ `)
