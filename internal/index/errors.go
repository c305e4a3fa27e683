package index

import "fmt"

// MissingSection reports that a top-level section (PHDC, TDB, DBV, STA,
// ART, VQM) could not be located by its magic number inside the index
// buffer. VQM is optional; the others are not.
type MissingSection struct {
	Section string
}

func (e *MissingSection) Error() string {
	return fmt.Sprintf("section %q not found in index buffer", e.Section)
}
