package statecharts

import (
	"bytes"
	"os"
)

// CheckWriteFile writes the file only when its content changed, so a
// regeneration over an unchanged diagram touches nothing.
func CheckWriteFile(filename string, text []byte) error {
	if data, err := os.ReadFile(filename); err == nil {
		if bytes.Equal(text, data) {
			return nil
		}
	}
	return os.WriteFile(filename, text, 0666)
}
