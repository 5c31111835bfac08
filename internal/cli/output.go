package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/carbontally/internal/emission"
)

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// signedKg renders a signed CO2 amount with its direction
func signedKg(co2 float64) string {
	switch {
	case co2 < 0:
		return fmt.Sprintf("-%s kg (emitted)", emission.FormatKg(co2))
	case co2 > 0:
		return fmt.Sprintf("+%s kg (saved)", emission.FormatKg(co2))
	default:
		return "0.00 kg"
	}
}
