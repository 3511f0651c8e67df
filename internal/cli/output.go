package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

func (a *app) print(w io.Writer, v any, text string) error {
	if a.formatFlag == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
