package util

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// PrintPrettyJSON prints a raw API document with indentation. Printing the
// original bytes avoids the zero-value noise that re-marshaling a Go struct
// would introduce.
func PrintPrettyJSON(doc gjson.Result) error {
	raw := doc.Raw
	if raw == "" {
		fmt.Println("{}")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}
