package folio

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeLedger reads a ledger document: a JSON array of flat objects, one per
// entry, in replay order. Field values may be JSON strings or numbers; both
// arrive as strings so the field validators see exactly what was written
// (UseNumber keeps "100.00" from collapsing to "100").
func DecodeLedger(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ledger is not a JSON array of entries: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("ledger is empty")
	}

	entries := make([]Entry, 0, len(raw))
	for i, obj := range raw {
		e := make(Entry, len(obj))
		for field, value := range obj {
			switch v := value.(type) {
			case string:
				e[field] = v
			case json.Number:
				e[field] = v.String()
			default:
				return nil, fmt.Errorf("entry %d: field %q must be a string or a number", i, field)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// EncodeLedger writes the entries back as a JSON array, one entry per line,
// with fields in canonical order. Re-encoding a decoded ledger is the
// formatter: a stable output regardless of how the source was laid out.
// Fields with an empty value are dropped.
func EncodeLedger(w io.Writer, entries []Entry) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	for i, e := range entries {
		var jw jsonObjectWriter
		for _, field := range entryFields {
			jw.Optional(field, e[field])
		}
		b, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		sep := ",\n"
		if i == len(entries)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "  %s%s", b, sep); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]\n")
	return err
}
