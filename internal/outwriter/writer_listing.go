package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
)

// writeCSVListing writes listing rows to w.
func writeCSVListing(w io.Writer, listing schema.Listing) error {
	header := []string{"row", "kind", "path", "id", "count"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range listing.Rows {
			row := []string{
				strconv.Itoa(i + 1),
				string(r.Kind),
				contract.JoinKey(r.Path),
				r.ID,
				strconv.Itoa(r.Count),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
