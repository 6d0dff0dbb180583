package dicofile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// Write exports snap in text format: every radical with its flexion line,
// the separator, then one line per (radical, sense) listing the group
// members.
//
// A synonym line may not name its own radical nor repeat a word already
// listed for that radical, so such members are left out and a sense left
// with no member gets no line. Reloading the output always succeeds and
// yields the same radicals and flexions; sense member lists come back
// without those members, and group ids may be renumbered.
func Write(w io.Writer, snap domain.Snapshot) error {
	bw := bufio.NewWriter(w)

	for _, r := range snap.Radicals {
		fmt.Fprintln(bw, r.Key)
		fmt.Fprintln(bw, strings.Join(r.Flexions, " "))
	}
	fmt.Fprintln(bw, SectionSeparator)

	for _, r := range snap.Radicals {
		listed := map[string]bool{r.Key: true}
		for _, g := range r.Groups {
			if g < 0 || int(g) >= len(snap.Groups) {
				return fmt.Errorf("radical %q: %w", r.Key, domain.ErrInvalidGroupID)
			}
			var words []string
			for _, m := range snap.Groups[g] {
				if !listed[m] {
					listed[m] = true
					words = append(words, m)
				}
			}
			if len(words) == 0 {
				continue
			}
			fmt.Fprintf(bw, "%s %s\n", r.Key, strings.Join(words, " "))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
