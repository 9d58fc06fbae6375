package tagging

import (
	"bufio"
	"fmt"
	"io"
)

// Dump writes one line per set listing the tag, state and last use time of
// every way.
func Dump(w io.Writer, tags TagArray) error {
	bw := bufio.NewWriter(w)

	for i := 0; i < tags.NumSets(); i++ {
		set, _ := tags.GetSet(uint64(i))

		fmt.Fprintf(bw, "Set %d:", i)
		for _, b := range set.Blocks {
			fmt.Fprintf(bw, " [Tag: 0x%x, State: %s, Time: %d]",
				b.Tag, b.State, b.LastUsed)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
