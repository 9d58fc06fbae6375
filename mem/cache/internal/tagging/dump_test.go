package tagging

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/mesi"
)

var _ = Describe("Dump", func() {
	It("should list every way of every set", func() {
		tags := NewTagArray(2, 2)
		set, _ := tags.GetSet(1)
		set.Blocks[0].Tag = 0x1f
		set.Blocks[0].State = mesi.Modified
		tags.Visit(&set.Blocks[0], 7)

		buf := new(bytes.Buffer)
		Expect(Dump(buf, tags)).To(Succeed())

		Expect(buf.String()).To(Equal(
			"Set 0: [Tag: 0x0, State: I, Time: 0] [Tag: 0x0, State: I, Time: 0]\n" +
				"Set 1: [Tag: 0x1f, State: M, Time: 7] [Tag: 0x0, State: I, Time: 0]\n"))
	})
})
