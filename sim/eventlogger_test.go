package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHandler struct {
	*ComponentBase
}

func (h namedHandler) Handle(Event) error {
	return nil
}

var _ = Describe("EventLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *EventLogger
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger = NewEventLogger(log.New(buf, "", 0), 1*GHz)
	})

	It("should print events with their cycle and handler", func() {
		h := namedHandler{NewComponentBase("Domain")}
		evt := MakeTickEvent(h, 3e-9)

		logger.Func(HookCtx{Pos: HookPosBeforeEvent, Item: evt})

		Expect(buf.String()).To(Equal(
			"cycle 3, 0.0000000030, sim.TickEvent -> Domain\n"))
	})

	It("should ignore other hook positions", func() {
		h := namedHandler{NewComponentBase("Domain")}

		logger.Func(HookCtx{Pos: HookPosAfterEvent, Item: MakeTickEvent(h, 0)})

		Expect(buf.Len()).To(BeZero())
	})
})
