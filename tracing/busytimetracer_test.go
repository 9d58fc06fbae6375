package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

var _ = Describe("BusyTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *BusyTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should track busy time, one task", func() {
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInSec(1.0)))
		Expect(t.NumTasks()).To(Equal(uint64(1)))
	})

	It("should track busy time, two tasks", func() {
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(3))
		t.StartTask(Task{ID: "2"})
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(4))
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInSec(2.0)))
	})

	It("should count overlapping tasks once", func() {
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})
		t.StartTask(Task{ID: "2"})
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(3))
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInSec(2.0)))
	})

	It("should include the running task", func() {
		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(1))
		t.StartTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(5))
		Expect(t.BusyTime()).To(Equal(sim.VTimeInSec(4.0)))
	})

	It("should ignore filtered tasks", func() {
		t = NewBusyTimeTracer(timeTeller, KindIs("bus_transaction"))

		t.StartTask(Task{ID: "1", Kind: "other"})
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(BeZero())
		Expect(t.NumTasks()).To(BeZero())
	})
})
