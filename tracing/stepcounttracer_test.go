package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StepCountTracer", func() {
	var t *StepCountTracer

	BeforeEach(func() {
		t = NewStepCountTracer(nil)
	})

	step := func(id, what string) Task {
		return Task{ID: id, Steps: []TaskStep{{What: what}}}
	}

	It("should count steps and tasks", func() {
		t.StartTask(Task{ID: "1"})
		t.StepTask(step("1", "invalidate"))
		t.StepTask(step("1", "invalidate"))
		t.StepTask(step("1", "supply"))
		t.EndTask(Task{ID: "1"})

		Expect(t.GetStepNames()).To(Equal([]string{"invalidate", "supply"}))
		Expect(t.GetStepCount("invalidate")).To(Equal(uint64(2)))
		Expect(t.GetTaskCount("invalidate")).To(Equal(uint64(1)))
		Expect(t.GetTaskCount("supply")).To(Equal(uint64(1)))
	})

	It("should count steps of tasks it did not see start", func() {
		t.StepTask(step("9", "supply"))

		Expect(t.GetStepCount("supply")).To(Equal(uint64(1)))
		Expect(t.GetTaskCount("supply")).To(BeZero())
	})
})
