package pid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidloop/internal/pid"
)

var _ = Describe("Limited", func() {
	It("matches the core controller when no limits are set", func() {
		core := pid.New(1.2, 0.4, 0.1)
		lim := pid.Limited{Controller: pid.New(1.2, 0.4, 0.1)}

		for i := 0; i < 20; i++ {
			pv := float64(i) * 0.3
			out, saturated := lim.Update(5, pv, 0.05)
			Expect(saturated).To(BeFalse())
			Expect(out).To(Equal(core.Update(5, pv, 0.05)))
		}
	})

	It("saturates the output", func() {
		lim := pid.NewLimited(10, 0, 0, -5, 5, 0)

		out, saturated := lim.Update(10, 0, 0.1)
		Expect(saturated).To(BeTrue())
		Expect(out).To(Equal(5.0))
		Expect(lim.Output()).To(Equal(5.0))
		Expect(lim.Saturated()).To(BeTrue())

		out, saturated = lim.Update(-10, 0, 0.1)
		Expect(saturated).To(BeTrue())
		Expect(out).To(Equal(-5.0))
	})

	It("clamps the integral and removes the excess from the output", func() {
		lim := pid.NewLimited(0, 1, 0, 0, 0, 2)

		var out float64
		for i := 0; i < 5; i++ {
			out, _ = lim.Update(1, 0, 1)
		}

		Expect(lim.Integral()).To(Equal(2.0))
		Expect(out).To(Equal(2.0))

		// unwinds immediately once the error reverses
		out, _ = lim.Update(0, 1, 1)
		Expect(lim.Integral()).To(Equal(1.0))
		Expect(out).To(Equal(1.0))
	})

	It("passes core errors through Step", func() {
		lim := pid.NewLimited(1, 0, 0, -1, 1, 0)

		out, err := lim.Step(3, 0, 0)
		Expect(err).To(MatchError(pid.ErrInvalidDt))
		Expect(out).To(Equal(1.0))
	})
})
