package pid_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidloop/internal/pid"
)

var _ = Describe("Controller", func() {
	var c pid.Controller

	BeforeEach(func() {
		c = pid.Controller{}
	})

	Describe("Init", func() {
		It("stores gains and zeroes history", func() {
			c.Init(1.5, 0.2, 0.01)

			Expect(c.Kp).To(Equal(1.5))
			Expect(c.Ki).To(Equal(0.2))
			Expect(c.Kd).To(Equal(0.01))
			Expect(c.Integral()).To(BeZero())
			Expect(c.PreError()).To(BeZero())
			Expect(c.Output()).To(BeZero())
		})

		It("resets accumulated state when called again", func() {
			c.Init(1, 1, 1)
			for i := 0; i < 5; i++ {
				c.Update(10, float64(i), 0.1)
			}
			Expect(c.Integral()).NotTo(BeZero())
			Expect(c.PreError()).NotTo(BeZero())

			c.Init(2, 0, 0)

			Expect(c.Kp).To(Equal(2.0))
			Expect(c.Ki).To(BeZero())
			Expect(c.Integral()).To(BeZero())
			Expect(c.PreError()).To(BeZero())
			Expect(c.Output()).To(BeZero())
		})

		It("accepts negative gains for inverted processes", func() {
			c.Init(-2, 0, 0)
			Expect(c.Update(1, 0, 1)).To(Equal(-2.0))
		})
	})

	Describe("Update", func() {
		It("holds zero output while setpoint equals pv", func() {
			c.Init(3.2, 1.1, 0.7)
			for i := 0; i < 100; i++ {
				Expect(c.Update(42, 42, 0.01)).To(BeZero())
			}
			Expect(c.Integral()).To(BeZero())
		})

		It("accumulates the integral of a constant error", func() {
			const (
				e = 3.0
				k = 0.5
				n = 10
			)
			c.Init(0, k, 0)

			var out float64
			for i := 0; i < n; i++ {
				out = c.Update(e, 0, 1)
			}

			Expect(c.Integral()).To(BeNumerically("~", n*e, 1e-12))
			Expect(out).To(BeNumerically("~", k*n*e, 1e-12))
		})

		It("responds to a change in error through the derivative", func() {
			c.Init(0, 0, 1)

			first := c.Update(5, 3, 1)
			second := c.Update(5, 0, 1)

			Expect(first).To(Equal(2.0))
			Expect(second).To(Equal(3.0))
		})

		It("is purely proportional without history when Ki and Kd are zero", func() {
			c.Init(1, 0, 0)

			Expect(c.Update(10, 7, 1)).To(Equal(3.0))
			Expect(c.Update(10, 8, 1)).To(Equal(2.0))
			Expect(c.Output()).To(Equal(2.0))
		})

		It("combines all three terms", func() {
			c.Init(2, 0.5, 0.25)

			// error 4, integral 0.4, derivative 40
			out := c.Update(5, 1, 0.1)

			Expect(out).To(BeNumerically("~", 2*4+0.5*0.4+0.25*40, 1e-9))
			Expect(c.PreError()).To(Equal(4.0))
		})

		It("is deterministic across instances", func() {
			a := pid.New(1.2, 0.3, 0.05)
			b := pid.New(1.2, 0.3, 0.05)

			inputs := [][3]float64{
				{1, 0, 0.01}, {1, 0.2, 0.012}, {1, 0.5, 0.009},
				{2, 0.9, 0.01}, {2, 1.6, 0.011}, {0, 1.9, 0.01},
			}
			for _, in := range inputs {
				Expect(a.Update(in[0], in[1], in[2])).To(Equal(b.Update(in[0], in[1], in[2])))
			}
		})

		It("keeps copies independent", func() {
			a := pid.New(1, 1, 0)
			a.Update(1, 0, 1)

			b := a
			b.Update(1, 0, 1)

			Expect(a.Integral()).To(Equal(1.0))
			Expect(b.Integral()).To(Equal(2.0))
		})
	})

	DescribeTable("degenerate dt",
		func(dt float64) {
			c.Init(2, 1, 1)
			c.Update(4, 2, 1)
			integral, preError := c.Integral(), c.PreError()

			out, err := c.Step(4, 1, dt)

			Expect(err).To(MatchError(pid.ErrInvalidDt))
			Expect(out).To(Equal(6.0))
			Expect(math.IsNaN(out) || math.IsInf(out, 0)).To(BeFalse())
			Expect(c.Integral()).To(Equal(integral))
			Expect(c.PreError()).To(Equal(preError))
			Expect(c.Healthy()).To(BeTrue())
		},
		Entry("zero", 0.0),
		Entry("negative", -0.01),
		Entry("NaN", math.NaN()),
		Entry("+Inf", math.Inf(1)),
		Entry("-Inf", math.Inf(-1)),
	)

	Describe("Step", func() {
		It("returns no error for a normal tick", func() {
			c.Init(1, 0, 0)
			out, err := c.Step(10, 7, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(3.0))
		})

		It("flags a non-finite output", func() {
			c.Init(1, 1, 1)
			out, err := c.Step(1, math.NaN(), 0.1)

			Expect(err).To(MatchError(pid.ErrNonFinite))
			Expect(math.IsNaN(out)).To(BeTrue())
			Expect(c.Healthy()).To(BeFalse())
		})

		It("recovers after Init following a fault", func() {
			c.Init(1, 1, 1)
			_, err := c.Step(math.Inf(1), 0, 0.1)
			Expect(err).To(HaveOccurred())

			c.Init(1, 1, 1)
			_, err = c.Step(1, 0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Healthy()).To(BeTrue())
		})
	})

	Describe("re-tuning", func() {
		It("exposes gains", func() {
			c.Init(1, 2, 3)
			Expect(c.Params()).To(Equal(map[string]float64{"Kp": 1, "Ki": 2, "Kd": 3}))
		})

		It("keeps history across SetParam", func() {
			c.Init(1, 1, 0)
			c.Update(1, 0, 1)

			Expect(c.SetParam("Ki", 4)).To(Succeed())

			Expect(c.Ki).To(Equal(4.0))
			Expect(c.Integral()).To(Equal(1.0))
			Expect(c.Update(1, 0, 1)).To(Equal(1 + 4*2.0))
		})

		It("rejects unknown and non-finite parameters", func() {
			Expect(c.SetParam("Target", 1)).To(MatchError(pid.ErrUnknownParam))
			Expect(c.SetParam("Kp", math.Inf(1))).To(MatchError(pid.ErrNonFiniteGain))
		})

		It("Reset keeps gains", func() {
			c.Init(1, 1, 1)
			c.Update(3, 0, 1)
			c.Reset()

			Expect(c.Kp).To(Equal(1.0))
			Expect(c.Integral()).To(BeZero())
			Expect(c.Output()).To(BeZero())
		})
	})

	It("reports diagnostics", func() {
		c.Init(2, 0.5, 0)
		c.Update(3, 1, 1)

		d := c.Diagnostics()
		Expect(d.Error).To(Equal(2.0))
		Expect(d.Integral).To(Equal(2.0))
		Expect(d.P).To(Equal(4.0))
		Expect(d.I).To(Equal(1.0))
		Expect(d.Output).To(Equal(5.0))
	})
})
