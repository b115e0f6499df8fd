package pid_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidloop/internal/pid"
)

var _ = Describe("Shared", func() {
	It("serializes updates from several goroutines", func() {
		s := pid.NewShared(0, 1, 0)

		const workers, ticks = 8, 250
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < ticks; i++ {
					s.Update(1, 0, 1)
					_ = s.Output()
				}
			}()
		}
		wg.Wait()

		snap := s.Snapshot()
		Expect(snap.Integral()).To(Equal(float64(workers * ticks)))
		Expect(s.Output()).To(Equal(float64(workers * ticks)))
	})

	It("re-initializes under the lock", func() {
		s := pid.NewShared(1, 1, 1)
		s.Update(1, 0, 1)
		s.Init(2, 0, 0)

		Expect(s.Diagnostics()).To(Equal(pid.Diagnostics{}))
		Expect(s.SetParam("Kd", 0.5)).To(Succeed())
		Expect(s.Snapshot().Kd).To(Equal(0.5))

		out, err := s.Step(3, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(2*2.0 + 0.5*2.0))
	})
})
