package sim

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/freefall/internal/dynamo"
)

var _ = Describe("Integrate", func() {
	var cfg dynamo.Config

	BeforeEach(func() {
		cfg = dynamo.DefaultConfig()
	})

	run := func() *dynamo.Result {
		result, err := Integrate(cfg)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	DescribeTable("initial sample",
		func(policy dynamo.TruncationPolicy, height float64) {
			cfg.Policy = policy
			cfg.InitialHeight = height
			result := run()

			for _, s := range []dynamo.TimeSeries{result.Drag, result.Vacuum} {
				Expect(s.Position[0]).To(Equal(height))
				Expect(s.Velocity[0]).To(BeZero())
				Expect(s.Time[0]).To(BeZero())
			}
		},
		Entry("uniform trim", dynamo.UniformTrim, 167.64),
		Entry("independent report", dynamo.IndependentReport, 167.64),
		Entry("low drop", dynamo.UniformTrim, 1.5),
	)

	It("spaces samples by the time step", func() {
		result := run()
		for i, t := range result.Vacuum.Time {
			Expect(t).To(Equal(float64(i) * cfg.Dt))
		}
	})

	Describe("vacuum series", func() {
		It("follows the closed form", func() {
			result := run()
			sum := 0.0
			for i := 1; i < result.Vacuum.Len(); i++ {
				v := result.Vacuum.Velocity[i]
				Expect(v).To(BeNumerically("~", float64(i)*cfg.Gravity*cfg.Dt, 1e-9))
				sum += v * cfg.Dt
				Expect(result.Vacuum.Position[i]).To(BeNumerically("~", cfg.InitialHeight-sum, 1e-9))
			}
		})

		It("lands near sqrt(2h/g)", func() {
			result := run()
			expected := math.Sqrt(2 * cfg.InitialHeight / cfg.Gravity)
			Expect(expected).To(BeNumerically("~", 5.845, 0.001))
			Expect(result.VacuumFinal.Time).To(BeNumerically("~", expected, 2*cfg.Dt))
			Expect(result.VacuumFinal.Velocity).To(BeNumerically("~", 57.35, 0.1))
		})
	})

	Describe("drag series", func() {
		It("solves the step quadratic with the physical root", func() {
			result := run()
			a := -cfg.DragCoefficient / (2 * cfg.Mass)
			b := -1 / cfg.Dt
			for i := 1; i < result.Drag.Len(); i++ {
				v0 := result.Drag.Velocity[i-1]
				c := cfg.Gravity + a*v0*v0 + v0/cfg.Dt
				root := (-b - math.Sqrt(b*b-4*a*c)) / (2 * a)
				Expect(result.Drag.Velocity[i]).To(BeNumerically("~", root, 1e-9))
			}
		})

		It("increases monotonically and stays below terminal velocity", func() {
			cfg.InitialHeight = 5000
			cfg.Duration = 60
			result := run()
			vt := cfg.TerminalVelocity()
			for i := 1; i < result.Drag.Len(); i++ {
				Expect(result.Drag.Velocity[i]).To(BeNumerically(">=", result.Drag.Velocity[i-1]))
				Expect(result.Drag.Velocity[i]).To(BeNumerically("<=", vt+cfg.Gravity*cfg.Dt))
			}
			Expect(result.Drag.Last().Velocity).To(BeNumerically("~", vt, 0.01))
		})

		It("lands later and slower than the vacuum model", func() {
			result := run()
			Expect(result.DragFinal.Time).To(BeNumerically(">", math.Sqrt(2*cfg.InitialHeight/cfg.Gravity)))
			Expect(result.DragFinal.Time).To(BeNumerically(">", result.VacuumFinal.Time))
			Expect(result.DragFinal.Velocity).To(BeNumerically("<", cfg.TerminalVelocity()))
			Expect(result.DragFinal.Velocity).To(BeNumerically(">", 35.0))
		})
	})

	It("degenerates to the vacuum model without drag", func() {
		cfg.DragCoefficient = 0
		result := run()
		Expect(result.Drag.Len()).To(Equal(result.Vacuum.Len()))
		for i := range result.Drag.Velocity {
			Expect(result.Drag.Velocity[i]).To(BeNumerically("~", result.Vacuum.Velocity[i], 1e-9))
			Expect(result.Drag.Position[i]).To(BeNumerically("~", result.Vacuum.Position[i], 1e-9))
		}
		Expect(result.Metrics["impact_delay"]).To(BeNumerically("~", 0, 1e-9))
	})

	Describe("truncation", func() {
		It("reports the first sample at or below ground under uniform trim", func() {
			result := run()
			Expect(result.DragFinal.Position).To(BeNumerically("<=", 0))
			Expect(result.DragFinal).To(Equal(result.Drag.Last()))
			Expect(result.VacuumFinal.Position).To(BeNumerically("<=", 0))
			Expect(result.Vacuum.Position[result.VacuumFinalIndex-1]).To(BeNumerically(">", 0))
		})

		It("reports the last positive sample under independent report", func() {
			cfg.Policy = dynamo.IndependentReport
			result := run()
			Expect(result.DragFinal.Position).To(BeNumerically(">", 0))
			Expect(result.VacuumFinal.Position).To(BeNumerically(">", 0))
			Expect(result.Vacuum.Position[result.VacuumFinalIndex+1]).To(BeNumerically("<=", 0))
			Expect(result.Vacuum.Len()).To(BeNumerically(">", result.Drag.Len()))
		})

		It("runs to the configured duration when the ground is out of reach", func() {
			cfg.Duration = 2
			result := run()
			Expect(result.Impacted).To(BeFalse())
			Expect(result.Drag.Len()).To(Equal(cfg.Samples()))
			Expect(result.DragFinal).To(Equal(result.Drag.Last()))
			Expect(result.VacuumFinal).To(Equal(result.Vacuum.Last()))
		})

		It("keeps only the initial sample for a drop from the ground", func() {
			cfg.InitialHeight = 0
			result := run()
			Expect(result.Drag.Len()).To(Equal(1))
			Expect(result.Vacuum.Len()).To(Equal(1))
		})
	})

	It("is deterministic", func() {
		first := run()
		second := run()
		Expect(second.Drag).To(Equal(first.Drag))
		Expect(second.Vacuum).To(Equal(first.Vacuum))
		Expect(second.Metrics).To(Equal(first.Metrics))
	})
})
