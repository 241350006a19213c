package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/florianHoidn/rl-drone-env/internal/dynamo"
	"github.com/florianHoidn/rl-drone-env/internal/integrators"
	"github.com/florianHoidn/rl-drone-env/internal/linalg"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

var _ = Describe("Engine", func() {
	var (
		spec *vehicle.Spec
		eng  *physics.Engine
	)

	BeforeEach(func() {
		spec = vehicle.Crazyflie()
		eng = physics.NewEngine(spec)
		eng.Reset(physics.DefaultState())
	})

	Describe("orientation", func() {
		It("stays a unit quaternion under asymmetric thrust", func() {
			s := physics.DefaultState()
			s.AngularVelocity = linalg.Vec3{X: 3, Y: -2, Z: 7}
			eng.Reset(s)
			h := spec.HoverRPM()
			action := physics.ControlAction{RPM: [4]float64{h + 500, h - 400, h + 300, h - 500}}

			for i := 0; i < 500; i++ {
				Expect(eng.ApplyControl(action, 1.0/240)).To(Succeed())
				Expect(eng.Orientation().Norm()).To(BeNumerically("~", 1, 1e-9))
			}
		})

		DescribeTable("is left unchanged with zero rotor speed and no spin",
			func(q linalg.Quat) {
				s := physics.DefaultState()
				s.Orientation = q
				eng.Reset(s)
				for i := 0; i < 50; i++ {
					Expect(eng.ApplyControl(physics.Uniform(0), 0.01)).To(Succeed())
				}
				Expect(eng.Orientation()).To(Equal(q))
				Expect(eng.State().AngularVelocity).To(Equal(linalg.Vec3{}))
			},
			Entry("identity", linalg.QuatIdentity()),
			Entry("rotated", linalg.Quat{X: 0.5, Y: 0.5, Z: 0.5, W: 0.5}),
			Entry("axis 1,2,3 by 0.7", linalg.QuatFromAxisAngle(linalg.Vec3{X: 1, Y: 2, Z: 3}, 0.7)),
			Entry("tilted axis by 2.1", linalg.QuatFromAxisAngle(linalg.Vec3{X: -0.3, Y: 0.1, Z: 0.9}, 2.1)),
			Entry("small pitch", linalg.QuatFromAxisAngle(linalg.Vec3{Y: 1}, 0.0491)),
			Entry("near half turn", linalg.QuatFromAxisAngle(linalg.Vec3{X: 0.6, Y: -0.8}, 3.1)),
		)
	})

	Describe("free fall", func() {
		It("accelerates at g after one step of 0.01 s", func() {
			Expect(eng.ApplyControl(physics.Uniform(0), 0.01)).To(Succeed())
			v := eng.State().LinearVelocity
			Expect(v.Z).To(BeNumerically("~", -0.0981, 1e-9))
			Expect(v.X).To(BeNumerically("~", 0, 1e-12))
			Expect(v.Y).To(BeNumerically("~", 0, 1e-12))
		})
	})

	Describe("hover", func() {
		It("holds position at the hover rpm", func() {
			hover := physics.Uniform(spec.HoverRPM())
			for i := 0; i < 100; i++ {
				Expect(eng.ApplyControl(hover, 1.0/60)).To(Succeed())
				Expect(eng.State().AngularVelocity.Norm()).To(BeNumerically("<=", 1e-6))
			}
			Expect(eng.State().LinearVelocity.Z).To(BeNumerically("~", 0, 1e-9))
			Expect(eng.Position().Z).To(BeNumerically("~", 0, 1e-9))
		})
	})

	Describe("determinism", func() {
		It("produces identical trajectories on independent engines", func() {
			other := physics.NewEngine(spec)
			start := physics.DefaultState()
			start.AngularVelocity = linalg.Vec3{X: 0.3, Y: 0.1, Z: -0.4}
			eng.Reset(start)
			other.Reset(start)

			for i := 0; i < 200; i++ {
				a := physics.ControlAction{RPM: [4]float64{
					14000 + float64(i), 15000, 14500 - float64(i), 16000,
				}}
				dt := 0.005 + 0.0001*float64(i%7)
				Expect(eng.ApplyControl(a, dt)).To(Succeed())
				Expect(other.ApplyControl(a, dt)).To(Succeed())
			}
			Expect(eng.State()).To(Equal(other.State()))
		})
	})

	Describe("convergence", func() {
		var (
			start  physics.DroneState
			action physics.ControlAction
		)

		BeforeEach(func() {
			start = physics.DefaultState()
			start.AngularVelocity = linalg.Vec3{X: 1, Y: -0.5, Z: 2}
			hover := spec.HoverRPM()
			action = physics.ControlAction{RPM: [4]float64{hover + 50, hover, hover, hover}}
		})

		run := func(steps int) dynamo.State {
			e := physics.NewEngine(spec)
			e.Reset(start)
			dt := 1.0 / float64(steps)
			for i := 0; i < steps; i++ {
				Expect(e.ApplyControl(action, dt)).To(Succeed())
			}
			return e.State().Flatten()
		}

		It("shows fourth-order error reduction when dt is halved", func() {
			dyn := physics.NewDynamics(spec)
			integ := integrators.NewRK4()
			ref := dynamo.State(start.Flatten())
			const refSteps = 1600
			for i := 0; i < refSteps; i++ {
				ref = integ.Step(dyn, ref, action.Slice(), float64(i)/refSteps, 1.0/refSteps)
			}

			coarse := run(50).MaxAbsDiff(ref)
			fine := run(100).MaxAbsDiff(ref)
			Expect(fine).To(BeNumerically(">", 0))
			Expect(coarse / fine).To(BeNumerically(">=", 12))
			Expect(coarse / fine).To(BeNumerically("<=", 20))
		})

		It("agrees with an adaptive Dormand-Prince reference", func() {
			dyn := physics.NewDynamics(spec)
			ref, err := integrators.NewRK45().Integrate(dyn, dynamo.State(start.Flatten()), action.Slice(), 0, 1, 0.01, 1e-10)
			Expect(err).NotTo(HaveOccurred())
			Expect(run(100).MaxAbsDiff(ref)).To(BeNumerically("<", 1e-5))
		})
	})

	Describe("energy", func() {
		It("is conserved for torque-free spin without gravity", func() {
			e := physics.NewEngine(spec, physics.WithGravity(linalg.Vec3{}))
			s := physics.DefaultState()
			s.AngularVelocity = linalg.Vec3{X: 2, Y: 1, Z: -3}
			e.Reset(s)
			e0 := e.Energy()
			for i := 0; i < 600; i++ {
				Expect(e.ApplyControl(physics.Uniform(0), 1.0/240)).To(Succeed())
			}
			Expect(math.Abs(e.Energy()-e0) / e0).To(BeNumerically("<", 1e-8))
		})
	})
})
