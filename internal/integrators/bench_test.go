package integrators

import (
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

func benchStore(n int) *body.Store {
	s := body.NewStore(0)
	for i := 0; i < n; i++ {
		s.Create(body.NewDesc(dynamo.V(float64(i), 10, 0), dynamo.Zero))
	}
	return s
}

func benchIntegrator(b *testing.B, integ Integrator, n int) {
	s := benchStore(n)
	g := dynamo.DefaultGravity

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Integrate(s, g, 1.0/120.0)
	}
}

func BenchmarkSymplecticEuler(b *testing.B) { benchIntegrator(b, NewSymplecticEuler(0), 1000) }
func BenchmarkEuler(b *testing.B)           { benchIntegrator(b, NewEuler(0), 1000) }
func BenchmarkVerlet(b *testing.B)          { benchIntegrator(b, NewVerlet(0), 1000) }

func BenchmarkSymplecticEuler_Parallel(b *testing.B) {
	benchIntegrator(b, NewSymplecticEuler(0), 2*parallelThreshold)
}
