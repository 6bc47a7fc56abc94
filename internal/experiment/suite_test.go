package experiment

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/agentlab/internal/abm"
)

func TestExperimentSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Experiment Suite")
}

var _ = Describe("Experiment", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{
			Parameters: []abm.Params{
				{"a": 1.0, "steps": 2},
				{"a": 2.0, "steps": 2},
			},
			Iterations: 3,
		}
	})

	It("schedules parameters x iterations x scenarios runs", func() {
		e, err := New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Runs()).To(Equal(6))

		cfg.Scenarios = []string{"base", "treated"}
		e, err = New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Runs()).To(Equal(12))
	})

	It("assigns run ids by expansion index", func() {
		e, err := New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		for i, spec := range e.Specs() {
			Expect(spec.RunID).To(Equal(i))
		}
	})

	It("partitions parameters into fixed and varied", func() {
		e, err := New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.FixedParameters()).To(HaveKeyWithValue("steps", 2))
		Expect(e.FixedParameters()).NotTo(HaveKey("a"))
		Expect(e.VariedParameters().Len()).To(Equal(2))
	})

	It("rejects uncomparable parameter values", func() {
		cfg.Parameters = append(cfg.Parameters, abm.Params{"a": map[string]int{}})
		_, err := New("count", countFactory, cfg)
		Expect(err).To(MatchError(abm.ErrConfiguration))
	})

	It("merges pooled bundles identically to sequential ones", func() {
		cfg.Record = true

		e, err := New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		sequential, err := e.Run(nil, false)
		Expect(err).NotTo(HaveOccurred())

		e, err = New("count", countFactory, cfg)
		Expect(err).NotTo(HaveOccurred())
		pooled, err := e.Run(NewWorkerPool(3), false)
		Expect(err).NotTo(HaveOccurred())

		Expect(pooled.Measures.Len()).To(Equal(sequential.Measures.Len()))
		for i := 0; i < sequential.Measures.Len(); i++ {
			Expect(pooled.Measures.Index(i)).To(Equal(sequential.Measures.Index(i)))
			Expect(pooled.Measures.At(i, "a_out")).To(Equal(sequential.Measures.At(i, "a_out")))
		}
		for kind := range sequential.Variables {
			Expect(pooled.Variables[kind].Len()).To(Equal(sequential.Variables[kind].Len()))
		}
	})
})
