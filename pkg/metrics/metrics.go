package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't match the defined labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when attempting to add a negative value to a counter.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when registering a metric with a name that is already registered.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// DefaultBuckets are request duration buckets in seconds, 1ms to 10s.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// atomicFloat64 stores float64 bits for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Metric is a registered family.
type Metric interface {
	Name() string
	Help() string
	Type() string
	Collect() []Sample
}

// Sample is one exposition line.
type Sample struct {
	Name   string
	Labels []Label
	Value  float64
}

// Label is a name/value pair.
type Label struct {
	Name, Value string
}

// series holds the children of a family keyed by label values.
type series[T any] struct {
	name       string
	help       string
	labelNames []string
	newChild   func() *T

	mu       sync.RWMutex
	children map[string]*child[T]
}

type child[T any] struct {
	labels []Label
	v      *T
}

func (s *series[T]) get(values []string) (*T, error) {
	if len(values) != len(s.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d", ErrLabelCountMismatch, s.name, len(s.labelNames), len(values))
	}
	key := strings.Join(values, "\x00")

	s.mu.RLock()
	c, ok := s.children[key]
	s.mu.RUnlock()
	if ok {
		return c.v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.children[key]; ok {
		return c.v, nil
	}
	labels := make([]Label, len(values))
	for i, v := range values {
		labels[i] = Label{Name: s.labelNames[i], Value: v}
	}
	c = &child[T]{labels: labels, v: s.newChild()}
	s.children[key] = c
	return c.v, nil
}

// sorted returns the children ordered by label values.
func (s *series[T]) sorted() []*child[T] {
	s.mu.RLock()
	keys := make([]string, 0, len(s.children))
	for k := range s.children {
		keys = append(keys, k)
	}
	out := make([]*child[T], 0, len(keys))
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, s.children[k])
	}
	s.mu.RUnlock()
	return out
}

// Counter is a monotonically increasing family.
type Counter struct {
	series[atomicFloat64]
}

func newCounter(name, help string, labelNames []string) *Counter {
	return &Counter{series[atomicFloat64]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		newChild:   func() *atomicFloat64 { return &atomicFloat64{} },
		children:   make(map[string]*child[atomicFloat64]),
	}}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Help() string { return c.help }
func (c *Counter) Type() string { return "counter" }

// Add adds delta to the child identified by values.
func (c *Counter) Add(delta float64, values ...string) error {
	if delta < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeCounterValue, c.name)
	}
	v, err := c.get(values)
	if err != nil {
		return err
	}
	v.Add(delta)
	return nil
}

// Inc adds one.
func (c *Counter) Inc(values ...string) error {
	return c.Add(1, values...)
}

// Value returns the current value of a child, or 0 if it was never touched.
func (c *Counter) Value(values ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ch, ok := c.children[strings.Join(values, "\x00")]; ok {
		return ch.v.Load()
	}
	return 0
}

// Total returns the sum of every child.
func (c *Counter) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum float64
	for _, ch := range c.children {
		sum += ch.v.Load()
	}
	return sum
}

func (c *Counter) Collect() []Sample {
	var out []Sample
	for _, ch := range c.sorted() {
		out = append(out, Sample{Name: c.name, Labels: ch.labels, Value: ch.v.Load()})
	}
	return out
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	series[histogramValue]
	buckets []float64
}

type histogramValue struct {
	counts []atomic.Uint64 // one per bucket, +Inf last
	sum    atomicFloat64
	count  atomic.Uint64
}

func newHistogram(name, help string, buckets []float64, labelNames []string) *Histogram {
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	if len(bounds) == 0 || !math.IsInf(bounds[len(bounds)-1], 1) {
		bounds = append(bounds, math.Inf(1))
	}
	return &Histogram{
		series: series[histogramValue]{
			name:       name,
			help:       help,
			labelNames: labelNames,
			newChild:   func() *histogramValue { return &histogramValue{counts: make([]atomic.Uint64, len(bounds))} },
			children:   make(map[string]*child[histogramValue]),
		},
		buckets: bounds,
	}
}

func (h *Histogram) Name() string { return h.name }
func (h *Histogram) Help() string { return h.help }
func (h *Histogram) Type() string { return "histogram" }

// Observe records value for the child identified by values.
func (h *Histogram) Observe(value float64, values ...string) error {
	v, err := h.get(values)
	if err != nil {
		return err
	}
	i := sort.SearchFloat64s(h.buckets, value)
	v.counts[i].Add(1)
	v.sum.Add(value)
	v.count.Add(1)
	return nil
}

// Count returns the number of observations of a child.
func (h *Histogram) Count(values ...string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ch, ok := h.children[strings.Join(values, "\x00")]; ok {
		return ch.v.count.Load()
	}
	return 0
}

func (h *Histogram) Collect() []Sample {
	var out []Sample
	for _, ch := range h.sorted() {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += ch.v.counts[i].Load()
			labels := append(append([]Label(nil), ch.labels...), Label{Name: "le", Value: formatFloat(bound)})
			out = append(out, Sample{Name: h.name + "_bucket", Labels: labels, Value: float64(cumulative)})
		}
		out = append(out,
			Sample{Name: h.name + "_sum", Labels: ch.labels, Value: ch.v.sum.Load()},
			Sample{Name: h.name + "_count", Labels: ch.labels, Value: float64(ch.v.count.Load())},
		)
	}
	return out
}

// Registry holds metric families in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter registers a counter. Duplicate names panic since they would
// produce an invalid exposition.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := newCounter(name, help, labels)
	r.register(c)
	return c
}

// NewHistogram registers a histogram with the given bucket upper bounds.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	h := newHistogram(name, help, buckets, labels)
	r.register(h)
	return h
}

func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// WriteTo writes every family with at least one sample.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	metrics := append([]Metric(nil), r.metrics...)
	r.mu.RUnlock()

	var b strings.Builder
	for _, m := range metrics {
		samples := m.Collect()
		if len(samples) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", m.Name(), escapeHelp(m.Help()))
		fmt.Fprintf(&b, "# TYPE %s %s\n", m.Name(), m.Type())
		for _, s := range samples {
			b.WriteString(s.Name)
			if len(s.Labels) > 0 {
				b.WriteByte('{')
				for i, l := range s.Labels {
					if i > 0 {
						b.WriteByte(',')
					}
					fmt.Fprintf(&b, `%s="%s"`, l.Name, escapeLabelValue(l.Value))
				}
				b.WriteByte('}')
			}
			b.WriteByte(' ')
			b.WriteString(formatFloat(s.Value))
			b.WriteByte('\n')
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = r.WriteTo(w)
	})
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func escapeLabelValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
