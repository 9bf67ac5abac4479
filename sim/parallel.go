package sim

import (
	"runtime"
	"sync"
)

// stageFunc processes work items [start, end) and returns a count folded
// into the stage result.
type stageFunc func(start, end int) int

// span is one worker's share of a stage.
type span struct {
	start, end int
	fn         stageFunc
}

// pool runs one stage at a time over persistent worker goroutines. Worker
// i always takes the i-th contiguous span of the items. run returns only
// after every span has finished, which is the barrier between pipeline
// stages.
type pool struct {
	numWorkers int
	threshold  int

	inbox   []chan span // one per worker
	results []int       // written by worker i, read after the barrier
	barrier sync.WaitGroup
	exited  sync.WaitGroup
}

func newPool(workers, threshold int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{
		numWorkers: workers,
		threshold:  max(threshold, 1),
	}
}

// start launches the workers. It is a no-op for a single-worker pool or
// when already started.
func (p *pool) start() {
	if p.inbox != nil || p.numWorkers < 2 {
		return
	}
	p.inbox = make([]chan span, p.numWorkers)
	p.results = make([]int, p.numWorkers)
	for i := range p.inbox {
		p.inbox[i] = make(chan span, 1)
		p.exited.Add(1)
		go p.work(i)
	}
}

// stop closes every inbox and waits for the workers to exit.
func (p *pool) stop() {
	if p.inbox == nil {
		return
	}
	for _, ch := range p.inbox {
		close(ch)
	}
	p.exited.Wait()
	p.inbox = nil
}

func (p *pool) work(i int) {
	defer p.exited.Done()
	for s := range p.inbox[i] {
		p.results[i] = s.fn(s.start, s.end)
		p.barrier.Done()
	}
}

// run executes fn over [0, n) and sums the per-span results. serial forces
// a single inline call, used for scatter stages when bit-exact
// repeatability is required.
func (p *pool) run(n int, serial bool, fn stageFunc) int {
	if n <= 0 {
		return 0
	}
	if serial || n < p.threshold || p.numWorkers < 2 {
		return fn(0, n)
	}
	p.start()

	size := (n + p.numWorkers - 1) / p.numWorkers
	used := (n + size - 1) / size
	p.barrier.Add(used)
	for i := 0; i < used; i++ {
		p.inbox[i] <- span{start: i * size, end: min((i+1)*size, n), fn: fn}
	}
	p.barrier.Wait()

	total := 0
	for _, r := range p.results[:used] {
		total += r
	}
	return total
}
