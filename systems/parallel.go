package systems

import (
	"math/rand/v2"
	"runtime"
	"sync"
)

// DefaultParallelThreshold is the minimum agent count to fan a pass out.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// Worker holds per-goroutine reusable state for a pass.
type Worker struct {
	ID        int
	Neighbors []int32
	Rand      *rand.Rand

	src *rand.PCG
}

func newWorker(id int) Worker {
	src := rand.NewPCG(uint64(id), 0)
	return Worker{
		ID:        id,
		Neighbors: make([]int32, 0, 256),
		Rand:      rand.New(src),
		src:       src,
	}
}

// Reseed points the worker's RNG at the stream for one agent on one step.
// Draws for a given index do not depend on chunking, but the index a child
// receives from a concurrent create does, so parallel runs diverge from serial
// ones once cells divide.
func (w *Worker) Reseed(seed uint64, step int32, index int) {
	w.src.Seed(seed^(uint64(step)*0x9E3779B97F4A7C15), uint64(index)*0xBF58476D1CE4E5B9+1)
}

// PassFunc processes the half-open agent range [lo, hi).
type PassFunc func(lo, hi int, w *Worker)

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
	fn         PassFunc
}

// Pool runs data-parallel passes over an index range with a barrier at the end of each pass.
type Pool struct {
	threshold  int
	numWorkers int
	workers    []Worker

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold <= 0 uses DefaultParallelThreshold.
// Goroutines are started lazily on the first pass large enough to need them.
func NewPool(workers, threshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	p := &Pool{
		threshold:  threshold,
		numWorkers: workers,
		workers:    make([]Worker, workers),
	}
	for i := range p.workers {
		p.workers[i] = newWorker(i)
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.numWorkers }

// Run calls fn over [0, n) and returns once every chunk has completed.
func (p *Pool) Run(n int, fn PassFunc) {
	if n <= 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		fn(0, n, &p.workers[0])
		return
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	scratch := &p.workers[id]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// Close signals all workers to exit and waits for them.
func (p *Pool) Close() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
