package execution

// Scheduler assigns test IDs to workers before the run starts. The result
// has one queue per worker, possibly empty.
type Scheduler interface {
	Schedule(testIDs []string, workers int) [][]string
}

// RoundRobinScheduler deals test IDs to workers like cards
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule gives worker w the IDs at positions w, w+workers, w+2*workers and
// so on. Each queue keeps the relative order of testIDs, which exact replay
// relies on when it runs with a single worker.
func (s *RoundRobinScheduler) Schedule(testIDs []string, workers int) [][]string {
	workers = max(workers, 1)

	queues := make([][]string, workers)
	for w := range queues {
		queue := []string{}
		for i := w; i < len(testIDs); i += workers {
			queue = append(queue, testIDs[i])
		}
		queues[w] = queue
	}
	return queues
}
