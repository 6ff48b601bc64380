package helpscot

import (
	"context"
	"fmt"
	"hash/crc32"
	"sync"
)

// partitionRouter dispatches incoming messages to worker queues partitioned by channel so that
// messages of a channel are processed in the order they were received while channels are processed
// concurrently
type partitionRouter struct {
	log SLogger

	// messageQueues with partition keyed by the hash of the channel id
	messageQueues []chan *IncomingMessage

	hashMask uint32

	// mu guards closed and the sending on messageQueues
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log SLogger, instrumenter *instrumenter) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	pr = new(partitionRouter)
	pr.messageQueues = make([]chan *IncomingMessage, partitionCount)
	for i := range pr.messageQueues {
		pr.messageQueues[i] = make(chan *IncomingMessage, queueBufferSize)
	}
	pr.hashMask = uint32(partitionCount - 1)
	pr.log = log
	pr.instrumenter = instrumenter

	return pr, nil
}

// start starts one worker per partition processing its queue with process until stop is called
func (pr *partitionRouter) start(process func(m *IncomingMessage)) {
	for i, q := range pr.messageQueues {
		pr.workers.Add(1)

		go func(partition int, queue chan *IncomingMessage) {
			defer pr.workers.Done()

			for m := range queue {
				process(m)
			}

			pr.log.Debugf("Worker for partition [%d] terminated\n", partition)
		}(i, q)
	}
}

// route routes the message processing to the partition of its channel. Messages routed after
// stop are dropped
func (pr *partitionRouter) route(m *IncomingMessage) {
	partition := pr.partitionForChannel(m.Channel)

	pr.mu.RLock()
	defer pr.mu.RUnlock()

	if pr.closed {
		pr.log.Printf("Dropping message [%s] in channel [%s] received after shutdown\n", m.Timestamp, m.Channel)
		return
	}

	pr.log.Debugf("Dispatching message [%s] to partition [%d]\n", m.Timestamp, partition)
	d := measure(func() {
		pr.messageQueues[partition] <- m
	})

	pr.coreMetrics.msgDispatchLatencyMillis.Record(context.Background(), d.Milliseconds(), pr.attrs())
}

// stop closes all queues and waits for the workers to finish processing what was queued
func (pr *partitionRouter) stop() {
	pr.mu.Lock()
	if !pr.closed {
		pr.closed = true
		for _, q := range pr.messageQueues {
			close(q)
		}
	}
	pr.mu.Unlock()

	pr.workers.Wait()
}

// partitionForChannel returns the partition index for a channel id
func (pr *partitionRouter) partitionForChannel(channelID string) (partition int) {
	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(crc32.ChecksumIEEE([]byte(channelID)) & pr.hashMask)
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val > 0) && (val&(val-1)) == 0
}
