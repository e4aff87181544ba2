package cmt

import (
	"context"
	"time"
)

type tier int

const (
	tierHigh tier = iota
	tierNormal
	tierLow

	numTiers
)

func tierFor(p Priority) tier {
	switch p {
	case PrioritySecondaryNormal:
		return tierHigh
	case PriorityLow:
		return tierLow
	default:
		return tierNormal
	}
}

// QueueLevels is the number of messages waiting in each queue of a core.
type QueueLevels struct {
	High   int
	Normal int
	Low    int
}

// Total returns the number of messages waiting in all queues.
func (l QueueLevels) Total() int {
	return l.High + l.Normal + l.Low
}

// queueSet is the High/Normal/Low queue triple of one core. Many producers,
// one consumer.
type queueSet struct {
	tiers [numTiers]chan Message
	wake  chan struct{}
}

func newQueueSet(conf QueueConfig) *queueSet {
	q := &queueSet{wake: make(chan struct{}, 1)}
	q.tiers[tierHigh] = make(chan Message, conf.High)
	q.tiers[tierNormal] = make(chan Message, conf.Normal)
	q.tiers[tierLow] = make(chan Message, conf.Low)
	return q
}

func (q *queueSet) empty() bool {
	for _, ch := range q.tiers {
		if len(ch) != 0 {
			return false
		}
	}
	return true
}

func (q *queueSet) tryAdd(t tier, msg Message) bool {
	select {
	case q.tiers[t] <- msg:
	default:
		return false
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// tryRemove takes the first message in High, Normal, Low order.
func (q *queueSet) tryRemove() (Message, bool) {
	for _, ch := range q.tiers {
		select {
		case msg := <-ch:
			return msg, true
		default:
		}
	}
	return Message{}, false
}

// remove blocks on the High queue until a message is available. A post to
// any other queue wakes it up for another ordered scan.
func (q *queueSet) remove(ctx context.Context) (Message, error) {
	for {
		if msg, ok := q.tryRemove(); ok {
			return msg, nil
		}
		select {
		case msg := <-q.tiers[tierHigh]:
			return msg, nil
		case <-q.wake:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// park waits until something is posted, the timer fires or ctx is done.
func (q *queueSet) park(ctx context.Context, timer *time.Timer, d time.Duration) {
	if !q.empty() {
		return
	}
	timer.Reset(d)
	select {
	case <-q.wake:
	case <-timer.C:
		return
	case <-ctx.Done():
	}
	timer.Stop()
}

func (q *queueSet) levels() QueueLevels {
	return QueueLevels{
		High:   len(q.tiers[tierHigh]),
		Normal: len(q.tiers[tierNormal]),
		Low:    len(q.tiers[tierLow]),
	}
}
