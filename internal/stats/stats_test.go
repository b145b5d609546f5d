package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.DatagramReceived()
	r.DatagramReceived()
	r.DropBadSourcePort()
	r.DropBusy()
	r.DropMalformed()
	r.DropNotAQuery()
	r.DropNotForUs()
	r.DropOversize()
	r.SendFailed()

	snap := r.Snapshot()
	assert.Equal(t, uint64(2), snap.Received)
	assert.Equal(t, uint64(1), snap.BadSourcePort)
	assert.Equal(t, uint64(1), snap.Busy)
	assert.Equal(t, uint64(1), snap.Malformed)
	assert.Equal(t, uint64(1), snap.NotAQuery)
	assert.Equal(t, uint64(1), snap.NotForUs)
	assert.Equal(t, uint64(1), snap.Oversize)
	assert.Equal(t, uint64(1), snap.SendFailures)
	assert.Equal(t, uint64(0), snap.Replies)
}

func TestReplySentAccumulatesRecordCounts(t *testing.T) {
	r := NewRecorder()

	r.ReplySent(1, 4)
	r.ReplySent(2, 0)

	snap := r.Snapshot()
	assert.Equal(t, uint64(2), snap.Replies)
	assert.Equal(t, uint64(3), snap.AnswerRecords)
	assert.Equal(t, uint64(4), snap.AdditionalRecords)
}

func TestRestoreSeedsCounters(t *testing.T) {
	r := NewRecorder()
	r.Restore(Snapshot{
		Received: 100,
		Replies:  40,
		NotForUs: 7,
	})

	r.DatagramReceived()
	r.ReplySent(1, 0)

	snap := r.Snapshot()
	assert.Equal(t, uint64(101), snap.Received)
	assert.Equal(t, uint64(41), snap.Replies)
	assert.Equal(t, uint64(7), snap.NotForUs)
}

func TestRecorderConcurrentIncrements(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.DatagramReceived()
				r.ReplySent(1, 2)
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, uint64(5000), snap.Received)
	assert.Equal(t, uint64(5000), snap.Replies)
	assert.Equal(t, uint64(5000), snap.AnswerRecords)
	assert.Equal(t, uint64(10000), snap.AdditionalRecords)
}
