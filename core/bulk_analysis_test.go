package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsAndWorkersLogic(t *testing.T) {
	jobs, nWorkers := GetNumberOfJobsAndWorkers(100, 10, 4)

	require.Len(t, jobs, 10)
	assert.Equal(t, 4, nWorkers)
	for i := 1; i < len(jobs); i++ {
		assert.Equal(t, jobs[i-1].end, jobs[i].start, "job ranges must be contiguous")
	}
	assert.Equal(t, 0, jobs[0].start)
	assert.Equal(t, 100, jobs[len(jobs)-1].end)
}

func TestJobsAndWorkersPartialLastBatch(t *testing.T) {
	jobs, nWorkers := GetNumberOfJobsAndWorkers(35, 10, 4)

	require.Len(t, jobs, 4)
	assert.Equal(t, 4, nWorkers)
	assert.Equal(t, 30, jobs[3].start)
	assert.Equal(t, 35, jobs[3].end)
}

func TestJobsAndWorkersSmallInputUsesOneWorker(t *testing.T) {
	jobs, nWorkers := GetNumberOfJobsAndWorkers(3, 10, 4)

	require.Len(t, jobs, 1)
	assert.Equal(t, 1, nWorkers)
	assert.Equal(t, 0, jobs[0].start)
	assert.Equal(t, 3, jobs[0].end)
}

func TestWorkerSettingsFallBackToDefaults(t *testing.T) {
	sc := &ServiceContext{}
	workers, batchSize := sc.workerSettings()
	assert.Equal(t, DefaultWorkers, workers)
	assert.Equal(t, DefaultBatchSize, batchSize)

	sc = &ServiceContext{Workers: 2, BatchSize: 3}
	workers, batchSize = sc.workerSettings()
	assert.Equal(t, 2, workers)
	assert.Equal(t, 3, batchSize)
}
