package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeFiles(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		stats := SummarizeFiles("/archive", nil)
		assert.Equal(t, DirectoryStats{Directory: "/archive"}, stats)
	})

	t.Run("sizes", func(t *testing.T) {
		stats := SummarizeFiles("/archive", []FileInfo{
			{Name: "a.pdf", Size: 300},
			{Name: "b.pdf", Size: 100},
			{Name: "c.pdf", Size: 500},
		})
		assert.Equal(t, 3, stats.TotalFiles)
		assert.Equal(t, int64(900), stats.TotalSize)
		assert.Equal(t, "c.pdf", stats.LargestFileName)
		assert.Equal(t, int64(500), stats.LargestFileSize)
		assert.Equal(t, "b.pdf", stats.SmallestFileName)
		assert.Equal(t, int64(100), stats.SmallestFileSize)
		assert.Equal(t, int64(300), stats.AverageFileSize)
	})
}
