package pdf

// DirectoryStats summarises the release-note PDFs found in a directory
type DirectoryStats struct {
	Directory        string `json:"directory"`
	TotalFiles       int    `json:"total_files"`
	TotalSize        int64  `json:"total_size"`
	LargestFileSize  int64  `json:"largest_file_size"`
	LargestFileName  string `json:"largest_file_name"`
	SmallestFileSize int64  `json:"smallest_file_size"`
	SmallestFileName string `json:"smallest_file_name"`
	AverageFileSize  int64  `json:"average_file_size"`
}

// SummarizeFiles computes size statistics over files found by FindDocuments
func SummarizeFiles(directory string, files []FileInfo) DirectoryStats {
	stats := DirectoryStats{Directory: directory}

	for _, f := range files {
		stats.TotalFiles++
		stats.TotalSize += f.Size

		if f.Size > stats.LargestFileSize || stats.LargestFileName == "" {
			stats.LargestFileSize = f.Size
			stats.LargestFileName = f.Name
		}
		if f.Size < stats.SmallestFileSize || stats.SmallestFileName == "" {
			stats.SmallestFileSize = f.Size
			stats.SmallestFileName = f.Name
		}
	}

	if stats.TotalFiles > 0 {
		stats.AverageFileSize = stats.TotalSize / int64(stats.TotalFiles)
	}
	return stats
}
