package fill

import "math"

func BoundWindowSize(v int) int {
	return int(math.Max(16, math.Min(2048, float64(v)))) // Default: 200
}

func BoundChannels(v int) int {
	return int(math.Max(1, math.Min(64, float64(v)))) // Default: 1
}

func BoundBatchSize(v int) int {
	return int(math.Max(1, math.Min(1024, float64(v)))) // Default: 128
}

func BoundWorkers(v int) int {
	return int(math.Max(0, math.Min(32, float64(v)))) // Default: 4
}

func BoundEmbeddingSize(v int) int {
	return int(math.Max(8, math.Min(512, float64(v)))) // Default: 64
}
